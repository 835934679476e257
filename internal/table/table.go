// internal/table/table.go
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/fourcard/internal/assets"
	"github.com/jason-s-yu/fourcard/internal/deck"
	"github.com/jason-s-yu/fourcard/internal/feed"
	"github.com/jason-s-yu/fourcard/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrUnknownTrigger is returned for trigger names other than ready and new_round.
var ErrUnknownTrigger = errors.New("unknown trigger")

// Sink receives the asset path for each display slot.
type Sink interface {
	SetSlotImage(slot int, path string) error
}

// State is the table's round state.
type State int

const (
	StateIdle State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// Trigger names an inbound event that deals a round.
type Trigger string

const (
	// TriggerReady fires once the display has loaded.
	TriggerReady Trigger = "ready"
	// TriggerNewRound fires on every user request for new cards.
	TriggerNewRound Trigger = "new_round"
)

// Options configure a Table. Zero fields fall back to defaults.
type Options struct {
	Source    deck.Source
	Publisher feed.Publisher
	Logger    *logrus.Logger
	Now       func() time.Time
}

// Table holds one display's round state. Triggers are processed one at a time.
type Table struct {
	ID uuid.UUID

	mu        sync.Mutex
	theme     assets.Theme
	source    deck.Source
	publisher feed.Publisher
	logger    *logrus.Logger
	now       func() time.Time

	state    State
	seq      int
	last     *models.Round
	lastUsed time.Time
	conns    int
}

// New creates an idle table drawing assets from theme.
func New(id uuid.UUID, theme assets.Theme, opts Options) *Table {
	t := &Table{
		ID:        id,
		theme:     theme,
		source:    opts.Source,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if t.source == nil {
		t.source = deck.NewTimeSource()
	}
	if t.publisher == nil {
		t.publisher = feed.Nop{}
	}
	if t.logger == nil {
		t.logger = logrus.StandardLogger()
	}
	if t.now == nil {
		t.now = time.Now
	}
	t.lastUsed = t.now()
	return t
}

// State returns the current round state.
func (t *Table) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Theme returns the theme used for the next round.
func (t *Table) Theme() assets.Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

// SetTheme switches the theme for subsequent rounds.
func (t *Table) SetTheme(theme assets.Theme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.theme = theme
}

// Touch marks the table as used now.
func (t *Table) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastUsed = t.now()
}

// LastUsed returns when the table was last looked up, dealt or connected to.
func (t *Table) LastUsed() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastUsed
}

// Attach registers an open display connection. A table with connections is
// never evicted from the store.
func (t *Table) Attach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns++
	t.lastUsed = t.now()
}

// Detach releases a connection registered with Attach.
func (t *Table) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conns > 0 {
		t.conns--
	}
	t.lastUsed = t.now()
}

// evictable reports whether the table has no connections and has been unused since before cutoff.
func (t *Table) evictable(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns == 0 && t.lastUsed.Before(cutoff)
}

// Reset puts the table back to idle and restarts its round numbering.
// The theme and shuffle source are kept.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateIdle
	t.seq = 0
	t.last = nil
	t.lastUsed = t.now()
	t.logger.WithField("table", t.ID).Info("Table reset")
}

// LastRound returns the most recent round, if any.
func (t *Table) LastRound() (models.Round, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return models.Round{}, false
	}
	return *t.last, true
}

// Handle runs a trigger against the table: it deals a round and assigns the
// asset paths to the sink's slots.
func (t *Table) Handle(ctx context.Context, trig Trigger, sink Sink) (models.Round, error) {
	switch trig {
	case TriggerReady, TriggerNewRound:
	default:
		return models.Round{}, fmt.Errorf("%w: %q", ErrUnknownTrigger, trig)
	}
	return t.Deal(ctx, sink), nil
}

// Deal builds and shuffles a fresh deck, keeps the first four cards and hands
// each card's asset path to the sink. A slot the sink rejects is recorded in
// FailedSlots; the remaining slots are still assigned.
func (t *Table) Deal(ctx context.Context, sink Sink) models.Round {
	t.mu.Lock()
	defer t.mu.Unlock()

	cards := deck.BuildShuffled(t.source)

	t.seq++
	round := models.Round{
		ID:      uuid.New(),
		TableID: t.ID,
		Seq:     t.seq,
		Theme:   t.theme.Name,
		Cards:   cards,
		Images:  make([]models.Image, len(cards)),
		DealtAt: t.now(),
	}

	for i, c := range cards {
		path := t.theme.Path(c)
		round.Images[i] = models.Image{Code: c.Code(), URL: path}
		if sink == nil {
			continue
		}
		if err := sink.SetSlotImage(i, path); err != nil {
			round.FailedSlots = append(round.FailedSlots, i)
			t.logger.WithFields(logrus.Fields{
				"table": t.ID,
				"slot":  i,
				"path":  path,
				"error": err,
			}).Warn("Display slot assignment failed")
		}
	}

	t.state = StateActive
	t.last = &round
	t.lastUsed = round.DealtAt

	if err := t.publisher.Publish(ctx, round); err != nil {
		t.logger.WithFields(logrus.Fields{
			"table": t.ID,
			"round": round.ID,
			"error": err,
		}).Warn("Failed to publish round")
	}

	t.logger.WithFields(logrus.Fields{
		"table": t.ID,
		"seq":   round.Seq,
		"theme": round.Theme,
		"cards": round.Question(),
	}).Debug("Dealt round")

	return round
}

// maxReportLen caps client-supplied strings written to the log.
const maxReportLen = 128

// ReportAssetError records a renderer's failure to load an asset. The round
// stays active and nothing is retried.
func (t *Table) ReportAssetError(slot int, path, reason string) {
	t.logger.WithFields(logrus.Fields{
		"table":  t.ID,
		"slot":   slot,
		"path":   clip(path),
		"reason": clip(reason),
	}).Warn("Asset failed to load")
}

func clip(s string) string {
	if len(s) <= maxReportLen {
		return s
	}
	return s[:maxReportLen] + "..."
}

// Slots is an in-memory sink holding one path per slot.
type Slots [deck.HandSize]string

// SetSlotImage stores path at slot.
func (s *Slots) SetSlotImage(slot int, path string) error {
	if slot < 0 || slot >= len(s) {
		return fmt.Errorf("slot %d out of range", slot)
	}
	s[slot] = path
	return nil
}
