// internal/handlers/api_server.go
package handlers

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jason-s-yu/fourcard/internal/assets"
	"github.com/jason-s-yu/fourcard/internal/deck"
	"github.com/jason-s-yu/fourcard/internal/feed"
	"github.com/jason-s-yu/fourcard/internal/middleware"
	"github.com/jason-s-yu/fourcard/internal/models"
	"github.com/jason-s-yu/fourcard/internal/puzzle"
	"github.com/jason-s-yu/fourcard/internal/table"
	"github.com/sirupsen/logrus"
)

//go:embed web/*
var webFS embed.FS

// pageFS is the web directory of webFS.
var pageFS = mustSub(webFS, "web")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("embedded %s: %v", dir, err))
	}
	return sub
}

// TableServer holds the table store and everything needed to create tables.
type TableServer struct {
	Tables    *table.Store
	Themes    *assets.Themes
	Publisher feed.Publisher
	Logger    *logrus.Logger

	// NewSource seeds each new table's shuffle. Tests replace it with a fixed seed.
	NewSource func() deck.Source
}

// NewTableServer creates a server holding at most maxTables tables (0 for the default).
func NewTableServer(themes *assets.Themes, publisher feed.Publisher, logger *logrus.Logger, maxTables int) *TableServer {
	if publisher == nil {
		publisher = feed.Nop{}
	}
	return &TableServer{
		Tables:    table.NewStore(maxTables),
		Themes:    themes,
		Publisher: publisher,
		Logger:    logger,
		NewSource: func() deck.Source { return deck.NewTimeSource() },
	}
}

// Routes wires every endpoint onto a chi router. Images are served from
// assetsDir under /assets/.
func (s *TableServer) Routes(assetsDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(s.Logger))
	r.Use(chimw.Heartbeat("/ping"))

	r.Get("/", IndexHandler(pageFS))
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(assetsDir))))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"https://*", "http://*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		r.Get("/themes", ThemesHandler(s))
		r.Get("/round", RoundHandler(s))
		r.Post("/check", CheckHandler(s))
		r.Post("/help", HelpHandler(s))
		r.Post("/restart", RestartHandler(s))
	})
	r.Get("/table/ws", TableWSHandler(s.Logger, s))

	return r
}

// tableFor returns the caller's table, creating it on first use.
func (s *TableServer) tableFor(id uuid.UUID, theme assets.Theme) *table.Table {
	return s.Tables.GetOrCreate(id, func(id uuid.UUID) *table.Table {
		s.Logger.WithFields(logrus.Fields{"table": id, "theme": theme.Name}).Info("New table")
		return table.New(id, theme, table.Options{
			Source:    s.NewSource(),
			Publisher: s.Publisher,
			Logger:    s.Logger,
		})
	})
}

// IndexHandler serves the page with the four display slots.
func IndexHandler(page fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data, err := fs.ReadFile(page, "index.html")
		if err != nil {
			http.Error(w, "page unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(data)
	}
}

// ThemesHandler lists configured themes.
func ThemesHandler(s *TableServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"default_theme": s.Themes.Default(),
			"themes":        s.Themes.List(),
		})
	}
}

// RoundHandler deals a round on the caller's table and returns it as JSON.
// GET /api/round?theme=classic
func RoundHandler(s *TableServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		theme, err := s.Themes.Lookup(r.URL.Query().Get("theme"))
		if err != nil {
			if errors.Is(err, assets.ErrUnknownTheme) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		tableID, err := EnsureTableSession(w, r)
		if err != nil {
			s.Logger.Errorf("failed to establish table session: %v", err)
			http.Error(w, "failed to create session", http.StatusInternalServerError)
			return
		}

		t := s.tableFor(tableID, theme)
		t.SetTheme(theme)

		var slots table.Slots
		round := t.Deal(r.Context(), &slots)
		writeJSON(w, http.StatusOK, newRoundView(round))
	}
}

// cardView is a card as sent to clients.
type cardView struct {
	Code string `json:"code"`
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

// roundView is the JSON shape of a dealt round.
type roundView struct {
	ID          uuid.UUID      `json:"id"`
	Seq         int            `json:"seq"`
	Theme       string         `json:"theme"`
	Cards       []cardView     `json:"cards"`
	Images      []models.Image `json:"images"`
	Values      []int          `json:"values"`
	Question    string         `json:"question"`
	FailedSlots []int          `json:"failed_slots,omitempty"`
}

func newRoundView(r models.Round) roundView {
	cards := make([]cardView, len(r.Cards))
	for i, c := range r.Cards {
		cards[i] = cardView{Code: c.Code(), Rank: c.Rank, Suit: c.Suit}
	}
	return roundView{
		ID:          r.ID,
		Seq:         r.Seq,
		Theme:       r.Theme,
		Cards:       cards,
		Images:      r.Images,
		Values:      puzzle.Values(r.Cards),
		Question:    r.Question(),
		FailedSlots: r.FailedSlots,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
