// internal/feed/consumer.go
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consume pops round records from queue until ctx is done, handing each to fn.
// Records that fail to decode are passed to onBad and skipped.
func Consume(ctx context.Context, rdb *redis.Client, queue string, fn func(RoundRecord), onBad func(error)) error {
	if queue == "" {
		queue = DefaultQueueName
	}
	for {
		if ctx.Err() != nil {
			return nil
		}

		// a short BLPop timeout keeps cancellation responsive
		res, err := rdb.BLPop(ctx, 3*time.Second, queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("BLPop %s: %w", queue, err)
		}
		if len(res) < 2 {
			continue
		}

		// res[0] is the queue name and res[1] the payload.
		var rec RoundRecord
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			if onBad != nil {
				onBad(fmt.Errorf("invalid round record: %w", err))
			}
			continue
		}
		fn(rec)
	}
}

// Tally counts how often each card code was dealt first and overall.
type Tally struct {
	mu     sync.Mutex
	rounds int
	first  map[string]int
	all    map[string]int
}

func NewTally() *Tally {
	return &Tally{first: map[string]int{}, all: map[string]int{}}
}

// Add records one round.
func (t *Tally) Add(rec RoundRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rounds++
	for i, code := range rec.Codes {
		if i == 0 {
			t.first[code]++
		}
		t.all[code]++
	}
}

// Rounds returns the number of rounds recorded.
func (t *Tally) Rounds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rounds
}

// ChiSquaredFirst returns the chi-squared statistic of first-card counts
// against a uniform spread over n cards. Cards never seen count as zero.
func (t *Tally) ChiSquaredFirst(n int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rounds == 0 || n == 0 {
		return 0
	}
	expected := float64(t.rounds) / float64(n)
	var chi2 float64
	seen := 0
	for _, c := range t.first {
		d := float64(c) - expected
		chi2 += d * d / expected
		seen++
	}
	// unseen cards each contribute (0 - e)^2 / e = e
	chi2 += float64(n-seen) * expected
	return chi2
}

// Top returns the k most dealt codes, highest count first, ties by code.
func (t *Tally) Top(k int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	codes := make([]string, 0, len(t.all))
	for c := range t.all {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		if t.all[codes[i]] != t.all[codes[j]] {
			return t.all[codes[i]] > t.all[codes[j]]
		}
		return codes[i] < codes[j]
	})
	if k < len(codes) {
		codes = codes[:k]
	}
	return codes
}
