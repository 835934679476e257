// cmd/feedtail/main.go pops dealt rounds from the Redis feed and logs them,
// with a periodic summary of how evenly cards are being dealt.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/fourcard/internal/config"
	"github.com/jason-s-yu/fourcard/internal/deck"
	"github.com/jason-s-yu/fourcard/internal/feed"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	every := flag.Duration("summary", time.Minute, "interval between tally summaries")
	flag.Parse()

	cfg := config.Load()
	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.RedisDB})
	defer rdb.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("failed to connect to Redis at %s: %v", addr, err)
	}

	tally := feed.NewTally()
	go func() {
		ticker := time.NewTicker(*every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if tally.Rounds() == 0 {
					continue
				}
				logger.WithFields(logrus.Fields{
					"rounds":    tally.Rounds(),
					"chi2":      tally.ChiSquaredFirst(deck.Size),
					"most_seen": tally.Top(4),
				}).Info("Feed summary")
			}
		}
	}()

	logger.Infof("Tailing Redis list %s on %s", cfg.FeedQueue, addr)
	err := feed.Consume(ctx, rdb, cfg.FeedQueue,
		func(rec feed.RoundRecord) {
			tally.Add(rec)
			logger.WithFields(logrus.Fields{
				"table": rec.TableID,
				"seq":   rec.Seq,
				"theme": rec.Theme,
				"cards": rec.Codes,
			}).Info("Round dealt")
		},
		func(err error) {
			logger.Warn(err)
		},
	)
	if err != nil {
		logger.Fatalf("feed consumer stopped: %v", err)
	}
	logger.Info("feedtail shutdown complete.")
}
