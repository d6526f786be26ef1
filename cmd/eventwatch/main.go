// Command eventwatch mirrors the campus event list and logs it whenever it changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/Learn-Trical-23/EE-24/internal/config"
	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/eventsync"
	"github.com/Learn-Trical-23/EE-24/internal/logging"
	"github.com/Learn-Trical-23/EE-24/internal/model"
)

type options struct {
	apiURL      string
	feed        string
	databaseURL string
	redisAddr   string
	channel     string
	logLevel    string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "eventwatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("eventwatch", pflag.ContinueOnError)
	flagSet.StringVar(&opts.apiURL, "api", "http://localhost:4000", "campus API base URL")
	flagSet.StringVar(&opts.feed, "feed", config.ChangeFeedPostgres, "change feed: postgres, redis or none")
	flagSet.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL for the postgres feed")
	flagSet.StringVar(&opts.redisAddr, "redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the redis feed")
	flagSet.StringVar(&opts.channel, "channel", "events_changes", "change notification channel")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	logger := logging.New(opts.logLevel, "development").With().Str("service", "eventwatch").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	subscriber, err := newSubscriber(opts, logger)
	if err != nil {
		return err
	}

	bridge := eventsync.NewBridge(
		eventsync.NewHTTPLoader(opts.apiURL, nil),
		subscriber,
		eventsync.NewMirror(),
		logging.Component(logger, "bridge"),
		eventsync.WithOnUpdate(func(events []model.Event) {
			logEvents(logger, events)
		}),
	)
	return bridge.Run(ctx)
}

// newSubscriber validates the feed flags. Connecting happens inside the bridge,
// so the list still loads while the feed is unreachable.
func newSubscriber(opts options, logger zerolog.Logger) (eventsync.Subscriber, error) {
	subLogger := logging.Component(logger, "subscriber")
	switch opts.feed {
	case config.ChangeFeedPostgres:
		if opts.databaseURL == "" {
			return nil, fmt.Errorf("--database-url is required for the postgres feed")
		}
		return eventsync.NewLazySubscriber(func(ctx context.Context) (eventsync.Subscriber, func(), error) {
			pool, err := db.NewPool(ctx, opts.databaseURL)
			if err != nil {
				return nil, nil, fmt.Errorf("db connection failed: %w", err)
			}
			return eventsync.NewPostgresListener(pool, opts.channel, subLogger), pool.Close, nil
		}), nil
	case config.ChangeFeedRedis:
		if opts.redisAddr == "" {
			return nil, fmt.Errorf("--redis-addr is required for the redis feed")
		}
		return eventsync.NewLazySubscriber(func(ctx context.Context) (eventsync.Subscriber, func(), error) {
			client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := client.Ping(pingCtx).Err(); err != nil {
				_ = client.Close()
				return nil, nil, fmt.Errorf("redis ping failed: %w", err)
			}
			return eventsync.NewRedisSubscriber(client, opts.channel, subLogger), func() { _ = client.Close() }, nil
		}), nil
	case config.ChangeFeedNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown feed %q", opts.feed)
	}
}

func logEvents(logger zerolog.Logger, events []model.Event) {
	arr := zerolog.Arr()
	for _, e := range events {
		arr.Dict(zerolog.Dict().
			Str("id", e.ID).
			Str("title", e.Title).
			Time("datetime", e.Datetime).
			Str("kind", string(e.Kind)))
	}
	logger.Info().Int("count", len(events)).Array("events", arr).Msg("event list updated")
}
