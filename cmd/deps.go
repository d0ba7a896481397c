package cmd

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/abhisek/cardbot/internal/bot"
	"github.com/abhisek/cardbot/internal/cards"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/config"
	"github.com/abhisek/cardbot/internal/convstate"
	"github.com/abhisek/cardbot/internal/hint"
	"github.com/abhisek/cardbot/internal/llm"
	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/metrics"
	"github.com/abhisek/cardbot/internal/session"
	"github.com/abhisek/cardbot/internal/stats"
	"github.com/abhisek/cardbot/internal/store"
)

// deps holds everything built from the config that the bot and the
// one-shot commands share.
type deps struct {
	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics

	store    *store.Store
	rdb      goredis.UniversalClient // nil for the memory backend
	states   convstate.Store
	sessions session.Store
	cards    *cards.Service
	stats    *stats.Service
}

// openDeps opens the store and the state backend.
func openDeps(ctx context.Context, cfg *config.Config, log *logging.Logger) (*deps, error) {
	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg, log: log, store: st}
	if cfg.Metrics.Enabled {
		d.metrics = metrics.New()
	}

	switch cfg.State.Backend {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.State.Redis.Addr,
			Password: cfg.State.Redis.Password,
			DB:       cfg.State.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			st.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.State.Redis.Addr, err)
		}
		d.rdb = rdb
		d.states = convstate.NewRedisStore(rdb, cfg.State.Redis.Prefix)
		d.sessions = session.NewRedisStore(rdb, cfg.State.Redis.Prefix)
	default:
		d.states = convstate.NewMemoryStore()
		d.sessions = session.NewMemoryStore()
	}

	var hints cards.HintSuggester
	if cfg.LLM.Enabled() {
		provider, err := llm.NewProvider(ctx, cfg.LLM, log)
		if err != nil {
			log.Warn(ctx, "llm provider not configured, hints disabled", zap.Error(err))
		} else {
			hints = hint.NewSuggester(provider, hint.DefaultConfig())
		}
	}

	d.cards = cards.NewService(st.Cards(), st.Sets(), hints, log)
	d.stats = stats.NewService(stats.StoreSource{Store: st}, nil)
	return d, nil
}

func openStore(cfg config.StoreConfig) (*store.Store, error) {
	dsn := cfg.DSN
	if cfg.Driver == store.DriverSQLite {
		var err error
		if dsn == "" {
			dsn, err = store.DefaultDBPath()
		} else {
			err = store.EnsureDir(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
	}
	st, err := store.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newBot builds a Bot delivering through client.
func (d *deps) newBot(client chat.Client) *bot.Bot {
	return bot.New(bot.Options{
		Client:   client,
		Users:    d.store.Users(),
		Cards:    d.cards,
		Sessions: session.NewController(d.sessions, d.store.Cards(), d.store.Views()),
		States:   d.states,
		Stats:    d.stats,
		Logger:   d.log,
		Metrics:  d.metrics,
		PageSize: d.cfg.Bot.PageSize,
		Goal:     d.cfg.Bot.Goal,
	})
}

func (d *deps) Close() error {
	var errs []error
	if d.rdb != nil {
		errs = append(errs, d.rdb.Close())
	}
	errs = append(errs, d.store.Close())
	return errors.Join(errs...)
}
