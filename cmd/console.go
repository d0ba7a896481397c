package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/cardbot/internal/bot"
	"github.com/abhisek/cardbot/internal/console"
	"github.com/abhisek/cardbot/internal/metrics"
	"github.com/abhisek/cardbot/internal/reminder"
	"github.com/abhisek/cardbot/internal/store"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd)
	},
}

func init() {
	f := consoleCmd.Flags()
	f.Int64("user", 1, "Platform user id to chat as")
	f.String("log-file", "", "Log file (default: cardbot.log next to the default database)")
	f.Bool("metrics", false, "Serve Prometheus metrics")
	f.String("metrics-addr", ":9090", "Metrics listen address")
}

// runConsole starts the terminal chat together with the metrics server
// and the reminder scheduler. The terminal owns stdout, so logs go to a
// file.
func runConsole(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logPath, _ := cmd.Flags().GetString("log-file")
	if logPath == "" {
		if logPath, err = defaultLogPath(); err != nil {
			return err
		}
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	log, err := newLogger(cfg, logFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	d, err := openDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()

	userID, _ := cmd.Flags().GetInt64("user")
	term := console.New(console.Options{
		UserID:    userID,
		UserName:  userName(),
		QueueSize: cfg.Bot.QueueSize,
		Logger:    log,
	})
	b := d.newBot(term)
	dispatcher := bot.NewDispatcher(b, bot.DispatcherOptions{
		Workers: cfg.Bot.Workers,
		Logger:  log,
		Metrics: d.metrics,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return term.Run(gctx)
	})

	g.Go(func() error {
		err := dispatcher.Run(gctx, term.Events())
		if gctx.Err() != nil {
			return nil
		}
		return err
	})

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Addr)
		})
	}

	if cfg.Reminder.Enabled {
		job := reminder.NewJob(d.store.LearningStats(), term, reminder.JobOptions{
			Rate:    cfg.Reminder.SendRate,
			Burst:   cfg.Reminder.Burst,
			Logger:  log,
			Metrics: d.metrics,
		})
		sched := reminder.NewScheduler(job, reminder.SchedulerConfig{
			Hour:     cfg.Reminder.Hour,
			Interval: cfg.Reminder.CheckInterval,
		}, log)
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	return g.Wait()
}

func defaultLogPath() (string, error) {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return "", fmt.Errorf("resolve log path: %w", err)
	}
	return filepath.Join(filepath.Dir(dbPath), "cardbot.log"), nil
}

func userName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "you"
}
