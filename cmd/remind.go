package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/reminder"
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send today's reminders once",
	Long:  "Runs the daily reminder job immediately. Reminders are printed to stdout, one block per chat.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		d, err := openDeps(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer d.Close()

		job := reminder.NewJob(d.store.LearningStats(), chat.NewWriter(os.Stdout), reminder.JobOptions{
			Rate:    cfg.Reminder.SendRate,
			Burst:   cfg.Reminder.Burst,
			Logger:  log,
			Metrics: d.metrics,
		})
		res, err := job.Run(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("run reminders: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Reminders sent: %d, failed: %d\n", res.Sent, res.Failed)
		return nil
	},
}
