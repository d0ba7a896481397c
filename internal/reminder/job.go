// Package reminder sends the daily "time to review" nudge to users who
// have cards but have neither learned nor been reminded today.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/abhisek/cardbot/internal/bot"
	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/metrics"
	"github.com/abhisek/cardbot/internal/stats"
	"github.com/abhisek/cardbot/internal/store"
)

// Result counts the deliveries of one run.
type Result struct {
	Sent   int
	Failed int
}

// JobOptions configures a Job.
type JobOptions struct {
	// Rate is the number of reminders sent per second. Zero means
	// unlimited.
	Rate  float64
	Burst int

	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Job delivers one round of reminders.
type Job struct {
	stats   store.LearningStatsRepo
	client  chat.Client
	limiter *rate.Limiter
	log     *logging.Logger
	metrics *metrics.Metrics
}

// NewJob creates a Job sending through client.
func NewJob(stats store.LearningStatsRepo, client chat.Client, opts JobOptions) *Job {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &Job{
		stats:   stats,
		client:  client,
		limiter: rate.NewLimiter(limit, max(opts.Burst, 1)),
		log:     log.Named("reminder"),
		metrics: opts.Metrics,
	}
}

// Run reminds every user eligible at now. A user counts as reminded only
// once the message was delivered; failed deliveries are retried by the
// next run.
func (j *Job) Run(ctx context.Context, now time.Time) (Result, error) {
	users, err := j.stats.ReminderCandidates(ctx, stats.Day(now))
	if err != nil {
		return Result{}, fmt.Errorf("reminder candidates: %w", err)
	}

	var res Result
	text, markup := bot.ReminderScreen()
	for _, u := range users {
		if err := j.limiter.Wait(ctx); err != nil {
			return res, err
		}
		uctx := logging.WithUserID(ctx, u.ExternalID)

		// Private chats share the user's platform id.
		if _, err := j.client.Send(uctx, u.ExternalID, text, markup); err != nil {
			res.Failed++
			j.metrics.RecordReminder(false)
			j.log.Warn(uctx, "reminder delivery failed", zap.Error(err))
			continue
		}
		if err := j.stats.MarkReminded(uctx, u.ID, now); err != nil {
			return res, fmt.Errorf("mark user %d reminded: %w", u.ID, err)
		}
		res.Sent++
		j.metrics.RecordReminder(true)
	}

	j.log.Info(ctx, "reminders sent",
		zap.Int("candidates", len(users)),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
