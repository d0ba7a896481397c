package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/cardbot/internal/logging"
)

type purposeKey struct{}

// WithPurpose labels the requests made with ctx, e.g. "hint".
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}

type loggingProvider struct {
	inner Provider
	log   *logging.Logger
}

// WithLogging logs each request with its purpose, latency, token usage
// and estimated cost. log may be nil.
func WithLogging(p Provider, log *logging.Logger) Provider {
	if log == nil {
		log = logging.Nop()
	}
	return &loggingProvider{inner: p, log: log.Named("llm")}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	fields := []zap.Field{
		zap.String("purpose", PurposeFrom(ctx)),
		zap.String("model", l.inner.ModelID()),
		zap.Duration("latency", time.Since(start)),
	}
	if req.Schema != nil {
		fields = append(fields, zap.String("schema", req.Schema.Name))
	}
	if resp != nil {
		fields = append(fields,
			zap.String("served_by", resp.Model),
			zap.Int("tokens.input", resp.Usage.InputTokens),
			zap.Int("tokens.output", resp.Usage.OutputTokens),
		)
		if c := LookupCost(resp.Model); c != nil {
			fields = append(fields, zap.Float64("cost_usd", c.Cost(resp.Usage)))
		}
	}

	if err != nil {
		l.log.Warn(ctx, "llm request failed", append(fields, zap.Error(err))...)
		return resp, err
	}
	l.log.Debug(ctx, "llm request", fields...)
	return resp, nil
}

func (l *loggingProvider) ModelID() string {
	return l.inner.ModelID()
}
