package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ddtips/dashboard/internal/metrics"
	"github.com/ddtips/dashboard/internal/picks"
)

const (
	valueBotKind = "valuebot"
	// ValueBotScanLimit bounds how many recent predictions one run reads.
	ValueBotScanLimit = 4000
)

// ScheduleValueBot registers the value bot on a standard five-field cron spec.
func (s *Scheduler) ScheduleValueBot(spec string, params picks.BotParams) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, err := s.RunValueBot(ctx, params, s.now()); err != nil {
			slog.Error("scheduled value bot failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule value bot %q: %w", spec, err)
	}
	slog.Info("value bot scheduled", "spec", spec, "days", params.Days, "min_edge_pct", params.MinEdgePct, "limit", params.Limit)
	return nil
}

// PreviewValueBot selects picks for the window starting on now's date
// without sending anything.
func (s *Scheduler) PreviewValueBot(ctx context.Context, params picks.BotParams, now time.Time) (picks.BotResult, error) {
	preds, err := s.store.ListPredictions(ctx, ValueBotScanLimit)
	if err != nil {
		return picks.BotResult{}, fmt.Errorf("load predictions: %w", err)
	}
	return picks.Bot(preds, params, now.In(s.loc)), nil
}

// RunValueBot builds the picks message and sends it. The message goes out
// even when no match clears the threshold.
func (s *Scheduler) RunValueBot(ctx context.Context, params picks.BotParams, now time.Time) (picks.BotResult, error) {
	res, err := s.PreviewValueBot(ctx, params, now)
	if err != nil {
		metrics.ReportsSent.WithLabelValues(valueBotKind, "error").Inc()
		return res, err
	}
	if err := s.notifier.Send(ctx, res.Text); err != nil {
		metrics.ReportsSent.WithLabelValues(valueBotKind, "error").Inc()
		return res, fmt.Errorf("send value bot picks: %w", err)
	}
	metrics.ReportsSent.WithLabelValues(valueBotKind, "sent").Inc()
	slog.Info("value bot sent", "from", res.From, "to", res.To, "picks", res.Count)
	return res, nil
}
