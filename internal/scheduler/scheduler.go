// Package scheduler runs the daily, weekly and monthly report jobs on cron
// schedules and delivers them through a notifier.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ddtips/dashboard/internal/metrics"
	"github.com/ddtips/dashboard/internal/notify"
	"github.com/ddtips/dashboard/internal/report"
	"github.com/ddtips/dashboard/internal/store"
)

const jobTimeout = 2 * time.Minute

// Scheduler builds reports from the store and sends them. It is also used
// directly by the HTTP layer for previews and manual sends.
type Scheduler struct {
	store    store.Store
	notifier notify.Notifier
	loc      *time.Location
	cron     *cron.Cron
	now      func() time.Time
}

// New creates a scheduler whose periods and cron specs are evaluated in loc.
func New(st store.Store, n notify.Notifier, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		store:    st,
		notifier: n,
		loc:      loc,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		now: time.Now,
	}
}

// Schedule registers the report of kind on a standard five-field cron spec.
func (s *Scheduler) Schedule(kind report.Kind, spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if _, _, err := s.RunOnce(ctx, kind, s.now()); err != nil {
			slog.Error("scheduled report failed", "kind", kind, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s report %q: %w", kind, spec, err)
	}
	slog.Info("report scheduled", "kind", kind, "spec", spec, "timezone", s.loc.String())
	return nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and returns a context done when running jobs finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// Generate builds the report of kind covering the period before now.
func (s *Scheduler) Generate(ctx context.Context, kind report.Kind, now time.Time) (report.Report, error) {
	period := kind.PeriodFor(now.In(s.loc))
	bets, err := s.store.ListBets(ctx, store.BetQuery{Filter: period.Filter()})
	if err != nil {
		return report.Report{}, fmt.Errorf("load bets for %s report: %w", kind, err)
	}
	return report.Build(kind, period, bets), nil
}

// RunOnce generates the report of kind and sends it. An empty daily report
// is skipped and reported as not sent.
func (s *Scheduler) RunOnce(ctx context.Context, kind report.Kind, now time.Time) (report.Report, bool, error) {
	rep, err := s.Generate(ctx, kind, now)
	if err != nil {
		metrics.ReportsSent.WithLabelValues(string(kind), "error").Inc()
		return rep, false, err
	}

	if rep.Text == "" {
		slog.Info("report skipped, no bets", "kind", kind, "from", rep.From, "to", rep.To)
		metrics.ReportsSent.WithLabelValues(string(kind), "skipped").Inc()
		return rep, false, nil
	}

	if err := s.notifier.Send(ctx, rep.Text); err != nil {
		metrics.ReportsSent.WithLabelValues(string(kind), "error").Inc()
		return rep, false, fmt.Errorf("send %s report: %w", kind, err)
	}

	metrics.ReportsSent.WithLabelValues(string(kind), "sent").Inc()
	slog.Info("report sent",
		"kind", kind,
		"from", rep.From,
		"to", rep.To,
		"bets", rep.Summary.TotalBets,
		"profit", rep.Summary.TotalProfit.StringFixed(2),
	)
	return rep, true, nil
}
