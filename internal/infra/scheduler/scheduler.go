package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"team_pulse_worker/internal/app"
)

// ErrPassPanicked wraps a panic recovered from one pass.
var ErrPassPanicked = fmt.Errorf("pass panicked")

// Pass names one of the two units a tick runs.
type Pass string

const (
	PassRollover Pass = "rollover"
	PassAlerts   Pass = "alerts"
)

// ParsePass maps a CLI value to a Pass; ok is false for anything else.
func ParsePass(s string) (Pass, bool) {
	switch Pass(s) {
	case PassRollover, PassAlerts:
		return Pass(s), true
	}
	return "", false
}

// TickReport carries each pass's outcome. A nil report with a nil error means
// the pass was not run.
type TickReport struct {
	Rollover    *app.RolloverReport
	RolloverErr error
	Alerts      *app.AlertReport
	AlertsErr   error
}

func (r TickReport) Failed() bool {
	return r.RolloverErr != nil || r.AlertsErr != nil
}

type Scheduler struct {
	cronEngine *cron.Cron
	rollovers  app.RolloverRunner
	alerts     app.AlertRunner
	logger     *logrus.Entry
	cronSpec   string
	timeout    time.Duration
	now        func() time.Time
}

func NewScheduler(
	rollovers app.RolloverRunner,
	alerts app.AlertRunner,
	logger *logrus.Entry,
	cronSpec string, // e.g. "0 * * * *" (top of every hour)
	timeout time.Duration,
) *Scheduler {
	return &Scheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
		),
		rollovers: rollovers,
		alerts:    alerts,
		logger:    logger,
		cronSpec:  cronSpec,
		timeout:   timeout,
		now:       time.Now,
	}
}

// RunTick runs the rollover pass and then the alert pass. A failure or panic
// in one is logged and reported but never stops the other.
func (s *Scheduler) RunTick(ctx context.Context, now time.Time) TickReport {
	return s.RunPasses(ctx, now, PassRollover, PassAlerts)
}

// RunPasses runs only the named passes, in the given order.
func (s *Scheduler) RunPasses(ctx context.Context, now time.Time, passes ...Pass) TickReport {
	var report TickReport
	for _, p := range passes {
		switch p {
		case PassRollover:
			report.RolloverErr = s.guard(p, func() error {
				if s.rollovers == nil {
					return fmt.Errorf("rollover pass: %w", app.ErrMissingCollaborator)
				}
				var err error
				report.Rollover, err = s.rollovers.RunRolloverPass(ctx, now)
				return err
			})
		case PassAlerts:
			report.AlertsErr = s.guard(p, func() error {
				if s.alerts == nil {
					return fmt.Errorf("alert pass: %w", app.ErrMissingCollaborator)
				}
				var err error
				report.Alerts, err = s.alerts.RunAlertPass(ctx, now)
				return err
			})
		default:
			s.logger.WithField("pass", p).Warn("Unknown pass requested, ignoring")
		}
	}
	return report
}

func (s *Scheduler) guard(p Pass, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPassPanicked, p, r)
		}
		if err != nil {
			s.logger.WithError(err).WithField("pass", p).Error("Pass failed")
		}
	}()
	return fn()
}

// Start registers the tick on the cron spec. Ticks that overlap a still
// running one in this process are skipped.
func (s *Scheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting pulse scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		now := s.now().UTC()
		s.logger.WithField("tick", now.Format(time.RFC3339)).Info("Cron tick triggered")
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		report := s.RunTick(ctx, now)
		if report.Failed() {
			s.logger.Warn("Tick finished with a failed pass, it will be retried on the next tick")
		}
	})
	if err != nil {
		return fmt.Errorf("could not add tick cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Pulse scheduler started.")
	return nil
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping pulse scheduler...")
	ctx := s.cronEngine.Stop() // waits for a running tick
	<-ctx.Done()
	s.logger.Info("Pulse scheduler gracefully stopped.")
}
