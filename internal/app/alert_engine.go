// internal/app/alert_engine.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"team_pulse_worker/internal/domain/client"
	"team_pulse_worker/internal/domain/notification"
	"team_pulse_worker/internal/domain/subscriber"
	"team_pulse_worker/internal/infra/config"
)

const day = 24 * time.Hour

// AlertRunner is implemented by AlertEngine.
type AlertRunner interface {
	RunAlertPass(ctx context.Context, now time.Time) (*AlertReport, error)
}

// Dispatcher pushes a persisted notification to the recipient out of band.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipient *subscriber.Subscriber, n *notification.Notification) error
}

// AlertReport summarizes an alert pass.
type AlertReport struct {
	CriticalFound int
	OverThreshold int
	Notified      int
	// Skipped counts pairs suppressed by the dedup window or an opt-out.
	Skipped int
	// Failed counts pairs whose lookups or insert errored.
	Failed int
}

type staleClient struct {
	client    *client.Client
	daysStale int
	urgency   notification.Urgency
}

type pairOutcome int

const (
	outcomeNotified pairOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// AlertEngine finds clients stuck in a critical status and notifies the
// coordinators and supervisors responsible for them.
type AlertEngine struct {
	clientRepo client.Repository
	directory  subscriber.Directory
	ledger     notification.Ledger
	dispatcher Dispatcher // optional
	rules      config.AlertRules
	logger     *logrus.Entry
	workers    int
}

func NewAlertEngine(
	cr client.Repository,
	dir subscriber.Directory,
	ledger notification.Ledger,
	dispatcher Dispatcher,
	rules config.AlertRules,
	logger *logrus.Entry,
	workers int,
) *AlertEngine {
	return &AlertEngine{
		clientRepo: cr,
		directory:  dir,
		ledger:     ledger,
		dispatcher: dispatcher,
		rules:      rules,
		logger:     logger,
		workers:    workers,
	}
}

// DaysStale is the number of whole days between lastChange and now, never negative.
func DaysStale(lastChange, now time.Time) int {
	elapsed := now.Sub(lastChange)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / day)
}

// RunAlertPass notifies eligible subscribers about every client that has
// spent at least StaleAfterDays in a critical status. Failures for one
// recipient never block the others.
func (e *AlertEngine) RunAlertPass(ctx context.Context, now time.Time) (*AlertReport, error) {
	if e == nil || e.clientRepo == nil || e.directory == nil || e.ledger == nil || e.logger == nil {
		return nil, fmt.Errorf("alert engine: %w", ErrMissingCollaborator)
	}
	passLogger := e.logger.WithFields(logrus.Fields{"pass": "alerts", "now": now.Format(time.RFC3339)})
	report := &AlertReport{}

	clients, err := e.clientRepo.ListByStatuses(ctx, e.rules.CriticalStatuses)
	if err != nil {
		passLogger.WithError(err).Error("Failed to list clients in critical status")
		return nil, fmt.Errorf("failed to list critical clients: %w", err)
	}
	report.CriticalFound = len(clients)
	if len(clients) == 0 {
		passLogger.Info("No clients in critical status")
		return report, nil
	}

	ids := make([]uuid.UUID, len(clients))
	for i, c := range clients {
		ids[i] = c.ID
	}
	latest, err := e.clientRepo.LatestStatusChanges(ctx, ids)
	if err != nil {
		passLogger.WithError(err).Error("Failed to read status history")
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}

	var stale []staleClient
	for _, c := range clients {
		days := DaysStale(client.LastChange(c, latest[c.ID]), now)
		if days < e.rules.StaleAfterDays {
			continue
		}
		stale = append(stale, staleClient{
			client:    c,
			daysStale: days,
			urgency:   notification.ClassifyUrgency(days, e.rules.EscalateAfterDays),
		})
	}
	report.OverThreshold = len(stale)
	if len(stale) == 0 {
		passLogger.WithField("critical_found", report.CriticalFound).Info("No client over the staleness threshold")
		return report, nil
	}

	candidates, err := e.directory.ListAlertCandidates(ctx)
	if err != nil {
		passLogger.WithError(err).Error("Failed to resolve alert candidates")
		return report, fmt.Errorf("failed to list alert candidates: %w", err)
	}

	var mu sync.Mutex
	record := func(o pairOutcome) {
		mu.Lock()
		defer mu.Unlock()
		switch o {
		case outcomeNotified:
			report.Notified++
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
		}
	}

	notStarted := runUnits(ctx, e.workers, len(stale), func(unitCtx context.Context, i int) {
		sc := stale[i]
		for _, sub := range candidates {
			if !sub.CoversSquad(sc.client.SquadID) {
				continue
			}
			record(e.notifyPair(unitCtx, sc, sub, now))
		}
	})
	if len(notStarted) > 0 {
		passLogger.WithField("clients_not_started", len(notStarted)).Warn("Alert pass cancelled before all clients were processed")
	}

	passLogger.WithFields(logrus.Fields{
		"critical_found": report.CriticalFound,
		"over_threshold": report.OverThreshold,
		"notified":       report.Notified,
		"skipped":        report.Skipped,
		"failed":         report.Failed,
	}).Info("Alert pass finished")
	return report, nil
}

func (e *AlertEngine) notifyPair(ctx context.Context, sc staleClient, sub *subscriber.Subscriber, now time.Time) pairOutcome {
	pairLogger := e.logger.WithFields(logrus.Fields{
		"client_id":    sc.client.ID,
		"recipient_id": sub.UserID,
		"days_stale":   sc.daysStale,
	})
	since := now.Add(-e.rules.DedupWindow)
	category := notification.CategoryClientAtRisk

	exists, err := e.ledger.ExistsSince(ctx, sc.client.ID, sub.UserID, category, since)
	if err != nil {
		pairLogger.WithError(err).Error("Failed to check dedup window")
		return outcomeFailed
	}
	if exists {
		pairLogger.Debug("Already notified inside the dedup window")
		return outcomeSkipped
	}

	enabled, err := e.directory.NotificationsEnabled(ctx, sub.UserID, category)
	if err != nil {
		pairLogger.WithError(err).Error("Failed to resolve notification preference")
		return outcomeFailed
	}
	if !enabled {
		pairLogger.Debug("Recipient opted out of category")
		return outcomeSkipped
	}

	n := buildClientAtRiskNotification(sc, sub.UserID, now)
	created, err := e.ledger.CreateIfAbsent(ctx, n, since)
	if err != nil {
		pairLogger.WithError(err).Error("Failed to persist notification")
		return outcomeFailed
	}
	if !created {
		pairLogger.Debug("Concurrent pass already notified inside the dedup window")
		return outcomeSkipped
	}
	pairLogger.WithField("urgency", sc.urgency).Info("Client-at-risk notification created")

	if e.dispatcher != nil {
		if err := e.dispatcher.Dispatch(ctx, sub, n); err != nil {
			pairLogger.WithError(err).Warn("Failed to push notification, it stays in the inbox")
		}
	}
	return outcomeNotified
}

func buildClientAtRiskNotification(sc staleClient, recipientID uuid.UUID, now time.Time) *notification.Notification {
	c := sc.client
	return &notification.Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Category:    notification.CategoryClientAtRisk,
		ClientID:    uuid.NullUUID{UUID: c.ID, Valid: true},
		Title:       fmt.Sprintf("Client at risk: %d days without status change", sc.daysStale),
		Message: fmt.Sprintf("%s has been in status %q for %d days with no change. Urgency: %s.",
			c.Name, c.HealthStatus, sc.daysStale, sc.urgency),
		Metadata: notification.Metadata{
			DaysWithoutChange: sc.daysStale,
			HealthStatus:      string(c.HealthStatus),
			Urgency:           sc.urgency,
		},
		CreatedAt: now,
	}
}
