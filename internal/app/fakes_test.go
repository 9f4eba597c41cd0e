package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"team_pulse_worker/internal/domain/client"
	"team_pulse_worker/internal/domain/goal"
	"team_pulse_worker/internal/domain/notification"
	"team_pulse_worker/internal/domain/subscriber"
	idb "team_pulse_worker/internal/infra/database"
)

func newTestLogger() (*logrus.Entry, *test.Hook) {
	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(l), hook
}

// memGoalRepo mimics the guards of PostgresGoalRepository: unique cycle
// numbers per goal and the conditional reset.
type memGoalRepo struct {
	mu     sync.Mutex
	goals  map[uuid.UUID]*goal.Goal
	marks  map[uuid.UUID][]*goal.CompletionMark
	cycles map[uuid.UUID][]*goal.CycleRecord

	failMarks  map[uuid.UUID]error
	failReset  map[uuid.UUID]error
	failDelete map[uuid.UUID]error
	listDueErr error
	// afterLatest runs once the latest cycle has been read, outside the lock.
	afterLatest func(goalID uuid.UUID)
}

func newMemGoalRepo() *memGoalRepo {
	return &memGoalRepo{
		goals:      make(map[uuid.UUID]*goal.Goal),
		marks:      make(map[uuid.UUID][]*goal.CompletionMark),
		cycles:     make(map[uuid.UUID][]*goal.CycleRecord),
		failMarks:  make(map[uuid.UUID]error),
		failReset:  make(map[uuid.UUID]error),
		failDelete: make(map[uuid.UUID]error),
	}
}

func (r *memGoalRepo) addGoal(g *goal.Goal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	r.goals[g.ID] = &cp
}

func (r *memGoalRepo) addMarks(goalID uuid.UUID, completed, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < total; i++ {
		r.marks[goalID] = append(r.marks[goalID], &goal.CompletionMark{
			ID:            uuid.New(),
			GoalID:        goalID,
			ParticipantID: uuid.New(),
			Completed:     i < completed,
		})
	}
}

func (r *memGoalRepo) goal(id uuid.UUID) goal.Goal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.goals[id]
}

func (r *memGoalRepo) cycleRecords(id uuid.UUID) []goal.CycleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]goal.CycleRecord, 0, len(r.cycles[id]))
	for _, c := range r.cycles[id] {
		out = append(out, *c)
	}
	return out
}

func (r *memGoalRepo) markCount(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.marks[id])
}

func (r *memGoalRepo) ListDue(_ context.Context, now time.Time) ([]*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listDueErr != nil {
		return nil, r.listDueErr
	}
	var due []*goal.Goal
	for _, g := range r.goals {
		if g.IsDue(now) {
			cp := *g
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (r *memGoalRepo) GetByID(_ context.Context, id uuid.UUID) (*goal.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[id]
	if !ok {
		return nil, idb.ErrGoalNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGoalRepo) ResetCycle(_ context.Context, reset goal.Reset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failReset[reset.GoalID]; err != nil {
		return err
	}
	g, ok := r.goals[reset.GoalID]
	if !ok || !g.NextResetAt.Valid || g.NextResetAt.Time.After(reset.DueAt) {
		return idb.ErrGoalNotDue
	}
	g.CurrentValue = 0
	g.Status = goal.StatusInProgress
	g.CycleStartAt.Time, g.CycleStartAt.Valid = reset.CycleStartAt, true
	g.NextResetAt.Time = reset.NextResetAt
	g.TargetDate.Time, g.TargetDate.Valid = reset.NextResetAt, true
	return nil
}

func (r *memGoalRepo) ListCompletionMarks(_ context.Context, goalID uuid.UUID) ([]*goal.CompletionMark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failMarks[goalID]; err != nil {
		return nil, err
	}
	out := make([]*goal.CompletionMark, 0, len(r.marks[goalID]))
	for _, m := range r.marks[goalID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memGoalRepo) DeleteCompletionMarks(_ context.Context, goalID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failDelete[goalID]; err != nil {
		return 0, err
	}
	n := int64(len(r.marks[goalID]))
	delete(r.marks, goalID)
	return n, nil
}

func (r *memGoalRepo) LatestCycle(_ context.Context, goalID uuid.UUID) (*goal.CycleRecord, error) {
	r.mu.Lock()
	var latest *goal.CycleRecord
	for _, c := range r.cycles[goalID] {
		if latest == nil || c.CycleNumber > latest.CycleNumber {
			cp := *c
			latest = &cp
		}
	}
	hook := r.afterLatest
	r.mu.Unlock()

	if hook != nil {
		hook(goalID)
	}
	if latest == nil {
		return nil, idb.ErrCycleNotFound
	}
	return latest, nil
}

func (r *memGoalRepo) CreateCycle(_ context.Context, rec *goal.CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cycles[rec.GoalID] {
		if c.CycleNumber == rec.CycleNumber {
			return idb.ErrCycleNumberTaken
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	cp := *rec
	r.cycles[rec.GoalID] = append(r.cycles[rec.GoalID], &cp)
	return nil
}

func (r *memGoalRepo) ListCycles(_ context.Context, goalID uuid.UUID) ([]*goal.CycleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*goal.CycleRecord, 0, len(r.cycles[goalID]))
	for _, c := range r.cycles[goalID] {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

type memClientRepo struct {
	clients   []*client.Client
	history   map[uuid.UUID][]*client.StatusHistoryEntry
	listErr   error
	latestErr error
}

func (r *memClientRepo) ListByStatuses(_ context.Context, statuses []client.HealthStatus) ([]*client.Client, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*client.Client
	for _, c := range r.clients {
		for _, s := range statuses {
			if c.HealthStatus == s {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (r *memClientRepo) LatestStatusChanges(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*client.StatusHistoryEntry, error) {
	if r.latestErr != nil {
		return nil, r.latestErr
	}
	out := make(map[uuid.UUID]*client.StatusHistoryEntry)
	for _, id := range ids {
		for _, e := range r.history[id] {
			if cur, ok := out[id]; !ok || e.ChangedAt.After(cur.ChangedAt) {
				out[id] = e
			}
		}
	}
	return out, nil
}

type memDirectory struct {
	subs     []*subscriber.Subscriber
	prefs    map[uuid.UUID]bool
	prefErr  map[uuid.UUID]error
	listErr  error
	byTgID   map[int64]*subscriber.Subscriber
	setCalls int
}

func (d *memDirectory) ListAlertCandidates(_ context.Context) ([]*subscriber.Subscriber, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.subs, nil
}

func (d *memDirectory) NotificationsEnabled(_ context.Context, userID uuid.UUID, _ notification.Category) (bool, error) {
	if err := d.prefErr[userID]; err != nil {
		return false, err
	}
	if enabled, ok := d.prefs[userID]; ok {
		return enabled, nil
	}
	return true, nil
}

func (d *memDirectory) GetByTelegramID(_ context.Context, telegramID int64) (*subscriber.Subscriber, error) {
	s, ok := d.byTgID[telegramID]
	if !ok {
		return nil, idb.ErrSubscriberNotFound
	}
	return s, nil
}

func (d *memDirectory) SetPreference(_ context.Context, userID uuid.UUID, _ notification.Category, enabled bool) error {
	if d.prefs == nil {
		d.prefs = make(map[uuid.UUID]bool)
	}
	d.prefs[userID] = enabled
	d.setCalls++
	return nil
}

// memLedger mimics the atomic re-check of CreateIfAbsent.
type memLedger struct {
	mu            sync.Mutex
	notifications []*notification.Notification
	existsErr     error
	createErr     error
	// beforeCreate runs ahead of the re-check, outside the lock.
	beforeCreate func(n *notification.Notification)
}

func (l *memLedger) ExistsSince(_ context.Context, clientID, recipientID uuid.UUID, category notification.Category, since time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.existsErr != nil {
		return false, l.existsErr
	}
	return l.existsLocked(clientID, recipientID, category, since), nil
}

func (l *memLedger) existsLocked(clientID, recipientID uuid.UUID, category notification.Category, since time.Time) bool {
	for _, n := range l.notifications {
		if n.ClientID.UUID == clientID && n.RecipientID == recipientID && n.Category == category && !n.CreatedAt.Before(since) {
			return true
		}
	}
	return false
}

func (l *memLedger) CreateIfAbsent(_ context.Context, n *notification.Notification, since time.Time) (bool, error) {
	if l.beforeCreate != nil {
		l.beforeCreate(n)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.createErr != nil {
		return false, l.createErr
	}
	if l.existsLocked(n.ClientID.UUID, n.RecipientID, n.Category, since) {
		return false, nil
	}
	cp := *n
	l.notifications = append(l.notifications, &cp)
	return true, nil
}

func (l *memLedger) ListForRecipient(_ context.Context, recipientID uuid.UUID, _ int) ([]*notification.Notification, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*notification.Notification
	for _, n := range l.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (l *memLedger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.notifications)
}

func (l *memLedger) forRecipient(id uuid.UUID) []*notification.Notification {
	out, _ := l.ListForRecipient(context.Background(), id, 0)
	return out
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []*notification.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, _ *subscriber.Subscriber, n *notification.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
	return d.err
}
