package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ahlec/Phil-sub000/internal/biz/domain"
	"github.com/ahlec/Phil-sub000/internal/biz/repo"
)

// DefaultChronoSchedule is how often the manager looks for due chronos
const DefaultChronoSchedule = "@every 15m"

// ErrUnknownChrono is returned for a due chrono with no registered task
var ErrUnknownChrono = errors.New("unknown chrono")

// ChronoContext is what a chrono task gets to work with
type ChronoContext struct {
	CommunityID string
	Now         time.Time
	Activity    *ActivityTracker
}

// ChronoFunc is a recurring per-community task
type ChronoFunc func(ctx context.Context, cc ChronoContext) error

// ChronoManager runs each registered chrono at most once per UTC day per
// community, at or after the chrono's hour
type ChronoManager struct {
	chronoRepo    repo.ChronoRepo
	communityRepo repo.CommunityRepo
	alertRepo     repo.AlertRepo
	definitions   []*domain.ChronoDefinition
	activity      *ActivityTracker

	tasks   map[string]ChronoFunc
	tasksMu sync.RWMutex

	schedule string
	cron     *cron.Cron
	tickMu   sync.Mutex
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewChronoManager creates a new chrono manager
func NewChronoManager(
	chronoRepo repo.ChronoRepo,
	communityRepo repo.CommunityRepo,
	alertRepo repo.AlertRepo,
	definitions []*domain.ChronoDefinition,
	activity *ActivityTracker,
) *ChronoManager {
	if activity == nil {
		activity = NewActivityTracker()
	}
	return &ChronoManager{
		chronoRepo:    chronoRepo,
		communityRepo: communityRepo,
		alertRepo:     alertRepo,
		definitions:   definitions,
		activity:      activity,
		tasks:         make(map[string]ChronoFunc),
		schedule:      DefaultChronoSchedule,
		now:           time.Now,
	}
}

// Activity returns the tracker shared with chrono tasks
func (m *ChronoManager) Activity() *ActivityTracker {
	return m.activity
}

// Register binds a task to a chrono handle
func (m *ChronoManager) Register(handle string, fn ChronoFunc) {
	m.tasksMu.Lock()
	defer m.tasksMu.Unlock()
	m.tasks[handle] = fn
}

func (m *ChronoManager) task(handle string) (ChronoFunc, bool) {
	m.tasksMu.RLock()
	defer m.tasksMu.RUnlock()
	fn, ok := m.tasks[handle]
	return fn, ok
}

// Start syncs chrono definitions, runs one tick and schedules the rest
func (m *ChronoManager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.chronoRepo.SyncDefinitions(m.ctx, m.definitions); err != nil {
		return fmt.Errorf("sync chrono definitions: %w", err)
	}
	for _, def := range m.definitions {
		if _, ok := m.task(def.Handle); !ok {
			fmt.Printf("[Chrono] Warning: no task registered for chrono %s\n", def.Handle)
		}
	}

	// Initial run
	if err := m.Tick(m.ctx); err != nil {
		fmt.Printf("[Chrono] Initial tick failed: %v\n", err)
	}

	m.cron = cron.New(cron.WithLocation(time.UTC))
	if _, err := m.cron.AddFunc(m.schedule, func() {
		if err := m.Tick(m.ctx); err != nil {
			fmt.Printf("[Chrono] Tick failed: %v\n", err)
		}
	}); err != nil {
		m.cancel()
		return fmt.Errorf("schedule chrono tick %q: %w", m.schedule, err)
	}
	m.cron.Start()

	fmt.Printf("[Chrono] Started with schedule %s\n", m.schedule)
	return nil
}

// Stop stops scheduling and waits for a running tick to finish
func (m *ChronoManager) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	if m.cancel != nil {
		m.cancel()
	}
	fmt.Println("[Chrono] Stopped")
}

// Tick runs every due (community, chrono) pair and waits for all of them.
// A tick that starts while another is running is skipped.
func (m *ChronoManager) Tick(ctx context.Context) error {
	if !m.tickMu.TryLock() {
		fmt.Println("[Chrono] Previous tick still running, skipping")
		return nil
	}
	defer m.tickMu.Unlock()

	now := m.now().UTC()
	due, err := m.chronoRepo.GetDue(ctx, now)
	if err != nil {
		return fmt.Errorf("get due chronos: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	fmt.Printf("[Chrono] %d chrono(s) due at %s\n", len(due), now.Format(time.RFC3339))

	var wg sync.WaitGroup
	for _, d := range due {
		wg.Add(1)
		go func(d domain.DueChrono) {
			defer wg.Done()
			m.runPair(ctx, d, now)
		}(d)
	}
	wg.Wait()
	return nil
}

func (m *ChronoManager) runPair(ctx context.Context, d domain.DueChrono, now time.Time) {
	fn, ok := m.task(d.Handle)
	if !ok {
		fmt.Printf("[Chrono] Skipping %s for %s: %v\n", d.Handle, d.CommunityID, ErrUnknownChrono)
		return
	}

	known, err := m.communityRepo.IsKnownCommunity(ctx, d.CommunityID)
	if err != nil {
		fmt.Printf("[Chrono] Could not check community %s for %s: %v\n", d.CommunityID, d.Handle, err)
		m.report(ctx, d, err, now)
		return
	}
	if !known {
		return
	}

	err = m.runTask(ctx, fn, ChronoContext{CommunityID: d.CommunityID, Now: now, Activity: m.activity})
	switch {
	case err == nil:
		if err := m.chronoRepo.MarkRan(ctx, d.CommunityID, d.ChronoID, domain.DateOf(now)); err != nil {
			fmt.Printf("[Chrono] Failed to mark %s ran for %s: %v\n", d.Handle, d.CommunityID, err)
			m.report(ctx, d, err, now)
			return
		}
		fmt.Printf("[Chrono] %s completed for %s\n", d.Handle, d.CommunityID)
	case errors.Is(err, domain.ErrNotReady):
		fmt.Printf("[Chrono] %s deferred for %s\n", d.Handle, d.CommunityID)
	default:
		fmt.Printf("[Chrono] %s failed for %s: %v\n", d.Handle, d.CommunityID, err)
		m.report(ctx, d, err, now)
	}
}

func (m *ChronoManager) runTask(ctx context.Context, fn ChronoFunc, cc ChronoContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, cc)
}

func (m *ChronoManager) report(ctx context.Context, d domain.DueChrono, err error, now time.Time) {
	if m.alertRepo == nil {
		return
	}
	m.alertRepo.Report(ctx, domain.OperatorAlert{
		Source:      d.Handle,
		CommunityID: d.CommunityID,
		Err:         err,
		At:          now,
	})
}
