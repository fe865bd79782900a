package status

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"telematic/internal/cache"
	"telematic/internal/database"
	"telematic/internal/manager"
)

const overviewCacheKey = "bots_overview"

// Aggregator serves the dashboard overview from a short-lived cache and
// refreshes it on a fixed schedule plus immediately after every lifecycle
// action. All mutations funnel through Invalidate; the next read is
// authoritative.
type Aggregator struct {
	list  func() ([]database.Bot, error)
	mgr   *manager.Manager
	cache *cache.Cache[Overview]
	cron  *cron.Cron

	// onUpdate fans a refreshed overview out to live listeners.
	onUpdate func(Overview)
}

// NewAggregator creates an aggregator over the given listing source and
// runtime manager.
func NewAggregator(list func() ([]database.Bot, error), mgr *manager.Manager, ttl time.Duration) *Aggregator {
	return &Aggregator{
		list:  list,
		mgr:   mgr,
		cache: cache.New[Overview](ttl),
	}
}

// OnUpdate registers the listener hook fired after every refresh.
func (a *Aggregator) OnUpdate(fn func(Overview)) {
	a.onUpdate = fn
}

// Overview returns the dashboard payload, cached between refreshes.
func (a *Aggregator) Overview() (Overview, error) {
	if ov, ok := a.cache.Get(overviewCacheKey); ok {
		return ov, nil
	}
	return a.rebuild()
}

func (a *Aggregator) rebuild() (Overview, error) {
	bots, err := a.list()
	if err != nil {
		return Overview{}, fmt.Errorf("failed to list bots: %w", err)
	}

	ov := BuildOverview(bots, a.mgr.Snapshot())
	a.cache.Set(overviewCacheKey, ov)
	return ov, nil
}

// Invalidate drops the cached overview so the next read refetches.
func (a *Aggregator) Invalidate() {
	a.cache.Delete(overviewCacheKey)
}

// Refresh rebuilds the overview immediately and notifies listeners. Called
// by the poll schedule and right after lifecycle actions complete.
func (a *Aggregator) Refresh() {
	a.Invalidate()
	ov, err := a.rebuild()
	if err != nil {
		log.Printf("Failed to refresh bot overview: %v", err)
		return
	}
	if a.onUpdate != nil {
		a.onUpdate(ov)
	}
}

// StartPolling refreshes the overview on a fixed interval until
// StopPolling.
func (a *Aggregator) StartPolling(interval time.Duration) error {
	a.cron = cron.New()
	if _, err := a.cron.AddFunc(fmt.Sprintf("@every %s", interval), a.Refresh); err != nil {
		return fmt.Errorf("failed to schedule status polling: %w", err)
	}
	a.cron.Start()
	log.Printf("Status polling every %s", interval)
	return nil
}

// StopPolling halts the schedule and waits for a running refresh to end.
func (a *Aggregator) StopPolling() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	a.cache.Close()
}
