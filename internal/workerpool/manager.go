package workerpool

import (
	"sync"
	"time"
)

// PoolStatus reports a named pool's lifecycle state for diagnostics.
type PoolStatus struct {
	Name         string
	Running      bool
	ActiveTasks  int
	TotalSubmits int64
}

// ThreadManager registers named pools and forwards shutdown across all of
// them, so the session engine can tear down every worker pool with a
// single call regardless of which subsystem created it.
type ThreadManager struct {
	mu    sync.Mutex
	pools map[string]*Pool
}

// NewThreadManager creates an empty registry of pools.
func NewThreadManager() *ThreadManager {
	return &ThreadManager{pools: make(map[string]*Pool)}
}

// Register adds a pool under its name, replacing any pool already
// registered under that name.
func (m *ThreadManager) Register(p *Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[p.name] = p
}

// Pool returns the pool registered under name, if any.
func (m *ThreadManager) Pool(name string) (*Pool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pools[name]
	return p, ok
}

// Status reports the current state of every registered pool.
func (m *ThreadManager) Status() []PoolStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]PoolStatus, 0, len(m.pools))
	for name, p := range m.pools {
		p.mu.Lock()
		statuses = append(statuses, PoolStatus{
			Name:         name,
			Running:      p.running,
			ActiveTasks:  len(p.handles),
			TotalSubmits: p.totalSubmits.Load(),
		})
		p.mu.Unlock()
	}
	return statuses
}

// ShutdownAll shuts down every registered pool, waiting up to timeout per
// pool for a graceful drain.
func (m *ThreadManager) ShutdownAll(wait bool, timeout time.Duration) {
	m.mu.Lock()
	pools := make([]*Pool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range pools {
		wg.Add(1)
		go func(p *Pool) {
			defer wg.Done()
			p.Shutdown(wait, timeout)
		}(p)
	}
	wg.Wait()
}
