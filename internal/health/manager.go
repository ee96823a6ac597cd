package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// checkerState pairs a registered Checker with the critical/timeout
// settings captured at registration time.
type checkerState struct {
	checker  Checker
	critical bool
	timeout  time.Duration
}

// Manager is the HealthManager implementation: a registry of Checkers
// plus a background goroutine that refreshes their results on an
// interval so readiness probes never block on a slow dependency.
type Manager struct {
	checkers      map[string]*checkerState
	lastResults   map[string]CheckResult
	started       bool
	checkInterval time.Duration
	stopCh        chan struct{}
	logger        *zap.Logger
	mu            sync.RWMutex
}

// NewManager creates a Manager with a 30s background check interval.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers:      make(map[string]*checkerState),
		lastResults:   make(map[string]CheckResult),
		checkInterval: 30 * time.Second,
		stopCh:        make(chan struct{}),
		logger:        logger,
	}
}

// RegisterChecker registers a health check.
func (m *Manager) RegisterChecker(checker Checker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := checker.Name()
	if name == "" {
		return fmt.Errorf("checker name cannot be empty")
	}
	if _, exists := m.checkers[name]; exists {
		return fmt.Errorf("checker %s already registered", name)
	}

	m.checkers[name] = &checkerState{
		checker:  checker,
		critical: checker.IsCritical(),
		timeout:  checker.Timeout(),
	}
	m.logger.Info("health checker registered",
		zap.String("checker", name),
		zap.Bool("critical", checker.IsCritical()),
		zap.Duration("timeout", checker.Timeout()),
	)
	return nil
}

// UnregisterChecker removes a health check.
func (m *Manager) UnregisterChecker(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.checkers[name]; !exists {
		return fmt.Errorf("checker %s not found", name)
	}
	delete(m.checkers, name)
	delete(m.lastResults, name)
	m.logger.Info("health checker unregistered", zap.String("checker", name))
	return nil
}

// GetCheckers returns all registered checkers.
func (m *Manager) GetCheckers() map[string]Checker {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Checker, len(m.checkers))
	for name, state := range m.checkers {
		result[name] = state.checker
	}
	return result
}

// GetOverallHealth returns the overall health status.
func (m *Manager) GetOverallHealth(ctx context.Context) OverallHealth {
	startTime := time.Now()
	detailed := m.GetDetailedHealth(ctx)

	return OverallHealth{
		Status:    detailed.Overall.Status,
		Message:   detailed.Overall.Message,
		Timestamp: detailed.Timestamp,
		Duration:  time.Since(startTime),
		Degraded:  detailed.Overall.Degraded,
		Ready:     detailed.Overall.Ready,
		Live:      detailed.Overall.Live,
	}
}

// GetDetailedHealth runs every registered checker and returns the
// aggregated result. Checks always run live rather than from cache, so
// a readiness probe reflects the current state of the world.
func (m *Manager) GetDetailedHealth(ctx context.Context) DetailedHealth {
	m.mu.RLock()
	checkerStates := make(map[string]*checkerState, len(m.checkers))
	for name, state := range m.checkers {
		checkerStates[name] = state
	}
	m.mu.RUnlock()

	timestamp := time.Now()
	components := make(map[string]CheckResult, len(checkerStates))
	summary := HealthSummary{Total: len(checkerStates)}

	for name, state := range checkerStates {
		result := m.runCheck(ctx, state)
		components[name] = result

		switch result.Status {
		case StatusHealthy:
			summary.Healthy++
		case StatusDegraded:
			summary.Degraded++
		case StatusUnhealthy:
			summary.Unhealthy++
		}
		if result.Critical {
			summary.Critical++
		} else {
			summary.NonCritical++
		}
	}

	m.mu.Lock()
	for name, result := range components {
		m.lastResults[name] = result
	}
	m.mu.Unlock()

	return DetailedHealth{
		Overall:    m.calculateOverallStatus(components, summary),
		Components: components,
		Summary:    summary,
		Timestamp:  timestamp,
	}
}

// runCheck executes a single health check with its registered timeout.
func (m *Manager) runCheck(ctx context.Context, state *checkerState) CheckResult {
	checkCtx, cancel := context.WithTimeout(ctx, state.timeout)
	defer cancel()

	startTime := time.Now()
	result := state.checker.Check(checkCtx)
	result.Component = state.checker.Name()
	result.Critical = state.critical
	result.Duration = time.Since(startTime)
	result.Timestamp = startTime
	return result
}

// calculateOverallStatus determines overall health from component results.
func (m *Manager) calculateOverallStatus(components map[string]CheckResult, summary HealthSummary) OverallHealth {
	if summary.Total == 0 {
		return OverallHealth{Status: StatusUnknown, Message: "no health checks registered", Ready: false, Live: false}
	}

	criticalFailures, nonCriticalFailures, degradedComponents := 0, 0, 0
	for _, result := range components {
		if result.Status == StatusDegraded {
			degradedComponents++
		}
		if result.Status == StatusUnhealthy {
			if result.Critical {
				criticalFailures++
			} else {
				nonCriticalFailures++
			}
		}
	}

	var status CheckStatus
	var message string
	var ready, live bool

	switch {
	case criticalFailures > 0:
		status = StatusUnhealthy
		message = fmt.Sprintf("%d critical component(s) failing", criticalFailures)
		ready, live = false, true
	case degradedComponents > 0:
		status = StatusDegraded
		message = fmt.Sprintf("%d component(s) degraded", degradedComponents)
		ready, live = true, true
	case nonCriticalFailures > 0:
		status = StatusDegraded
		message = fmt.Sprintf("%d non-critical component(s) failing", nonCriticalFailures)
		ready, live = true, true
	default:
		status = StatusHealthy
		message = fmt.Sprintf("all %d components healthy", summary.Total)
		ready, live = true, true
	}

	return OverallHealth{
		Status:   status,
		Message:  message,
		Degraded: status == StatusDegraded,
		Ready:    ready,
		Live:     live,
	}
}

// IsReady returns true if the service is ready to serve requests.
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.GetOverallHealth(ctx).Ready
}

// IsLive returns true if the service is alive (for liveness probes).
func (m *Manager) IsLive(ctx context.Context) bool {
	return m.GetOverallHealth(ctx).Live
}

// Start begins the background refresh loop. It is non-blocking.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true
	go m.backgroundChecker()
	m.logger.Info("health manager started",
		zap.Duration("check_interval", m.checkInterval),
		zap.Int("registered_checkers", len(m.checkers)),
	)
	return nil
}

// Stop stops the background refresh loop.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return nil
	}
	close(m.stopCh)
	m.started = false
	m.logger.Info("health manager stopped")
	return nil
}

func (m *Manager) backgroundChecker() {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.GetDetailedHealth(context.Background())
		}
	}
}
