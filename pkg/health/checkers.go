package health

import (
	"context"
	"time"
)

// Checkable is implemented by dependencies that can report their health.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// AdapterChecker runs HealthCheck on a dependency under a timeout.
type AdapterChecker struct {
	name       string
	adapter    Checkable
	timeout    time.Duration
	failStatus Status
}

// NewAdapterChecker creates a checker whose failures report unhealthy.
func NewAdapterChecker(name string, adapter Checkable, timeout time.Duration) *AdapterChecker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &AdapterChecker{
		name:       name,
		adapter:    adapter,
		timeout:    timeout,
		failStatus: StatusUnhealthy,
	}
}

// NewDatabaseChecker creates a checker for the override store.
func NewDatabaseChecker(name string, db Checkable) *AdapterChecker {
	return NewAdapterChecker(name, db, 5*time.Second)
}

// NewUpstreamChecker creates a checker for a remote dependency. Failures
// report degraded because the service still answers schema requests.
func NewUpstreamChecker(name string, upstream Checkable) *AdapterChecker {
	c := NewAdapterChecker(name, upstream, 3*time.Second)
	c.failStatus = StatusDegraded
	return c
}

// Check performs the health check on the adapter
func (c *AdapterChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.adapter.HealthCheck(checkCtx)
	duration := time.Since(start)

	if err != nil {
		return CheckResult{
			Name:      c.name,
			Status:    c.failStatus,
			Error:     err.Error(),
			Timestamp: time.Now(),
			Duration:  duration,
		}
	}

	return CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "OK",
		Timestamp: time.Now(),
		Duration:  duration,
	}
}

// Name returns the name of the health check
func (c *AdapterChecker) Name() string {
	return c.name
}

// PingChecker always reports healthy. Used for liveness.
type PingChecker struct {
	name string
}

// NewPingChecker creates a new ping checker
func NewPingChecker(name string) *PingChecker {
	return &PingChecker{name: name}
}

// Check always returns healthy status
func (c *PingChecker) Check(ctx context.Context) CheckResult {
	return CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "Service is alive",
		Timestamp: time.Now(),
	}
}

// Name returns the name of the health check
func (c *PingChecker) Name() string {
	return c.name
}
