// Package lockdown manages the agent's network restriction window
// around contest code execution.
package lockdown

import (
	"context"
	"sync"

	appErr "shunyata/pkg/errors"
	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// State is the externally visible lockdown status.
type State struct {
	Active       bool   `json:"active"`
	RulesApplied bool   `json:"rules_applied"`
	Mode         string `json:"mode"`
	AllowAddr    string `json:"allow_addr,omitempty"`
}

// ruleSet applies and removes the host firewall rules. Split out so
// tests can run without privileges or iptables.
type ruleSet interface {
	// Apply installs the rules and reports whether they verifiably took
	// effect.
	Apply(ctx context.Context, allowAddr string) (applied bool, err error)
	// Remove tears the rules down. Tolerant of partially applied or
	// already removed rules.
	Remove(ctx context.Context) error
	// Supported reports whether this host can enforce rules at all.
	Supported() bool
}

// Config controls lockdown behaviour.
type Config struct {
	// Demo makes enable/release succeed without touching the firewall,
	// for contests run without root.
	Demo bool `yaml:"demo" json:"demo"`
	// AllowAddr is an address (typically the judge server) exempted
	// from the outbound drop.
	AllowAddr string `yaml:"allow_addr" json:"allow_addr"`
}

// Controller owns the lockdown state machine. Enable and Release are
// idempotent; the zero state is released.
type Controller struct {
	mu    sync.Mutex
	cfg   Config
	rules ruleSet

	active       bool
	rulesApplied bool
	degraded     bool
}

// NewController creates a controller using the platform rule set.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, rules: newPlatformRules()}
}

// newTestController injects a fake rule set.
func newTestController(cfg Config, rules ruleSet) *Controller {
	return &Controller{cfg: cfg, rules: rules}
}

// Enable activates lockdown. In demo mode the state flips without
// firewall changes; a host that cannot enforce rules at all degrades
// into the same state, distinguishable by rules_applied=false. A rule
// apply or verification failure rolls back and leaves the lockdown
// inactive.
func (c *Controller) Enable(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active {
		return c.stateLocked(), nil
	}
	if c.cfg.Demo {
		c.active = true
		logger.Info(ctx, "lockdown enabled (demo mode, no rules applied)")
		return c.stateLocked(), nil
	}
	if !c.rules.Supported() {
		c.active = true
		c.degraded = true
		logger.Warn(ctx, "lockdown not enforceable on this host, degrading to demo mode")
		return c.stateLocked(), nil
	}

	applied, err := c.rules.Apply(ctx, c.cfg.AllowAddr)
	if err != nil {
		// Roll back whatever half-applied before reporting failure.
		if rmErr := c.rules.Remove(ctx); rmErr != nil {
			logger.Warn(ctx, "lockdown rollback incomplete", zap.Error(rmErr))
		}
		return c.stateLocked(), appErr.Wrap(err, appErr.LockdownEnableFailed)
	}
	if !applied {
		// Rules went in but did not verify: remove them and fail the
		// transition rather than report an unenforced lockdown as on.
		if rmErr := c.rules.Remove(ctx); rmErr != nil {
			logger.Warn(ctx, "lockdown rollback incomplete", zap.Error(rmErr))
		}
		return c.stateLocked(), appErr.New(appErr.LockdownEnableFailed).WithMessage("lockdown rules did not verify")
	}
	c.active = true
	c.rulesApplied = true
	logger.Info(ctx, "lockdown enabled", zap.Bool("rules_applied", true))
	return c.stateLocked(), nil
}

// Release deactivates lockdown and removes any applied rules. Removal
// is tolerant: a rule already gone is not an error.
func (c *Controller) Release(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rulesApplied {
		if err := c.rules.Remove(ctx); err != nil {
			logger.Error(ctx, "lockdown rule removal failed", zap.Error(err))
			return c.stateLocked(), appErr.Wrap(err, appErr.LockdownReleaseFailed)
		}
	}
	c.active = false
	c.rulesApplied = false
	c.degraded = false
	logger.Info(ctx, "lockdown released")
	return c.stateLocked(), nil
}

// EmergencyCleanup force-removes rules regardless of tracked state, for
// recovery after a crashed or confused agent.
func (c *Controller) EmergencyCleanup(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rules.Supported() && !c.cfg.Demo {
		if err := c.rules.Remove(ctx); err != nil {
			logger.Warn(ctx, "emergency cleanup: some rules may remain", zap.Error(err))
		}
	}
	c.active = false
	c.rulesApplied = false
	c.degraded = false
	logger.Info(ctx, "lockdown emergency cleanup done")
	return c.stateLocked()
}

// Status returns the current state.
func (c *Controller) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	mode := "enforced"
	if c.cfg.Demo || c.degraded {
		mode = "demo"
	}
	return State{
		Active:       c.active,
		RulesApplied: c.rulesApplied,
		Mode:         mode,
		AllowAddr:    c.cfg.AllowAddr,
	}
}

// Acquire satisfies the pipeline guard: lockdown wraps each program
// execution and always releases, even when the run panics.
func (c *Controller) Acquire(ctx context.Context) func() {
	if _, err := c.Enable(ctx); err != nil {
		logger.Warn(ctx, "lockdown unavailable, running without network restriction", zap.Error(err))
		return func() {}
	}
	return func() {
		if _, err := c.Release(ctx); err != nil {
			logger.Warn(ctx, "lockdown release after run failed", zap.Error(err))
		}
	}
}
