package lockdown

import (
	"context"
	"errors"
	"testing"

	appErr "shunyata/pkg/errors"
)

type fakeRules struct {
	supported bool
	applyOK   bool
	applyErr  error
	removeErr error
	applies   int
	removes   int
}

func (f *fakeRules) Supported() bool { return f.supported }

func (f *fakeRules) Apply(ctx context.Context, allowAddr string) (bool, error) {
	f.applies++
	return f.applyOK, f.applyErr
}

func (f *fakeRules) Remove(ctx context.Context) error {
	f.removes++
	return f.removeErr
}

func TestDemoModeNeverTouchesRules(t *testing.T) {
	rules := &fakeRules{supported: true, applyOK: true}
	c := newTestController(Config{Demo: true}, rules)
	ctx := context.Background()

	state, err := c.Enable(ctx)
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !state.Active {
		t.Errorf("demo enable should activate")
	}
	if state.RulesApplied {
		t.Errorf("demo mode must not report applied rules")
	}
	if state.Mode != "demo" {
		t.Errorf("mode = %q, want demo", state.Mode)
	}
	if rules.applies != 0 {
		t.Errorf("demo mode applied firewall rules")
	}

	state, err = c.Release(ctx)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if state.Active {
		t.Errorf("release should deactivate")
	}
}

func TestEnableAppliesAndVerifies(t *testing.T) {
	rules := &fakeRules{supported: true, applyOK: true}
	c := newTestController(Config{AllowAddr: "10.0.0.1"}, rules)
	ctx := context.Background()

	state, err := c.Enable(ctx)
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !state.Active || !state.RulesApplied {
		t.Errorf("state = %+v, want active with rules applied", state)
	}
	if rules.applies != 1 {
		t.Errorf("applies = %d, want 1", rules.applies)
	}

	// Enable is idempotent.
	if _, err := c.Enable(ctx); err != nil {
		t.Fatalf("second enable: %v", err)
	}
	if rules.applies != 1 {
		t.Errorf("second enable reapplied rules")
	}

	state, err = c.Release(ctx)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if state.Active || state.RulesApplied {
		t.Errorf("state after release = %+v, want inactive", state)
	}
	if rules.removes != 1 {
		t.Errorf("removes = %d, want 1", rules.removes)
	}
}

func TestEnableDegradesWithoutPrivilege(t *testing.T) {
	rules := &fakeRules{supported: false}
	c := newTestController(Config{}, rules)

	state, err := c.Enable(context.Background())
	if err != nil {
		t.Fatalf("enable on unprivileged host: %v", err)
	}
	if !state.Active {
		t.Errorf("unprivileged enable should degrade to an active demo state")
	}
	if state.RulesApplied {
		t.Errorf("degraded lockdown must not claim applied rules")
	}
	if state.Mode != "demo" {
		t.Errorf("mode = %q, want demo", state.Mode)
	}
	if rules.applies != 0 {
		t.Errorf("degraded enable must not touch the firewall")
	}

	state, err = c.Release(context.Background())
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if state.Active || state.Mode != "enforced" {
		t.Errorf("release should clear the degraded state, got %+v", state)
	}
}

func TestEnableVerificationFailureRollsBack(t *testing.T) {
	rules := &fakeRules{supported: true, applyOK: false}
	c := newTestController(Config{}, rules)

	_, err := c.Enable(context.Background())
	if !appErr.Is(err, appErr.LockdownEnableFailed) {
		t.Fatalf("enable with unverified rules = %v, want LockdownEnableFailed", err)
	}
	if rules.removes != 1 {
		t.Errorf("unverified rules should be removed, removes = %d", rules.removes)
	}
	if c.Status().Active {
		t.Errorf("failed enable must not activate")
	}
}

func TestEnableApplyErrorRollsBack(t *testing.T) {
	rules := &fakeRules{supported: true, applyErr: errors.New("iptables: permission denied")}
	c := newTestController(Config{}, rules)

	_, err := c.Enable(context.Background())
	if !appErr.Is(err, appErr.LockdownEnableFailed) {
		t.Fatalf("enable = %v, want LockdownEnableFailed", err)
	}
	if rules.removes != 1 {
		t.Errorf("failed apply should trigger rollback removal")
	}
	if c.Status().Active {
		t.Errorf("failed enable must not activate")
	}
}

func TestReleaseWithoutEnable(t *testing.T) {
	rules := &fakeRules{supported: true}
	c := newTestController(Config{}, rules)

	state, err := c.Release(context.Background())
	if err != nil {
		t.Fatalf("release without enable: %v", err)
	}
	if state.Active {
		t.Errorf("release must leave inactive state")
	}
	if rules.removes != 0 {
		t.Errorf("nothing was applied, nothing should be removed")
	}
}

func TestEmergencyCleanupResetsState(t *testing.T) {
	rules := &fakeRules{supported: true, applyOK: true}
	c := newTestController(Config{}, rules)
	ctx := context.Background()

	if _, err := c.Enable(ctx); err != nil {
		t.Fatalf("enable: %v", err)
	}
	state := c.EmergencyCleanup(ctx)
	if state.Active || state.RulesApplied {
		t.Errorf("state after emergency cleanup = %+v, want reset", state)
	}
	if rules.removes != 1 {
		t.Errorf("emergency cleanup should force removal")
	}
}

func TestGuardReleasesAfterRun(t *testing.T) {
	rules := &fakeRules{supported: true, applyOK: true}
	c := newTestController(Config{}, rules)

	release := c.Acquire(context.Background())
	if !c.Status().Active {
		t.Fatalf("guard acquire should enable lockdown")
	}
	release()
	if c.Status().Active {
		t.Errorf("guard release should disable lockdown")
	}
}

func TestGuardDegradesOnUnsupportedHost(t *testing.T) {
	rules := &fakeRules{supported: false}
	c := newTestController(Config{}, rules)

	release := c.Acquire(context.Background())
	if !c.Status().Active {
		t.Errorf("guard should hold the degraded demo lockdown during the run")
	}
	release()
	if c.Status().Active {
		t.Errorf("guard release must leave lockdown off")
	}
	if rules.applies != 0 || rules.removes != 0 {
		t.Errorf("degraded guard must not touch the firewall")
	}
}
