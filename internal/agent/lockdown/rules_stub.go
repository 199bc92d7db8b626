//go:build !linux

package lockdown

import "context"

// stubRules is the non-Linux placeholder; only demo mode works here.
type stubRules struct{}

func newPlatformRules() ruleSet {
	return stubRules{}
}

func (stubRules) Supported() bool { return false }

func (stubRules) Apply(ctx context.Context, allowAddr string) (bool, error) {
	return false, nil
}

func (stubRules) Remove(ctx context.Context) error { return nil }
