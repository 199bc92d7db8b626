//go:build linux

package lockdown

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"shunyata/pkg/utils/logger"

	"go.uber.org/zap"
)

// iptablesRules drives the host firewall through the iptables binary.
// Loopback stays open so local judging traffic keeps flowing; all other
// outbound traffic is dropped.
type iptablesRules struct {
	binary string

	mu      sync.Mutex
	applied [][]string
}

func newPlatformRules() ruleSet {
	return &iptablesRules{binary: "iptables"}
}

func (r *iptablesRules) Supported() bool {
	if os.Geteuid() != 0 {
		return false
	}
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// ruleArgs returns the rule bodies in application order. The loopback
// and allow-list accepts are inserted at the top; the drop is appended
// last so the accepts always match first.
func ruleArgs(allowAddr string) [][]string {
	rules := [][]string{
		{"OUTPUT", "-o", "lo", "-j", "ACCEPT"},
		{"OUTPUT", "-d", "127.0.0.1", "-j", "ACCEPT"},
	}
	if allowAddr != "" {
		rules = append(rules, []string{"OUTPUT", "-d", allowAddr, "-j", "ACCEPT"})
	}
	rules = append(rules, []string{"OUTPUT", "-j", "DROP"})
	return rules
}

func (r *iptablesRules) Apply(ctx context.Context, allowAddr string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rules := ruleArgs(allowAddr)
	for _, rule := range rules {
		flag := "-I"
		if rule[len(rule)-1] == "DROP" {
			flag = "-A"
		}
		args := append([]string{flag}, rule...)
		if out, err := exec.CommandContext(ctx, r.binary, args...).CombinedOutput(); err != nil {
			r.applied = rules
			return false, fmt.Errorf("iptables %s: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
	}
	r.applied = rules
	return r.verify(ctx, rules), nil
}

// verify checks each rule back with iptables -C. Verification failure
// is reported, not fatal; the caller decides what to do with an
// unenforced lockdown.
func (r *iptablesRules) verify(ctx context.Context, rules [][]string) bool {
	for _, rule := range rules {
		args := append([]string{"-C"}, rule...)
		if err := exec.CommandContext(ctx, r.binary, args...).Run(); err != nil {
			logger.Warn(ctx, "lockdown rule did not verify", zap.Strings("rule", rule), zap.Error(err))
			return false
		}
	}
	return true
}

// Remove deletes the rules in reverse order. A rule that is already
// gone is logged and skipped so removal always makes forward progress.
func (r *iptablesRules) Remove(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rules := r.applied
	if len(rules) == 0 {
		rules = ruleArgs("")
	}
	for i := len(rules) - 1; i >= 0; i-- {
		args := append([]string{"-D"}, rules[i]...)
		if out, err := exec.CommandContext(ctx, r.binary, args...).CombinedOutput(); err != nil {
			logger.Debug(ctx, "lockdown rule removal skipped",
				zap.Strings("rule", rules[i]),
				zap.String("output", strings.TrimSpace(string(out))))
		}
	}
	r.applied = nil
	return nil
}
