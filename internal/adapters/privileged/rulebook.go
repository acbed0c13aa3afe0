package privileged

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// RuleBook is an in-memory firewall collaborator keyed by rule name.
type RuleBook struct {
	mu    sync.RWMutex
	rules map[string]domain.FirewallRule
}

func NewRuleBook() *RuleBook {
	return &RuleBook{rules: make(map[string]domain.FirewallRule)}
}

// ListRules returns every rule sorted by name.
func (b *RuleBook) ListRules(ctx context.Context) ([]domain.FirewallRule, error) {
	b.mu.RLock()
	out := make([]domain.FirewallRule, 0, len(b.rules))
	for _, r := range b.rules {
		out = append(out, r)
	}
	b.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// AddRule stores rule, replacing any rule with the same name.
func (b *RuleBook) AddRule(ctx context.Context, rule domain.FirewallRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	b.rules[rule.Name] = rule
	b.mu.Unlock()
	return nil
}

func (b *RuleBook) RemoveRule(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rules[name]; !ok {
		return fmt.Errorf("%w: rule %q", domain.ErrNotFound, name)
	}
	delete(b.rules, name)
	return nil
}

var _ ports.FirewallController = (*RuleBook)(nil)
