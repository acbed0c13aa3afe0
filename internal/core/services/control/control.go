// Package control forwards user actions to the privileged collaborators.
// Failures are returned to the caller with their reason and never retried.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// OperationError names the control operation that failed.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ConnectionFinder looks a connection up in the live snapshot.
type ConnectionFinder interface {
	Find(id string) (domain.Connection, bool)
}

// Service implements firewall, kill and pending-connection actions.
type Service struct {
	firewall     ports.FirewallController
	interception ports.InterceptionController
	procs        ports.ProcessInspector
	conns        ConnectionFinder
	apps         ports.KnownAppStore
	now          func() time.Time
}

// NewService wires the control service. firewall and interception may be
// nil when the collaborators are not configured.
func NewService(firewall ports.FirewallController, interception ports.InterceptionController,
	procs ports.ProcessInspector, conns ConnectionFinder, apps ports.KnownAppStore) *Service {
	return &Service{
		firewall:     firewall,
		interception: interception,
		procs:        procs,
		conns:        conns,
		apps:         apps,
		now:          time.Now,
	}
}

func fail(op string, err error) error {
	return &OperationError{Op: op, Err: err}
}

// Rules lists firewall rules.
func (s *Service) Rules(ctx context.Context) ([]domain.FirewallRule, error) {
	if s.firewall == nil {
		return nil, fail("list rules", domain.ErrPrivilegedUnavailable)
	}
	rules, err := s.firewall.ListRules(ctx)
	if err != nil {
		return nil, fail("list rules", err)
	}
	return rules, nil
}

// BlockApp adds outbound and inbound block rules for an application.
func (s *Service) BlockApp(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fail("block application", domain.ErrInvalidPath)
	}
	return s.addRules(ctx, "block application", domain.BlockRules(path, "", 0))
}

// AllowApp drops any block rules for the application and adds an allow rule.
func (s *Service) AllowApp(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fail("allow application", domain.ErrInvalidPath)
	}
	if err := s.UnblockApp(ctx, path); err != nil {
		return err
	}
	return s.addRules(ctx, "allow application", []domain.FirewallRule{domain.AllowRule(path)})
}

// UnblockApp removes both block rules of an application. Missing rules are ignored.
func (s *Service) UnblockApp(ctx context.Context, path string) error {
	if s.firewall == nil {
		return fail("unblock application", domain.ErrPrivilegedUnavailable)
	}
	for _, r := range domain.BlockRules(path, "", 0) {
		if err := s.firewall.RemoveRule(ctx, r.Name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fail("unblock application", err)
		}
	}
	return nil
}

// BlockRemote blocks a remote address, optionally limited to one port.
func (s *Service) BlockRemote(ctx context.Context, addr string, port uint32) error {
	if net.ParseIP(addr) == nil {
		return fail("block remote", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, addr))
	}
	return s.addRules(ctx, "block remote", domain.BlockRules("", addr, port))
}

// RemoveRule deletes a rule by name.
func (s *Service) RemoveRule(ctx context.Context, name string) error {
	if s.firewall == nil {
		return fail("remove rule", domain.ErrPrivilegedUnavailable)
	}
	if err := s.firewall.RemoveRule(ctx, name); err != nil {
		return fail("remove rule", err)
	}
	return nil
}

func (s *Service) addRules(ctx context.Context, op string, rules []domain.FirewallRule) error {
	if s.firewall == nil {
		return fail(op, domain.ErrPrivilegedUnavailable)
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return fail(op, err)
		}
		if err := s.firewall.AddRule(ctx, r); err != nil {
			return fail(op, err)
		}
		slog.Info("Firewall rule added", "name", r.Name)
	}
	return nil
}

// KillConnection terminates the process owning a live connection.
func (s *Service) KillConnection(ctx context.Context, id string) error {
	if _, _, err := domain.ParseConnectionID(id); err != nil {
		return fail("kill connection", err)
	}
	conn, ok := s.conns.Find(id)
	if !ok {
		return fail("kill connection", fmt.Errorf("connection %s: %w", id, domain.ErrNotFound))
	}
	if conn.ProcessID == 0 {
		return fail("kill connection", errors.New("connection is owned by the system"))
	}
	if err := s.procs.Kill(ctx, conn.ProcessID); err != nil {
		return fail("kill connection", err)
	}
	slog.Info("Terminated process for connection", "id", id, "pid", conn.ProcessID, "process", conn.ProcessName)
	return nil
}

// Pending lists connections awaiting a verdict.
func (s *Service) Pending(ctx context.Context) ([]domain.PendingConnection, error) {
	if s.interception == nil {
		return nil, fail("list pending", domain.ErrPrivilegedUnavailable)
	}
	pending, err := s.interception.ListPending(ctx)
	if err != nil {
		return nil, fail("list pending", err)
	}
	return pending, nil
}

// Respond delivers a verdict. With Remember set, the decision is recorded
// in the known-apps store and a denied application is blocked.
func (s *Service) Respond(ctx context.Context, v domain.Verdict) error {
	if s.interception == nil {
		return fail("respond", domain.ErrPrivilegedUnavailable)
	}

	var target *domain.PendingConnection
	if v.Remember {
		pending, err := s.interception.ListPending(ctx)
		if err != nil {
			return fail("respond", err)
		}
		for i := range pending {
			if pending[i].ID == v.ID {
				target = &pending[i]
				break
			}
		}
		if target == nil {
			return fail("respond", fmt.Errorf("pending connection %s: %w", v.ID, domain.ErrNotFound))
		}
	}

	if err := s.interception.Respond(ctx, v); err != nil {
		return fail("respond", err)
	}
	if target == nil || target.ProcessPath == "" {
		return nil
	}

	if !v.Allow {
		if err := s.BlockApp(ctx, target.ProcessPath); err != nil {
			slog.Warn("Failed to block application", "path", target.ProcessPath, "error", err)
		}
	}
	app := domain.KnownApp{Path: target.ProcessPath, Name: target.ProcessName, Allowed: v.Allow, FirstSeen: s.now()}
	if err := s.apps.SaveKnownApp(ctx, app); err != nil {
		return fail("remember verdict", err)
	}
	return nil
}
