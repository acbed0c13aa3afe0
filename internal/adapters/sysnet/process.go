package sysnet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/shirou/gopsutil/v3/process"
)

// ExeReader resolves the image path through the process executable link,
// which needs no more than query rights on the process.
type ExeReader struct{}

// ReadPath implements ports.PathReader.
func (ExeReader) ReadPath(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return p.ExeWithContext(ctx)
}

// CmdlineReader falls back to argv[0], then to the short process name.
type CmdlineReader struct{}

// ReadPath implements ports.PathReader.
func (CmdlineReader) ReadPath(ctx context.Context, pid int32) (string, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	if args, err := p.CmdlineSliceWithContext(ctx); err == nil && len(args) > 0 && looksLikePath(args[0]) {
		return args[0], nil
	}
	return p.NameWithContext(ctx)
}

// looksLikePath rejects argv[0] values a process rewrote into a status
// line, such as "sshd: root@pts/0".
func looksLikePath(arg string) bool {
	if arg == "" {
		return false
	}
	return strings.HasPrefix(arg, "/") || !strings.ContainsAny(arg, " \t:")
}

// Processes reads per-process counters and terminates processes.
type Processes struct{}

// IOCounters implements ports.ProcessInspector.
func (Processes) IOCounters(ctx context.Context, pid int32) (domain.IOCounters, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return domain.IOCounters{}, err
	}
	io, err := p.IOCountersWithContext(ctx)
	if err != nil {
		return domain.IOCounters{}, err
	}
	return domain.IOCounters{Received: io.ReadBytes, Sent: io.WriteBytes}, nil
}

// Kill implements ports.ProcessInspector.
func (Processes) Kill(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return fmt.Errorf("process %d: %w", pid, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if err := p.KillWithContext(ctx); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("kill process %d: permission denied: %w", pid, err)
		}
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}
