package privileged

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

// Client talks to a collaborator serving either or both services.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for target. The connection is established lazily.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial privileged service %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, op, fullMethod string, req any) (*structpb.Struct, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", op, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, fullMethod, in, out); err != nil {
		return nil, convertError(op, err)
	}
	return out, nil
}

// convertError keeps the collaborator's reason in the returned error.
func convertError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return &domain.PrivilegedError{Op: op, Message: err.Error()}
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s: %s", domain.ErrPrivilegedUnavailable, op, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, op, st.Message())
	default:
		return &domain.PrivilegedError{Op: op, Message: st.Message()}
	}
}

func (c *Client) ListRules(ctx context.Context) ([]domain.FirewallRule, error) {
	out, err := c.call(ctx, "list-rules", method(firewallService, "ListRules"), struct{}{})
	if err != nil {
		return nil, err
	}
	var rules []domain.FirewallRule
	if err := field(out, "rules", &rules); err != nil {
		return nil, &domain.PrivilegedError{Op: "list-rules", Message: err.Error()}
	}
	return rules, nil
}

func (c *Client) AddRule(ctx context.Context, rule domain.FirewallRule) error {
	_, err := c.call(ctx, "add-rule", method(firewallService, "AddRule"), map[string]any{"rule": rule})
	return err
}

func (c *Client) RemoveRule(ctx context.Context, name string) error {
	_, err := c.call(ctx, "remove-rule", method(firewallService, "RemoveRule"), map[string]any{"name": name})
	return err
}

func (c *Client) ListPending(ctx context.Context) ([]domain.PendingConnection, error) {
	out, err := c.call(ctx, "list-pending", method(interceptionService, "ListPending"), struct{}{})
	if err != nil {
		return nil, err
	}
	var pending []domain.PendingConnection
	if err := field(out, "pending", &pending); err != nil {
		return nil, &domain.PrivilegedError{Op: "list-pending", Message: err.Error()}
	}
	return pending, nil
}

func (c *Client) Respond(ctx context.Context, verdict domain.Verdict) error {
	_, err := c.call(ctx, "respond", method(interceptionService, "Respond"), map[string]any{"verdict": verdict})
	return err
}

// IsUnavailable reports a collaborator that could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrPrivilegedUnavailable)
}

var (
	_ ports.FirewallController     = (*Client)(nil)
	_ ports.InterceptionController = (*Client)(nil)
)
