package privileged

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/ports"
)

type handlerFunc func(srv any, ctx context.Context, in *structpb.Struct) (any, error)

func unary(service, name string, h handlerFunc) grpc.MethodDesc {
	full := method(service, name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			run := func(ctx context.Context, req any) (any, error) {
				out, err := h(srv, ctx, req.(*structpb.Struct))
				if err != nil {
					return nil, toStatus(err)
				}
				return toStruct(out)
			}
			if interceptor == nil {
				return run(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: full}, run)
		},
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidAddress), errors.Is(err, errInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

var errInvalidRequest = errors.New("invalid request")

func badRequest(err error) error {
	return errors.Join(errInvalidRequest, err)
}

var firewallDesc = grpc.ServiceDesc{
	ServiceName: firewallService,
	HandlerType: (*ports.FirewallController)(nil),
	Methods: []grpc.MethodDesc{
		unary(firewallService, "ListRules", func(srv any, ctx context.Context, _ *structpb.Struct) (any, error) {
			rules, err := srv.(ports.FirewallController).ListRules(ctx)
			if err != nil {
				return nil, err
			}
			if rules == nil {
				rules = []domain.FirewallRule{}
			}
			return map[string]any{"rules": rules}, nil
		}),
		unary(firewallService, "AddRule", func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
			var rule domain.FirewallRule
			if err := field(in, "rule", &rule); err != nil {
				return nil, badRequest(err)
			}
			if err := rule.Validate(); err != nil {
				return nil, badRequest(err)
			}
			return struct{}{}, srv.(ports.FirewallController).AddRule(ctx, rule)
		}),
		unary(firewallService, "RemoveRule", func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
			var name string
			if err := field(in, "name", &name); err != nil {
				return nil, badRequest(err)
			}
			return struct{}{}, srv.(ports.FirewallController).RemoveRule(ctx, name)
		}),
	},
	Metadata: "netguard/privileged/v1/privileged.proto",
}

var interceptionDesc = grpc.ServiceDesc{
	ServiceName: interceptionService,
	HandlerType: (*ports.InterceptionController)(nil),
	Methods: []grpc.MethodDesc{
		unary(interceptionService, "ListPending", func(srv any, ctx context.Context, _ *structpb.Struct) (any, error) {
			pending, err := srv.(ports.InterceptionController).ListPending(ctx)
			if err != nil {
				return nil, err
			}
			if pending == nil {
				pending = []domain.PendingConnection{}
			}
			return map[string]any{"pending": pending}, nil
		}),
		unary(interceptionService, "Respond", func(srv any, ctx context.Context, in *structpb.Struct) (any, error) {
			var v domain.Verdict
			if err := field(in, "verdict", &v); err != nil {
				return nil, badRequest(err)
			}
			return struct{}{}, srv.(ports.InterceptionController).Respond(ctx, v)
		}),
	},
	Metadata: "netguard/privileged/v1/privileged.proto",
}

// RegisterFirewall serves impl as the firewall collaborator.
func RegisterFirewall(s *grpc.Server, impl ports.FirewallController) {
	s.RegisterService(&firewallDesc, impl)
}

// RegisterInterception serves impl as the interception collaborator.
func RegisterInterception(s *grpc.Server, impl ports.InterceptionController) {
	s.RegisterService(&interceptionDesc, impl)
}
