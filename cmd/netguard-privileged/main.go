// Command netguard-privileged serves the firewall and interception gRPC
// contracts from memory. It lets the agent and its API be exercised end to
// end on hosts where the OS-backed collaborators are not installed.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/MrOplus/NetGuard/internal/adapters/privileged"
	"github.com/MrOplus/NetGuard/internal/core/domain"
	"github.com/MrOplus/NetGuard/internal/core/services/schedule"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9400", "gRPC listen address")
	ttl := flag.Duration("pending-ttl", privileged.DefaultPendingTTL, "Auto-deny held connections after this long")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	book := privileged.NewRuleBook()
	pending := privileged.NewPendingRegistry(*ttl)
	pending.OnVerdict(func(p domain.PendingConnection, v domain.Verdict) {
		slog.Info("Verdict", "id", v.ID, "process", p.ProcessPath, "allow", v.Allow, "remember", v.Remember)
	})

	s := grpc.NewServer()
	privileged.RegisterFirewall(s, book)
	privileged.RegisterInterception(s, pending)

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen %s: %v", *addr, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var g schedule.Group
	g.Go(ctx, "pending-expire", time.Second, false, func(context.Context) {
		if n := pending.Expire(); n > 0 {
			slog.Info("Expired pending connections", "count", n)
		}
	})
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	log.Printf("Privileged collaborator listening on %s", *addr)
	if err := s.Serve(lis); err != nil {
		log.Printf("gRPC server error: %v", err)
	}
	cancel()
	g.Wait()
}
