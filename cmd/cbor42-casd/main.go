package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"xdao.co/cbor42/storage"
	"xdao.co/cbor42/storage/casconfig"
	"xdao.co/cbor42/storage/casregistry"
	"xdao.co/cbor42/storage/grpccas"

	_ "xdao.co/cbor42/storage/ipfs"
	_ "xdao.co/cbor42/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := pflag.NewFlagSet("cbor42-casd", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "CAS backend name")
	configPath := fs.String("config", "", "Multi-backend config file (YAML or JSONC)")
	logLevel := fs.String("log-level", "info", "Log level: debug|info|warn|error")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Time allowed for in-flight RPCs on shutdown")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	casregistry.RegisterFlags(fs, casregistry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	level, err := parseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	cas, closeFn, err := openCAS(*backend, *configPath, fs.Changed("backend"))
	if err != nil {
		logger.Error("open CAS", "error", err)
		return 2
	}
	if closeFn != nil {
		defer func() {
			if err := closeFn(); err != nil {
				logger.Warn("close CAS", "error", err)
			}
		}()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logger.Error("listen", "address", *listen, "error", err)
		return 1
	}

	logger.Info("listening", "address", lis.Addr().String(), "backend", *backend, "config", *configPath)
	if err := serve(ctx, lis, cas, logger, *shutdownTimeout); err != nil {
		logger.Error("serve", "error", err)
		return 1
	}
	logger.Info("stopped")
	return 0
}

func openCAS(backend, configPath string, backendChanged bool) (storage.CAS, func() error, error) {
	if configPath == "" {
		return casregistry.Open(backend, casregistry.UsageDaemon)
	}
	cfg, err := casconfig.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	preferred := ""
	if backendChanged {
		preferred = backend
	}
	return cfg.Open(casregistry.UsageDaemon, preferred)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid --log-level %q", s)
	}
	return level, nil
}

// serve runs the CAS service on lis until ctx is done, then stops
// gracefully, forcing the stop after timeout.
func serve(ctx context.Context, lis net.Listener, cas storage.CAS, logger *slog.Logger, timeout time.Duration) error {
	s := grpc.NewServer(grpc.UnaryInterceptor(logRPC(logger)))
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("graceful stop timed out")
		s.Stop()
	}
	if err := <-errCh; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func logRPC(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Debug("rpc", "method", info.FullMethod, "duration", time.Since(start), "error", err)
		} else {
			logger.Debug("rpc", "method", info.FullMethod, "duration", time.Since(start))
		}
		return resp, err
	}
}
