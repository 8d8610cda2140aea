package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lemonberrylabs/loxide/pkg/api"
	grpcapi "github.com/lemonberrylabs/loxide/pkg/api/grpc"
	"github.com/lemonberrylabs/loxide/pkg/config"
	"github.com/lemonberrylabs/loxide/pkg/runtime"
	"github.com/lemonberrylabs/loxide/pkg/service"
	"github.com/lemonberrylabs/loxide/pkg/store"
	"github.com/lemonberrylabs/loxide/web"
)

func newServeCmd(stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP and gRPC evaluation APIs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, stderr)
			if err != nil {
				return err
			}
			defer log.Sync()
			applyServeFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return serve(cmd.Context(), cfg, log, scriptsDir(cmd))
		},
	}
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env LOXIDE_HOST)")
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env LOXIDE_HTTP_PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env LOXIDE_GRPC_PORT)")
	cmd.Flags().String("scripts-dir", "", "Directory of .lox scripts to evaluate at startup (env LOXIDE_SCRIPTS_DIR)")
	return cmd
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		cfg.Server.HTTPPort = v
	}
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		cfg.Server.GRPCPort = v
	}
}

func scriptsDir(cmd *cobra.Command) string {
	dir := envOrDefault(config.EnvPrefix+"SCRIPTS_DIR", "")
	if v, _ := cmd.Flags().GetString("scripts-dir"); v != "" {
		dir = v
	}
	return dir
}

// serve runs both servers until ctx is cancelled or one of them fails.
func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, scripts string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
	grpcAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort)

	engine := runtime.NewEngine(runtime.WithMaxDepth(cfg.MaxDepth), runtime.WithLogger(log))
	svc := service.New(engine, store.New(cfg.Store.MaxEntries), log, cfg.Server.MaxSourceBytes)

	if scripts != "" {
		if _, err := svc.LoadDir(ctx, scripts); err != nil {
			log.Warn("failed to load scripts directory", zap.String("dir", scripts), zap.Error(err))
		}
	}

	server := api.New(svc, log)
	web.New(svc).Register(server.App())
	grpcServer := grpcapi.New(svc, log)

	errCh := make(chan error, 2)
	go func() {
		log.Info("gRPC server listening", zap.String("addr", grpcAddr))
		if err := grpcServer.Serve(grpcAddr); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.Listen(addr); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var err error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
	}
	grpcServer.GracefulStop()
	if serr := server.Shutdown(); serr != nil {
		log.Warn("error during shutdown", zap.Error(serr))
	}
	return err
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
