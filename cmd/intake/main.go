package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/caretone/intake-core/core/call"
	"github.com/caretone/intake-core/core/config"
	"github.com/caretone/intake-core/core/prompt"
	"github.com/caretone/intake-core/core/realtime"
	"github.com/caretone/intake-core/core/session"
	"github.com/caretone/intake-core/core/store"
	"github.com/caretone/intake-core/core/tools"
	"github.com/caretone/intake-core/internal/tui"
	"github.com/caretone/intake-core/server"
)

var debug bool

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "intake",
		Short: "Voice-driven geriatric intake interviews",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sidebandCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func simulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run a text-only interview in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			callID := uuid.NewString()[:8]
			conn, err := realtime.Dial(ctx, cfg.Realtime(prompt.Instructions(""), tools.Definitions()))
			if err != nil {
				return fmt.Errorf("connecting to realtime agent: %w", err)
			}
			if err := conn.TriggerResponse(); err != nil {
				conn.Close()
				return fmt.Errorf("requesting greeting: %w", err)
			}

			sess := session.New(call.New(callID), conn, store.NewFileStore(cfg.OutputDir))
			go sess.Run(ctx)

			if err := tui.Run(ctx, sess); err != nil {
				slog.Debug("simulation interface exited", "error", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sess.Shutdown(shutdownCtx); err != nil {
				slog.Warn("session shutdown", "error", err)
			}

			snapshot := sess.Snapshot()
			fmt.Println(snapshot.Summary())
			if path := sess.OutputPath(); path != "" {
				fmt.Println("Output saved to", path)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the intake HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(cfg)
			httpServer := &http.Server{
				Addr:    cfg.Addr,
				Handler: srv.Handler(),
			}

			errs := make(chan error, 1)
			go func() {
				slog.Info("intake server listening", "addr", cfg.Addr)
				errs <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down server: %w", err)
			}
			if active := srv.Registry().Active(); active > 0 {
				slog.Info("exiting with calls still active", "count", active)
			}
			return nil
		},
	}
}

func sidebandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sideband <call_id>",
		Short: "Attach to an existing realtime call and run the interview over it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			callID := args[0]
			conn, err := realtime.Attach(ctx, cfg.Realtime(prompt.Instructions(""), tools.Definitions()), callID, "")
			if err != nil {
				return fmt.Errorf("attaching to call %s: %w", callID, err)
			}

			sess := session.New(call.New(callID), conn, store.NewFileStore(cfg.OutputDir))
			slog.Info("attached to call", "call_id", callID)

			if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("session ended with error", "call_id", callID, "error", err)
			}

			snapshot := sess.Snapshot()
			fmt.Println(snapshot.Summary())
			if path := sess.OutputPath(); path != "" {
				fmt.Println("Output saved to", path)
			}
			return nil
		},
	}
}
