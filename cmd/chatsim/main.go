package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/chatsim-go/internal/api"
	"github.com/comigor/chatsim-go/internal/config"
	"github.com/comigor/chatsim-go/internal/conversation"
	"github.com/comigor/chatsim-go/internal/history"
	"github.com/comigor/chatsim-go/internal/imageflow"
	"github.com/comigor/chatsim-go/internal/logger"
	"github.com/comigor/chatsim-go/internal/schedule"
	"github.com/comigor/chatsim-go/internal/session"
	"github.com/comigor/chatsim-go/internal/synth"
)

func main() {
	root := &cobra.Command{
		Use:           "chatsim",
		Short:         "Simulated chat assistant with image upload and generation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(chatCmd())

	if err := root.Execute(); err != nil {
		logger.L.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// app is one running session and its collaborators.
type app struct {
	cfg   *config.Config
	store *conversation.Store
	sink  history.Sink
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.SetLevel(cfg.Log.Level)

	sched := schedule.Real{}
	sess := session.New(sched.Now())
	images := imageflow.NewController(sched, cfg.Timing.GenerateDelay,
		imageflow.NewPlaceholder(cfg.Placeholder), imageflow.NewBlobs("/blobs/"))
	sink := history.Open(cfg.History)

	store, err := conversation.New(sess, images, synth.New(),
		conversation.WithScheduler(sched),
		conversation.WithTiming(cfg.Timing),
		conversation.WithSink(sink),
	)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	logger.L.Info("session started", "session_id", sess.ID, "history", cfg.History.Driver)
	return &app{cfg: cfg, store: store, sink: sink}, nil
}

func (a *app) Close() {
	if err := a.sink.Close(); err != nil {
		logger.L.Warn("close history", "error", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat session over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverAddr := fmt.Sprintf("%s:%s", a.cfg.Server.Host, a.cfg.Server.Port)
			srv := &http.Server{
				Addr:              serverAddr,
				Handler:           api.New(a.store, a.cfg.Upload),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.L.Info("starting server", "address", serverAddr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server: %w", err)
				}
				return nil
			case <-ctx.Done():
				logger.L.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Long: `Chat in the terminal. Plain lines are sent as messages.
Commands: /upload <path>, /drop <path>, /generate <prompt>, /suggest, /close, /quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.SetOutput(os.Stderr)
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return newREPL(a.store, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
		},
	}
}
