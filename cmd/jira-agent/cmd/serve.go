package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/jira-agent/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chat sessions over HTTP",
	Long: `Start an HTTP server exposing chat sessions.

Endpoints:
  POST   /api/v1/sessions               open a session
  GET    /api/v1/sessions               list open sessions
  GET    /api/v1/sessions/{id}          session transcript
  POST   /api/v1/sessions/{id}/turns    send a message ({"message": "..."})
  DELETE /api/v1/sessions/{id}          close a session
  GET    /api/v1/tools                  available tools
  GET    /api/v1/metrics                turn and tool counters
  GET    /health                        health check

Examples:
  jira-agent serve
  jira-agent serve --addr 0.0.0.0:3000 --cors-origin http://localhost:5173`,
	RunE: runServe,
}

var (
	serveAddr        string
	serveCORSOrigins []string
	serveMaxSessions int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"address to listen on (default from server.addr)")
	serveCmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", []string{"*"},
		"allowed CORS origins")
	serveCmd.Flags().IntVar(&serveMaxSessions, "max-sessions", 100,
		"maximum open sessions (0 = unlimited)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildDeps(depsOptions{
		needLLM:     true,
		needTracker: true,
		history:     true,
		surface:     surfaceServe,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	addr := serveAddr
	if addr == "" {
		addr = deps.Config.Server.Addr
	}

	server := api.NewServer(deps.NewDispatcher,
		api.WithLogger(deps.Logger),
		api.WithTools(deps.Tools.Infos()),
		api.WithMetrics(deps.Metrics),
		api.WithCORSOrigins(serveCORSOrigins),
		api.WithMaxSessions(serveMaxSessions),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, addr)
	})
	g.Go(func() error {
		// A failed check only warns; the server keeps running.
		checkCtx, cancel := context.WithTimeout(gctx, defaultTrackerTimeout)
		defer cancel()
		if user, err := deps.Tracker.Myself(checkCtx); err != nil {
			deps.Logger.Warn("jira connectivity check failed", "error", err)
		} else {
			deps.Logger.Info("connected to jira", "url", deps.Tracker.BaseURL(), "user", user.DisplayName)
		}
		return nil
	})

	err = g.Wait()
	deps.Logger.Info("server stopped")
	return err
}
