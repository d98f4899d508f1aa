package cli

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

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/roach88/spread/internal/engine"
	"github.com/roach88/spread/internal/ir"
	"github.com/roach88/spread/internal/metrics"
	"github.com/roach88/spread/internal/tui"
)

// InteractiveOptions holds flags for the interactive command.
type InteractiveOptions struct {
	*RootOptions
	SessionFlags
	MetricsAddr string
}

// NewInteractiveCommand creates the interactive command.
func NewInteractiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InteractiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Run a session from the terminal",
		Long: `Start a session on the scene's selection and drive it from the keyboard.

Keys:
  ] / [            add / remove a duplicate
  ctrl+up / down   change the seed
  m                cycle mode (linear, deviate, random)
  i                toggle matrix interpolation
  enter            confirm and keep the duplicates
  esc, ctrl+c      cancel and remove them

With --metrics-addr, session counters are served in the Prometheus format
at /metrics while the session runs.

Exit codes:
  0 - Session ended (confirmed or cancelled)
  1 - Session refused (bad selection)
  2 - Command error (database not found, terminal error)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(opts, cmd)
		},
	}

	opts.SessionFlags.register(cmd)
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func runInteractive(opts *InteractiveOptions, cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	cfg, err := opts.config(cmd)
	if err != nil {
		return err
	}

	st, err := openScene(opts.Database, true)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := metrics.New()
	if opts.MetricsAddr != "" {
		srv := serveMetrics(opts.MetricsAddr, rec)
		defer shutdownMetrics(srv)
	}

	host := tui.NewHost()
	ctrl, err := newController(ctx, st, cfg, rec, host.Observer())
	if err != nil {
		return err
	}

	if err := ctrl.Start(ctx, engine.View{Area: engine.AreaView3D}); err != nil {
		formatter := newFormatter(opts.RootOptions, cmd)
		if code := engine.PreconditionCodeOf(err); code != "" {
			_ = formatter.Error(string(code), err.Error(), &ErrorDetails{Database: opts.Database})
		}
		return startError(err)
	}

	state, err := host.Run(ctx, ctrl, programOptions(cmd)...)
	if err != nil {
		return WrapExitError(ExitCommandError, "interactive session failed", err)
	}

	slots, err := st.ListTagged(ctx, ctrl.SessionID())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list slots", err)
	}

	if opts.Format == "json" {
		formatter := newFormatter(opts.RootOptions, cmd)
		return formatter.Success(PlayResult{
			SessionID: ctrl.SessionID(),
			State:     state,
			Params:    ctrl.Params(),
			Slots:     slotViews(slots),
		})
	}

	w := cmd.OutOrStdout()
	switch state {
	case ir.StateConfirmed:
		fmt.Fprintf(w, "✓ Session %s confirmed with %d duplicate(s)\n", ctrl.SessionID(), len(slots))
	default:
		fmt.Fprintf(w, "✗ Session %s %s\n", ctrl.SessionID(), state)
	}
	return nil
}

// programOptions routes the terminal program through the command's streams
// when they have been redirected.
func programOptions(cmd *cobra.Command) []tea.ProgramOption {
	var opts []tea.ProgramOption
	if in := cmd.InOrStdin(); in != os.Stdin {
		opts = append(opts, tea.WithInput(in))
	}
	if out := cmd.OutOrStdout(); out != os.Stdout {
		opts = append(opts, tea.WithOutput(out))
	}
	return opts
}

// serveMetrics starts an HTTP server exposing rec at /metrics.
func serveMetrics(addr string, rec *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("metrics server forced to shut down", "error", err)
	}
}
