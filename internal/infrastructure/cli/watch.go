package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/fareview/internal/infrastructure/sse"
	"github.com/felixgeelhaar/fareview/internal/infrastructure/watch"
)

var (
	watchOutDir      string
	watchMetricsAddr string
	watchDebounce    time.Duration
	watchFlags       providerFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Analyze reports as they are dropped into a directory",
	Long: `Watch monitors an inbox directory and analyzes every report that is created
or rewritten there, once the file has stopped changing. Evaluations are
written next to the report (or to --out-dir) as <name>_<ext>_evaluation.txt.

With --metrics-addr the Prometheus metrics are served at /metrics and the
analysis events are streamed as Server-Sent Events at /events.`,
	Example: `  fareview watch ./inbox
  fareview watch ./inbox --out-dir ./evaluations --metrics-addr :9090`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		events := sse.NewHandler()
		app, _, err := loadApp(watchFlags, events)
		if err != nil {
			return err
		}
		defer app.Close()

		var exts []string
		for _, c := range app.Loader.Capabilities() {
			if c.Available {
				exts = append(exts, c.Extensions...)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watchMetricsAddr != "" {
			srv := &http.Server{Addr: watchMetricsAddr, Handler: monitorMux(events), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server stopped", "error", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		w := cmd.OutOrStdout()
		inbox := watch.NewInbox(app.Pipeline, watch.InboxConfig{
			Dir:        dir,
			OutDir:     watchOutDir,
			Extensions: exts,
			Debounce:   watchDebounce,
			Logger:     slog.Default(),
			OnResult: func(r watch.InboxResult) {
				if r.Err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", r.Path, MapError(r.Err))
					return
				}
				printOutcomeSummary(w, r.Outcome)
			},
		})

		fmt.Fprintf(w, "Watching %s (Ctrl+C to stop)\n", dir)
		return inbox.Run(ctx)
	},
}

func monitorMux(events http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/events", events)
	return mux
}

func init() {
	watchCmd.Flags().StringVar(&watchOutDir, "out-dir", "", "Directory for the evaluations (default: the watched directory)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve /metrics and the /events stream on this address, e.g. :9090")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "Quiet period before a changed report is analyzed")
	addProviderFlags(watchCmd, &watchFlags)
	RootCmd.AddCommand(watchCmd)
}
