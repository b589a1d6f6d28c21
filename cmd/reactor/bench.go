package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/pkg/instrument"
	"github.com/vango-dev/reactor/pkg/reactive"
)

type benchOptions struct {
	Effects int
	Keys    int
	Writes  int
	Turns   int
}

type benchResult struct {
	Options  benchOptions  `json:"options"`
	Runs     int           `json:"runs"`
	Flushes  int           `json:"flushes"`
	Duration time.Duration `json:"duration_ns"`
}

// RunsPerSecond is the effect run throughput.
func (r benchResult) RunsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Runs) / r.Duration.Seconds()
}

func benchCmd(a *app) *cobra.Command {
	var (
		opts   benchOptions
		serve  bool
		addr   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark batched effects",
		Long: `Create N batched effects over M keys, then run T turns of K writes each.
Every turn ends with a tick, so each effect runs at most once per turn.

With --serve the runtime metrics stay available on /metrics (and /healthz)
until interrupted.

Examples:
  reactor bench
  reactor bench --effects 1000 --keys 100 --writes 50 --turns 200
  reactor bench --serve --addr :9464`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Effects <= 0 || opts.Keys <= 0 || opts.Writes < 0 || opts.Turns < 0 {
				return fmt.Errorf("effects and keys must be positive, writes and turns not negative")
			}

			reg := prometheus.NewRegistry()
			observers := a.cfg.Observers(reg)
			if serve && !a.cfg.Metrics.Enabled {
				observers = append(observers, instrument.NewMetrics(
					instrument.WithRegistry(reg),
					instrument.WithNamespace(a.cfg.Metrics.Namespace),
				))
			}
			rt := reactive.NewRuntime(a.cfg.RuntimeOptions(a.logger, observers...)...)

			res := runBench(rt, opts)
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, res); err != nil {
					return err
				}
			} else {
				printBench(out, res)
			}

			if !serve {
				return nil
			}
			if addr == "" {
				addr = a.cfg.Metrics.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveMetrics(ctx, out, a.cfg, addr, reg)
		},
	}

	cmd.Flags().IntVarP(&opts.Effects, "effects", "n", 100, "Number of effects")
	cmd.Flags().IntVarP(&opts.Keys, "keys", "m", 10, "Number of state keys")
	cmd.Flags().IntVarP(&opts.Writes, "writes", "k", 20, "Writes per turn")
	cmd.Flags().IntVarP(&opts.Turns, "turns", "t", 100, "Number of turns")
	cmd.Flags().BoolVar(&serve, "serve", false, "Serve metrics after the run until interrupted")
	cmd.Flags().StringVar(&addr, "addr", "", "Metrics listen address (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

// runBench drives opts.Effects batched effects, effect i reading key i mod
// opts.Keys.
func runBench(rt *reactive.Runtime, opts benchOptions) benchResult {
	res := benchResult{Options: opts}
	queue := rt.NewJobQueue()

	raw := reactive.NewRecord()
	keys := make([]string, opts.Keys)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
		raw.Set(keys[i], 0)
	}
	state := rt.Record(raw)

	start := time.Now()
	for i := 0; i < opts.Effects; i++ {
		key := keys[i%len(keys)]
		rt.WatchEffect(func() any {
			res.Runs++
			return state.Get(key)
		}, reactive.WithScheduler(queue.Scheduler()), reactive.EffectName(fmt.Sprintf("bench-%d", i%len(keys))))
	}

	n := 0
	for turn := 0; turn < opts.Turns; turn++ {
		for w := 0; w < opts.Writes; w++ {
			n++
			state.Set(keys[n%len(keys)], n)
		}
		res.Flushes += rt.Tick()
	}
	res.Duration = time.Since(start)
	return res
}

func printBench(w io.Writer, r benchResult) {
	section(w, "Benchmark")
	labelValue(w, "Effects", r.Options.Effects)
	labelValue(w, "Keys", r.Options.Keys)
	labelValue(w, "Writes", fmt.Sprintf("%d x %d turns", r.Options.Writes, r.Options.Turns))
	labelValue(w, "Runs", r.Runs)
	labelValue(w, "Flushes", r.Flushes)
	labelValue(w, "Duration", r.Duration.Round(time.Microsecond))
	labelValue(w, "Runs/sec", fmt.Sprintf("%.0f", r.RunsPerSecond()))
	fmt.Fprintln(w)
	if r.Flushes > r.Options.Turns {
		warn(w, "more flushes than turns")
		return
	}
	success(w, "at most one flush per turn")
}

// newMetricsRouter exposes reg on /metrics with a liveness probe on /healthz.
func newMetricsRouter(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return r
}

// serveMetrics serves the metrics router on addr until ctx is done.
func serveMetrics(ctx context.Context, out io.Writer, cfg *config.Config, addr string, reg *prometheus.Registry) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newMetricsRouter(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	success(out, "serving metrics on %s/metrics (namespace %s), Ctrl+C to stop", addr, cfg.Metrics.Namespace)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}
