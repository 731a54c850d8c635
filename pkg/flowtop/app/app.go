package app

import (
	"context"
	"errors"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/netsampler/flowtop/analyzer"
	"github.com/netsampler/flowtop/metrics"
	"github.com/netsampler/flowtop/pkg/flowtop/config"
	"github.com/netsampler/flowtop/pkg/flowtop/logging"
	"github.com/netsampler/flowtop/utils/debug"

	// various formatters
	"github.com/netsampler/flowtop/format"
	_ "github.com/netsampler/flowtop/format/csv"
	_ "github.com/netsampler/flowtop/format/json"
	_ "github.com/netsampler/flowtop/format/text"

	// various transports
	"github.com/netsampler/flowtop/transport"
	_ "github.com/netsampler/flowtop/transport/file"
	_ "github.com/netsampler/flowtop/transport/http"
	_ "github.com/netsampler/flowtop/transport/kafka"
	_ "github.com/netsampler/flowtop/transport/nats"
)

// App wires and runs the flowtop application.
type App struct {
	cfg       *config.Config
	logger    *log.Logger
	runner    analyzer.Runner
	formatter *format.Format
	transport *transport.Transport
}

// New constructs a new App from config.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFmt)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		runner: debug.WrapPanicRunner(&analyzer.Analyzer{Logger: logger}),
	}

	if cfg.Print {
		if app.formatter, err = format.FindFormat(cfg.Format); err != nil {
			return nil, err
		}
		if app.transport, err = transport.FindTransport(cfg.Transport, cfg.TransportOptions); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Close releases the transport.
func (a *App) Close() error {
	if a.transport == nil {
		return nil
	}
	return a.transport.Close()
}

// Roots returns the configured roots with duplicates removed, in their original order.
// Two arguments naming the same directory would write the same artifact.
func (a *App) Roots() []string {
	seen := make(map[string]struct{}, len(a.cfg.Roots))
	roots := make([]string, 0, len(a.cfg.Roots))
	for _, root := range a.cfg.Roots {
		key := filepath.Clean(root)
		if abs, err := filepath.Abs(root); err == nil {
			key = abs
		}
		if _, ok := seen[key]; ok {
			a.logger.WithField("root", root).Warn("skipping duplicate root")
			continue
		}
		seen[key] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}

// Run analyzes every root and returns the results in root order.
// Roots not yet started when ctx is cancelled are skipped.
func (a *App) Run(ctx context.Context) ([]analyzer.Result, error) {
	roots := a.Roots()
	results := make([]analyzer.Result, len(roots))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Parallel)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.runner.Run(root, a.cfg.TopN)
			var pErr *debug.PanicErrorMessage
			if errors.As(results[i].Err, &pErr) {
				a.logger.WithError(pErr).WithField("stack", string(pErr.Stacktrace)).Error("analysis panicked")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if a.transport != nil {
		for _, res := range results {
			if err := a.emit(res); err != nil {
				return results, err
			}
		}
	}
	a.exportMetrics()

	return results, nil
}

func (a *App) emit(res analyzer.Result) error {
	data, err := a.formatter.Format(res)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return a.transport.Send([]byte(res.Root), data)
}

func (a *App) exportMetrics() {
	if a.cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
			a.logger.WithError(err).WithField("path", a.cfg.MetricsTextfile).Error("error writing metrics")
		}
	}
	if a.cfg.MetricsPush != "" {
		if err := metrics.Push(a.cfg.MetricsPush, a.cfg.MetricsJob); err != nil {
			a.logger.WithError(err).WithField("url", a.cfg.MetricsPush).Error("error pushing metrics")
		}
	}
}

// ExitStatus returns the highest status among results.
func ExitStatus(results []analyzer.Result) analyzer.Status {
	status := analyzer.StatusOK
	for _, res := range results {
		if res.Status > status {
			status = res.Status
		}
	}
	return status
}
