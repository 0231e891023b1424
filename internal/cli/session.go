package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hupe1980/assocmem"
	"github.com/hupe1980/assocmem/blobstore"
	"github.com/hupe1980/assocmem/config"
	"github.com/hupe1980/assocmem/dataset"
	"github.com/hupe1980/assocmem/prommetrics"
	"github.com/hupe1980/assocmem/report"
	"github.com/hupe1980/assocmem/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// session holds everything an experiment command needs: the runner, the
// loaded folds, the output store and the report sinks.
type session struct {
	file   *config.File
	logger *assocmem.Logger
	rc     *resource.Controller
	runner *assocmem.Runner
	folds  []dataset.Fold
	store  blobstore.Store
	sink   report.Sink

	metrics *http.Server
}

func newSession(ctx context.Context, file *config.File) (_ *session, err error) {
	cfg, err := file.ExperimentConfig()
	if err != nil {
		return nil, err
	}

	logger, err := file.Logger()
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	rc := resource.NewController(file.ResourceConfig(workers))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := prommetrics.New(reg)
	if err != nil {
		return nil, err
	}

	runner, err := assocmem.NewRunner(cfg,
		assocmem.WithLogger(logger),
		assocmem.WithResourceController(rc),
		assocmem.WithMetricsCollector(collector),
	)
	if err != nil {
		return nil, err
	}

	folds, err := dataset.LoadAll(file.Data.Dir, file.Experiment.Folds)
	if err != nil {
		return nil, fmt.Errorf("loading folds: %w", err)
	}

	store, err := openStore(ctx, file.Output)
	if err != nil {
		return nil, err
	}

	s := &session{
		file:   file,
		logger: runner.Logger(),
		rc:     rc,
		runner: runner,
		folds:  folds,
		store:  store,
	}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	sinks := []report.Sink{report.NewCSVSink(store,
		report.WithHeader(file.Output.Header),
		report.WithIOLimit(rc),
		report.WithLogger(s.logger),
	)}
	if file.Output.SQLDSN != "" {
		if file.Output.SQLDriver == "" {
			return nil, errors.New("output.sql_dsn is set without output.sql_driver")
		}
		db, err := report.OpenSQLSink(ctx, file.Output.SQLDriver, file.Output.SQLDSN, runner.RunID())
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, db)
	}
	s.sink = report.Tee(sinks...)

	if addr := file.Metrics.Listen; addr != "" {
		if err := s.serveMetrics(addr, reg); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *session) serveMetrics(addr string, reg *prometheus.Registry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	s.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}()

	s.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

// finish closes s and joins the close error into *errp, so that a report
// that failed to flush fails the command.
func (s *session) finish(errp *error) {
	*errp = errors.Join(*errp, s.Close())
}

// Close flushes the sinks and stops the metrics endpoint.
func (s *session) Close() error {
	s.logger.Info("run finished",
		"peak_bank_bytes", s.rc.PeakMemoryUsage(),
		"report_bytes", s.rc.IOBytes(),
	)

	var errs []error
	if s.sink != nil {
		errs = append(errs, s.sink.Close())
	}
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, s.metrics.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
