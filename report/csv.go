package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/assocmem"
	"github.com/hupe1980/assocmem/blobstore"
	"github.com/hupe1980/assocmem/resource"
	"golang.org/x/sync/errgroup"
)

// CSVExt is appended to every table name.
const CSVExt = ".csv"

// CSVSink writes each table as a CSV blob named <table>.csv.
type CSVSink struct {
	store       blobstore.Store
	header      bool
	concurrency int
	resources   *resource.Controller
	logger      *assocmem.Logger
}

// CSVOption configures a CSVSink.
type CSVOption func(*CSVSink)

// WithHeader writes the column names as the first record. Off by default,
// matching the header-less files of the reference runs.
func WithHeader(on bool) CSVOption {
	return func(s *CSVSink) { s.header = on }
}

// WithConcurrency bounds how many tables are uploaded at once.
func WithConcurrency(n int) CSVOption {
	return func(s *CSVSink) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithIOLimit throttles uploads through the controller's IO budget.
func WithIOLimit(rc *resource.Controller) CSVOption {
	return func(s *CSVSink) { s.resources = rc }
}

// WithLogger reports every written table.
func WithLogger(l *assocmem.Logger) CSVOption {
	return func(s *CSVSink) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewCSVSink creates a sink writing into store.
func NewCSVSink(store blobstore.Store, optFns ...CSVOption) *CSVSink {
	s := &CSVSink{
		store:       store,
		concurrency: 8,
		logger:      assocmem.NoopLogger(),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Write uploads every table concurrently. The first failure cancels the
// uploads that have not started yet.
func (s *CSVSink) Write(ctx context.Context, tables ...Table) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, t := range tables {
		g.Go(func() error {
			name := t.Name + CSVExt
			err := s.writeTable(ctx, name, t)
			s.logger.LogReport(ctx, name, err)
			return err
		})
	}

	return g.Wait()
}

func (s *CSVSink) writeTable(ctx context.Context, name string, t Table) error {
	return blobstore.WriteFile(ctx, s.store, name, func(out io.Writer) error {
		w := csv.NewWriter(resource.NewRateLimitedWriter(ctx, out, s.resources))

		if s.header && len(t.Columns) > 0 {
			if err := w.Write(t.Columns); err != nil {
				return err
			}
		}

		record := make([]string, 0, len(t.Columns))
		for _, row := range t.Rows {
			record = record[:0]
			for _, v := range row {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}

		w.Flush()
		return w.Error()
	})
}

// Close implements Sink.
func (s *CSVSink) Close() error { return nil }

// ReadCSV reads a table written without header back from store.
func ReadCSV(ctx context.Context, store blobstore.Store, name string) ([][]float64, error) {
	data, err := blobstore.ReadAll(ctx, store, name+CSVExt)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(records))
	for i, rec := range records {
		rows[i] = make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, i+1, err)
			}
			rows[i][j] = v
		}
	}
	return rows, nil
}
