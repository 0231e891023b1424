// Package report turns experiment summaries into named numeric tables and
// writes them to CSV files in a blob store or to a SQL database.
//
// Table names follow the layout of the reference runs:
//
//	main_average_precision--1      size sweep of experiment 1, one row per size
//	main_average_precision-003     fill of experiment 3, one row per stage
//	memories-000                   recalls of fill stage 0, label then vector
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/assocmem"
)

// Table is one named matrix of results.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]float64
}

// Sink persists tables.
type Sink interface {
	Write(ctx context.Context, tables ...Table) error
	Close() error
}

// Indexed returns prefix-000 style names.
func Indexed(prefix string, idx int) string {
	return fmt.Sprintf("%s-%03d", prefix, idx)
}

// ForExperiment returns prefix--N style names used by the size sweep.
func ForExperiment(prefix string, experiment int) string {
	return fmt.Sprintf("%s--%d", prefix, experiment)
}

func column(name, col string, values []float64) Table {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return Table{Name: name, Columns: []string{col}, Rows: rows}
}

// SizeTables lays out a size sweep summary. Every table but the behaviours
// holds one value per size; the behaviours table holds one row per outcome
// plus a final row of mean responses, with one column per size.
func SizeTables(experiment int, s *assocmem.Summary) []Table {
	n := len(s.Sizes)
	get := func(f func(assocmem.SizeSummary) float64) []float64 {
		out := make([]float64, n)
		for i, sz := range s.Sizes {
			out[i] = f(sz)
		}
		return out
	}

	name := func(prefix string) string { return ForExperiment(prefix, experiment) }

	tables := []Table{
		column(name("main_average_precision"), "precision", get(func(z assocmem.SizeSummary) float64 { return z.Precision.Mean })),
		column(name("main_all_average_precision"), "precision", get(func(z assocmem.SizeSummary) float64 { return z.OverallPrecision.Mean })),
		column(name("main_average_recall"), "recall", get(func(z assocmem.SizeSummary) float64 { return z.Recall.Mean })),
		column(name("main_all_average_recall"), "recall", get(func(z assocmem.SizeSummary) float64 { return z.OverallRecall.Mean })),
		column(name("main_average_entropy"), "entropy", get(func(z assocmem.SizeSummary) float64 { return z.Entropy.Mean })),
		column(name("main_stdev_precision"), "precision", get(func(z assocmem.SizeSummary) float64 { return z.Precision.Std })),
		column(name("main_all_stdev_precision"), "precision", get(func(z assocmem.SizeSummary) float64 { return z.OverallPrecision.Std })),
		column(name("main_stdev_recall"), "recall", get(func(z assocmem.SizeSummary) float64 { return z.Recall.Std })),
		column(name("main_all_stdev_recall"), "recall", get(func(z assocmem.SizeSummary) float64 { return z.OverallRecall.Std })),
		column(name("main_stdev_entropy"), "entropy", get(func(z assocmem.SizeSummary) float64 { return z.Entropy.Std })),
		column(name("main_sizes"), "size", get(func(z assocmem.SizeSummary) float64 { return float64(z.Size) })),
	}

	cols := make([]string, n)
	for i, sz := range s.Sizes {
		cols[i] = fmt.Sprintf("size_%d", sz.Size)
	}
	tables = append(tables, Table{
		Name:    name("main_behaviours"),
		Columns: cols,
		Rows: [][]float64{
			get(func(z assocmem.SizeSummary) float64 { return z.NoResponse }),
			get(func(z assocmem.SizeSummary) float64 { return z.NoCorrectCandidate }),
			get(func(z assocmem.SizeSummary) float64 { return z.CorrectNotChosen }),
			get(func(z assocmem.SizeSummary) float64 { return z.CorrectChosen }),
			get(func(z assocmem.SizeSummary) float64 { return z.Responses.Mean }),
		},
	})

	return tables
}

// FillTables lays out an incremental fill summary, one row per stage.
func FillTables(experiment int, s *assocmem.FillSummary) []Table {
	get := func(f func(assocmem.FillStageSummary) float64) []float64 {
		out := make([]float64, len(s.Stages))
		for i, st := range s.Stages {
			out[i] = f(st)
		}
		return out
	}

	name := func(prefix string) string { return Indexed(prefix, experiment) }

	return []Table{
		column(name("main_average_precision"), "precision", get(func(z assocmem.FillStageSummary) float64 { return z.Precision.Mean })),
		column(name("main_average_recall"), "recall", get(func(z assocmem.FillStageSummary) float64 { return z.Recall.Mean })),
		column(name("main_average_entropy"), "entropy", get(func(z assocmem.FillStageSummary) float64 { return z.Entropy.Mean })),
		column(name("main_stdev_precision"), "precision", get(func(z assocmem.FillStageSummary) float64 { return z.Precision.Std })),
		column(name("main_stdev_recall"), "recall", get(func(z assocmem.FillStageSummary) float64 { return z.Recall.Std })),
		column(name("main_stdev_entropy"), "entropy", get(func(z assocmem.FillStageSummary) float64 { return z.Entropy.Std })),
	}
}

// RecallTables returns one memories-NNN table per fill stage. Each row is
// the probe label followed by the recalled vector, folds concatenated in
// order.
func RecallTables(results []assocmem.FillResult) []Table {
	stages := 0
	for _, fr := range results {
		if fr.Err == nil {
			stages = max(stages, len(fr.Stages))
		}
	}

	tables := make([]Table, 0, stages)
	for k := range stages {
		recalls := assocmem.StageRecalls(results, k)

		t := Table{Name: Indexed("memories", k), Rows: make([][]float64, len(recalls))}
		for i, rc := range recalls {
			row := make([]float64, 0, len(rc.Vector)+1)
			row = append(row, float64(rc.Label))
			for _, v := range rc.Vector {
				row = append(row, float64(v))
			}
			t.Rows[i] = row
		}
		if len(recalls) > 0 {
			t.Columns = make([]string, len(recalls[0].Vector)+1)
			t.Columns[0] = "label"
			for d := 1; d < len(t.Columns); d++ {
				t.Columns[d] = fmt.Sprintf("d%d", d-1)
			}
		}
		tables = append(tables, t)
	}

	return tables
}

// WriteSizeSummary writes the size sweep tables of one experiment.
func WriteSizeSummary(ctx context.Context, sink Sink, experiment int, s *assocmem.Summary) error {
	return sink.Write(ctx, SizeTables(experiment, s)...)
}

// WriteFillSummary writes the fill tables of one experiment.
func WriteFillSummary(ctx context.Context, sink Sink, experiment int, s *assocmem.FillSummary) error {
	return sink.Write(ctx, FillTables(experiment, s)...)
}

// WriteRecalls writes the per-stage recall tables.
func WriteRecalls(ctx context.Context, sink Sink, results []assocmem.FillResult) error {
	return sink.Write(ctx, RecallTables(results)...)
}

type tee []Sink

// Tee writes every table to all sinks in order and stops at the first
// error. Close closes every sink and joins the errors.
func Tee(sinks ...Sink) Sink { return tee(sinks) }

func (t tee) Write(ctx context.Context, tables ...Table) error {
	for _, s := range t {
		if err := s.Write(ctx, tables...); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
