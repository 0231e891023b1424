package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hupe1980/assocmem"
	"github.com/hupe1980/assocmem/memory"
	"github.com/hupe1980/assocmem/report"
	"github.com/spf13/cobra"
)

const fillLongDesc string = `Fill a fixed-size bank incrementally and track recognition per stage.

The training portion of every fold is registered in stages of
filling_percent, each stage re-registering the whole prefix seen so far.
After each stage the last 1 - training_percent of the fold is probed. Stage
summaries are written as the main_*-NNN tables and the recalled vectors of
every stage as memories-NNN. With --save-bank the final bank of each fold
is stored as compressed snapshots named bank-FFF-GGG.amrm.

Examples:
  amexp fill
  amexp fill --fill-size 128 --save-bank --compression lz4`

const fillShortDesc string = "Evaluate recognition while a bank fills"

// bankPrefix names the snapshots of one fold.
func bankPrefix(fold int) string { return report.Indexed("bank", fold) }

func newFillCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: fillShortDesc,
		Long:  fillLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			file, err := root.load(cmd)
			if err != nil {
				return err
			}

			compression, err := memory.ParseCompression(file.Output.Compression)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := newSession(ctx, file)
			if err != nil {
				return err
			}
			defer s.finish(&err)

			results := s.runner.RunFill(ctx, s.folds)
			sum, err := assocmem.SummarizeFill(results)
			if err != nil {
				return err
			}

			if err := report.WriteFillSummary(ctx, s.sink, file.Experiment.Number, sum); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			if err := report.WriteRecalls(ctx, s.sink, results); err != nil {
				return fmt.Errorf("writing recalls: %w", err)
			}

			if file.Output.SaveBank {
				if err := s.saveBanks(ctx, results, compression); err != nil {
					return err
				}
			}

			printFillSummary(cmd.OutOrStdout(), sum)

			if len(sum.Failed) > 0 {
				return fmt.Errorf("%d of %d folds failed: %v", len(sum.Failed), len(results), sum.Failed)
			}
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().Int("fill-size", 64, "Memory size of the filled bank")
	cmd.Flags().Bool("save-bank", false, "Store the final bank of every fold")
	cmd.Flags().String("compression", "zstd", "Snapshot compression: none, lz4 or zstd")

	return cmd
}

func (s *session) saveBanks(ctx context.Context, results []assocmem.FillResult, c memory.Compression) error {
	for _, fr := range results {
		if fr.Err != nil || fr.Bank == nil {
			continue
		}
		prefix := bankPrefix(fr.Fold)
		if err := report.SaveBank(ctx, s.store, prefix, fr.Bank, c, s.rc); err != nil {
			return fmt.Errorf("saving %s: %w", prefix, err)
		}
		s.logger.Info("saved bank", "prefix", prefix, "groups", fr.Bank.Len())
	}
	return nil
}

func printFillSummary(w io.Writer, sum *assocmem.FillSummary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "stage\tprecision\trecall\tentropy\t")
	for _, st := range sum.Stages {
		fmt.Fprintf(tw, "%d\t%.3f\t%.3f\t%.3f\t\n", st.Stage, st.Precision.Mean, st.Recall.Mean, st.Entropy.Mean)
	}
	_ = tw.Flush()
}
