package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hupe1980/assocmem"
	"github.com/hupe1980/assocmem/report"
	"github.com/spf13/cobra"
)

const sizesLongDesc string = `Sweep the memory sizes over every fold.

For each fold and size, the training portion is registered into a bank of
memories and the test portion is recognized, recalled and arbitrated. The
fold results are summarized per size and written as the main_*--N tables,
where N is the experiment number.

Examples:
  amexp sizes
  amexp sizes --sizes 1,2,4,8,16 --folds 5
  amexp sizes --store s3://bucket/runs --experiment 2`

const sizesShortDesc string = "Evaluate recognition over memory sizes"

func newSizesCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sizes",
		Short: sizesShortDesc,
		Long:  sizesLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			file, err := root.load(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := newSession(ctx, file)
			if err != nil {
				return err
			}
			defer s.finish(&err)

			results := s.runner.RunFolds(ctx, s.folds)
			sum, err := assocmem.Summarize(results)
			if err != nil {
				return err
			}

			if err := report.WriteSizeSummary(ctx, s.sink, file.Experiment.Number, sum); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			printSizeSummary(cmd.OutOrStdout(), sum)

			if len(sum.Failed) > 0 {
				return fmt.Errorf("%d of %d folds failed: %v", len(sum.Failed), len(results), sum.Failed)
			}
			return nil
		},
	}

	addRunFlags(cmd)
	cmd.Flags().IntSlice("sizes", nil, "Memory sizes to sweep (default from config)")

	return cmd
}

func printSizeSummary(w io.Writer, sum *assocmem.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "size\tprecision\trecall\tentropy\tall precision\tall recall\tresponses\t")
	for _, z := range sum.Sizes {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.3f\t%.2f\t%.2f\t%.2f\t\n",
			z.Size, z.Precision.Mean, z.Recall.Mean, z.Entropy.Mean,
			z.OverallPrecision.Mean, z.OverallRecall.Mean, z.Responses.Mean)
	}
	_ = tw.Flush()
}
