package main

import (
	"fmt"
	"path/filepath"

	"github.com/Veraticus/spice-lens/internal/cascade"
	"github.com/Veraticus/spice-lens/internal/cli"
	"github.com/spf13/cobra"
)

func analyzeCmd() *cobra.Command {
	var (
		input    string
		output   string
		label    string
		months   int
		save     bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build a full spending report for a transaction file",
		Long: `Analyze reads a CSV, JSON or OFX/QFX file, categorizes every transaction and
prints a report with category totals, monthly cash flow, a spending forecast,
anomalies, cash-flow risk and a behaviour profile.`,
		Example: `  lens analyze --input statement.csv
  lens analyze --input january.ofx --format json --save --label january`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			out, err := cli.ParseOutput(output)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			txns, err := loadInput(ctx, input, a.logger)
			if err != nil {
				return err
			}

			var extra []cascade.Option
			if progress && len(txns) > 0 {
				bar := cli.NewProgress(cmd.ErrOrStderr(), len(txns), "Classifying transactions...")
				extra = append(extra, cascade.WithProgress(bar.Update))
			}

			report, err := a.coordinator(a.cascade(extra...), months).Run(ctx, txns)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			if err := cli.NewRenderer(cmd.OutOrStdout(), out).Report(report); err != nil {
				return err
			}

			if !save {
				return nil
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if label == "" {
				label = filepath.Base(input)
			}
			record, err := store.SaveAnalysis(ctx, label, report)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Saved analysis "+record.ID))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "transaction file (.csv, .json, .ofx, .qfx)")
	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")
	cmd.Flags().IntVar(&months, "months", 0, "forecast horizon in months (default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "store the report in the local database")
	cmd.Flags().StringVar(&label, "label", "", "label for the saved report (default: input file name)")
	cmd.Flags().BoolVar(&progress, "progress", true, "show a progress bar while classifying")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
