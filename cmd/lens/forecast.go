package main

import (
	"fmt"

	"github.com/Veraticus/spice-lens/internal/agent"
	"github.com/Veraticus/spice-lens/internal/cli"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/spf13/cobra"
)

func forecastCmd() *cobra.Command {
	var (
		input  string
		output string
		months int
	)

	cmd := &cobra.Command{
		Use:     "forecast",
		Short:   "Project monthly spending from a transaction file",
		Example: `  lens forecast --input statement.csv --months 6`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if months < 0 {
				return common.NewUserError("--months must not be negative", common.ErrInvalidConfig)
			}
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

			spending := agent.NewSpendingAgent(a.cascade(), agent.SpendingOptions{
				Logger:   a.logger,
				Metrics:  a.metrics,
				AnomalyK: a.cfg.Analysis.AnomalyK,
			})
			categorized := spending.CategorizeAll(ctx, txns)
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("forecast interrupted: %w", err)
			}

			return cli.NewRenderer(cmd.OutOrStdout(), out).Forecast(spending.ForecastCashflow(categorized, months))
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "transaction file (.csv, .json, .ofx, .qfx)")
	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")
	cmd.Flags().IntVar(&months, "months", 3, "months to project")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
