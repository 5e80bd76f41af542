package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/spice-lens/internal/cli"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	var (
		amount string
		output string
	)

	cmd := &cobra.Command{
		Use:   "classify TEXT",
		Short: "Categorize one transaction description and score it for fraud",
		Example: `  lens classify "Starbucks coffee"
  lens classify "Suspicious unknown UPI payment" --amount 25000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := strings.Join(args, " ")
			if strings.TrimSpace(text) == "" {
				return common.NewUserError("description must not be empty", common.ErrMalformedInput)
			}

			out, err := cli.ParseOutput(output)
			if err != nil {
				return err
			}
			amt, err := parseAmountFlag("amount", amount)
			if err != nil {
				return err
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			result := a.cascade().Classify(ctx, text, amt)
			if err := cli.NewRenderer(cmd.OutOrStdout(), out).Prediction(text, result); err != nil {
				return fmt.Errorf("failed to render prediction: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "transaction amount")
	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")

	return cmd
}
