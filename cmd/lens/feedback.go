package main

import (
	"fmt"

	"github.com/Veraticus/spice-lens/internal/cli"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Record and review category corrections",
	}

	cmd.AddCommand(feedbackAddCmd())
	cmd.AddCommand(feedbackListCmd())

	return cmd
}

func feedbackAddCmd() *cobra.Command {
	var fb model.Feedback
	var predict bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record the correct category for a description",
		Example: `  lens feedback add --description "zepto order" --corrected Groceries
  lens feedback add --description "zepto order" --corrected Groceries --predict`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if fb.Description == "" || fb.CorrectedCategory == "" {
				return common.NewUserError("--description and --corrected are required", common.ErrMalformedInput)
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if predict && fb.PredictedCategory == "" {
				result := a.cascade().Classify(ctx, fb.Description, decimal.NullDecimal{})
				fb.PredictedCategory = result.Category
				fb.Confidence = result.CategoryConfidence
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveFeedback(ctx, &fb); err != nil {
				return err
			}

			msg := fmt.Sprintf("Recorded feedback #%d: %q -> %s", fb.ID, fb.Description, fb.CorrectedCategory)
			if fb.PredictedCategory != "" {
				msg += fmt.Sprintf(" (was %s)", fb.PredictedCategory)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
			return err
		},
	}

	cmd.Flags().StringVar(&fb.Description, "description", "", "transaction description")
	cmd.Flags().StringVar(&fb.CorrectedCategory, "corrected", "", "correct category")
	cmd.Flags().StringVar(&fb.PredictedCategory, "predicted", "", "category that was predicted")
	cmd.Flags().StringVar(&fb.TransactionID, "transaction-id", "", "source transaction ID")
	cmd.Flags().Float64Var(&fb.Confidence, "confidence", 0, "confidence of the prediction")
	cmd.Flags().StringVar(&fb.Source, "source", "", "where the correction came from (default: cli)")
	cmd.Flags().BoolVar(&predict, "predict", false, "fill the predicted category by classifying the description")

	return cmd
}

func feedbackListCmd() *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded corrections, newest first",
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

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			items, err := store.ListFeedback(ctx, limit)
			if err != nil {
				return err
			}
			return cli.NewRenderer(cmd.OutOrStdout(), out).Feedback(items)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")

	return cmd
}
