package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/spice-lens/internal/cli"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved analyses",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
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

			records, err := store.ListAnalyses(ctx, limit)
			if err != nil {
				return err
			}
			return cli.NewRenderer(cmd.OutOrStdout(), out).History(records)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")

	return cmd
}

func historyShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved analysis and the scenarios run against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			record, err := store.GetAnalysis(ctx, args[0])
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError(fmt.Sprintf("no saved analysis with ID %s", args[0]), err)
			}
			if err != nil {
				return err
			}

			scenarios, err := store.ListScenarios(ctx, record.ID)
			if err != nil {
				return err
			}
			return cli.NewRenderer(cmd.OutOrStdout(), out).Analysis(*record, scenarios)
		},
	}

	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")

	return cmd
}
