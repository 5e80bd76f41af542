package main

import (
	"fmt"

	"github.com/Veraticus/spice-lens/internal/cli"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/config"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/Veraticus/spice-lens/internal/scenario"
	"github.com/spf13/cobra"
)

// scenarioFlags mirrors the single-scenario command line flags.
type scenarioFlags struct {
	kind     string
	name     string
	category string
	from     string
	to       string
	delta    string
	amount   string
	percent  float64
}

func (f scenarioFlags) scenario() (model.Scenario, error) {
	if f.kind == "" {
		return model.Scenario{}, common.NewUserError("either --scenario-file or --kind is required", common.ErrInvalidScenario)
	}

	sc := model.Scenario{
		Name:     f.name,
		Kind:     model.ScenarioKind(f.kind),
		Category: f.category,
		Percent:  f.percent,
		From:     f.from,
		To:       f.to,
	}

	delta, err := parseAmountFlag("delta", f.delta)
	if err != nil {
		return model.Scenario{}, err
	}
	if delta.Valid {
		sc.Delta = delta.Decimal
	}

	amount, err := parseAmountFlag("amount", f.amount)
	if err != nil {
		return model.Scenario{}, err
	}
	if amount.Valid {
		sc.Amount = amount.Decimal
	}

	if err := scenario.Validate(sc); err != nil {
		return model.Scenario{}, err
	}
	return sc, nil
}

func simulateCmd() *cobra.Command {
	var (
		input        string
		output       string
		scenarioFile string
		analysisID   string
		save         bool
		flags        scenarioFlags
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run what-if scenarios against a transaction file",
		Long: `Simulate analyzes a batch, applies one or more scenarios to a copy of it and
shows how totals, forecast, risk and profile change.

Scenario kinds:
  reduce_category  cut spend in --category by --percent
  income_change    add --delta to income (negative to reduce it)
  reallocate       move --amount of spend from --from to --to`,
		Example: `  lens simulate -i statement.csv --kind reduce_category --category Shopping --percent 30
  lens simulate -i statement.csv --kind income_change --delta -10000
  lens simulate -i statement.csv --kind reallocate --from Dining --to Groceries --amount 2000
  lens simulate -i statement.csv --scenario-file scenarios.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			out, err := cli.ParseOutput(output)
			if err != nil {
				return err
			}

			var scenarios []model.Scenario
			if scenarioFile != "" {
				scenarios, err = scenario.LoadFile(config.ExpandPath(scenarioFile))
			} else {
				var sc model.Scenario
				sc, err = flags.scenario()
				scenarios = []model.Scenario{sc}
			}
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

			sim := scenario.New(a.coordinator(a.cascade(), 0), scenario.Options{
				Logger:  a.logger,
				Metrics: a.metrics,
			})
			renderer := cli.NewRenderer(cmd.OutOrStdout(), out)

			outcomes := make([]model.Outcome, 0, len(scenarios))
			for _, sc := range scenarios {
				outcome, err := sim.Simulate(ctx, txns, sc)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Kind, err)
				}
				if err := renderer.Outcome(outcome); err != nil {
					return err
				}
				outcomes = append(outcomes, outcome)
			}

			if !save {
				return nil
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			for _, outcome := range outcomes {
				record, err := store.SaveScenario(ctx, analysisID, outcome)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Saved scenario "+record.ID))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "transaction file (.csv, .json, .ofx, .qfx)")
	cmd.Flags().StringVar(&output, "format", "table", "output format (table, json)")
	cmd.Flags().StringVar(&scenarioFile, "scenario-file", "", "YAML file with a scenarios list")
	cmd.Flags().StringVar(&flags.kind, "kind", "", "scenario kind (reduce_category, income_change, reallocate)")
	cmd.Flags().StringVar(&flags.name, "name", "", "scenario name")
	cmd.Flags().StringVar(&flags.category, "category", "", "category to reduce")
	cmd.Flags().Float64Var(&flags.percent, "percent", 0, "reduction percentage (0-100)")
	cmd.Flags().StringVar(&flags.delta, "delta", "", "income change amount")
	cmd.Flags().StringVar(&flags.from, "from", "", "category to move spend out of")
	cmd.Flags().StringVar(&flags.to, "to", "", "category to move spend into")
	cmd.Flags().StringVar(&flags.amount, "amount", "", "amount to reallocate")
	cmd.Flags().BoolVar(&save, "save", false, "store scenario results in the local database")
	cmd.Flags().StringVar(&analysisID, "analysis", "", "saved analysis ID to link stored scenarios to")
	cmd.MarkFlagsMutuallyExclusive("scenario-file", "kind")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
