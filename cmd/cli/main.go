package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"regdiag/adapters/stats/ols"
	"regdiag/adapters/tabular"
	"regdiag/app"
	"regdiag/domain/core"
	"regdiag/domain/diagnostics"
	"regdiag/internal"
	"regdiag/internal/report"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "regdiag",
		Short: "Regression heteroscedasticity diagnostics over tabular datasets",
	}

	rootCmd.AddCommand(newDiagnoseCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDiagnoseCmd() *cobra.Command {
	var (
		file        string
		response    string
		predictors  []string
		drop        float64
		alternative string
		alpha       float64
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Fit per-predictor OLS models and run the Goldfeld-Quandt test",
		Long: `Fit a single-predictor OLS model per predictor column, profile its
residuals, and test for heteroscedasticity along each predictor.

Example: regdiag diagnose --file advertising.csv --response sales \
  --predictors TV,radio,newspaper --drop 0.1 --alternative two-sided`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), file, response, predictors, drop, alternative, alpha, asJSON)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Dataset file (.csv or .xlsx)")
	cmd.Flags().StringVar(&response, "response", "sales", "Response column")
	cmd.Flags().StringSliceVar(&predictors, "predictors", nil, "Predictor columns (default: all but the response)")
	cmd.Flags().Float64Var(&drop, "drop", 0.1, "Middle fraction of the sorted sample to discard")
	cmd.Flags().StringVar(&alternative, "alternative", "two-sided", "Alternative: increasing, decreasing or two-sided")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "Significance level")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full report as JSON")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runDiagnose(ctx context.Context, file, response string, predictors []string, drop float64, alternative string, alpha float64, asJSON bool) error {
	table, err := tabular.NewReader(file).ReadTable()
	if err != nil {
		return err
	}

	alt, err := diagnostics.ParseAlternative(alternative)
	if err != nil {
		return err
	}

	keys := make([]core.VariableKey, 0, len(predictors))
	for _, name := range predictors {
		key, err := core.ParseVariableKey(name)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		for _, key := range table.Columns() {
			if key.String() == response || key.String() == "index" {
				continue
			}
			keys = append(keys, key)
		}
	}

	service := app.NewDiagnosticsService(ols.NewFitter(), nil, internal.DefaultLogger)
	result, err := service.Run(ctx, app.RunRequest{
		Source:       table,
		Response:     core.VariableKey(response),
		Predictors:   keys,
		DropFraction: drop,
		Alternative:  alt,
		Alpha:        alpha,
	})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Print(report.NewRenderer().RenderMarkdown(result))
	return nil
}
