package main

import (
	"encoding/json"
	"fmt"
	"os"

	"dosefit/adapters/excel"
	"dosefit/app"
	"dosefit/internal/curvefit"
	"dosefit/internal/report"
	"dosefit/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "dosefit",
		Short: "Dose-response curve fitting and potency comparison",
	}
	rootCmd.AddCommand(newAnalyzeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		format        string
		weighting     string
		maxIterations int
		tolerance     float64
	)

	cmd := &cobra.Command{
		Use:   "analyze <plate-file>",
		Short: "Fit log-logistic curves to a plate file and compare EC50",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := curvefit.Config{
				MaxIterations: maxIterations,
				Tolerance:     tolerance,
				Weighting:     curvefit.Weighting(weighting),
			}

			var reader ports.TableReader = excel.NewPlateReader(args[0])
			result, err := app.NewAnalysisService(cfg).AnalyzeFile(reader)
			if err != nil {
				return err
			}

			switch format {
			case "markdown":
				fmt.Fprint(cmd.OutOrStdout(), report.BuildMarkdown(result))
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result.Wire())
			default:
				return fmt.Errorf("unknown format %q (want json or markdown)", format)
			}
			return nil
		},
	}

	defaults := curvefit.DefaultConfig()
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or markdown")
	cmd.Flags().StringVar(&weighting, "weighting", string(defaults.Weighting), "least-squares weighting: none or inverse_variance")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", defaults.MaxIterations, "optimizer iteration cap")
	cmd.Flags().Float64Var(&tolerance, "tolerance", defaults.Tolerance, "optimizer convergence tolerance")
	return cmd
}
