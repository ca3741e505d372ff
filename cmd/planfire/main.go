package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/planfire/retirement-planner/internal/calculation"
	"github.com/planfire/retirement-planner/internal/config"
	"github.com/planfire/retirement-planner/internal/domain"
	"github.com/planfire/retirement-planner/internal/output"
	"github.com/planfire/retirement-planner/internal/pricefeed"
	"github.com/planfire/retirement-planner/internal/tax"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	inputFile   string
	formatName  string
	verbose     bool
	fetchPrices bool
	saveReport  bool
	numTrials   int
	mcSeed      int64

	logger = logrus.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planfire",
		Short: "Deterministic and probabilistic retirement planning",
		Long: `planfire projects a household's net worth year by year from a YAML plan
file: multi-account portfolio growth, tax-aware withdrawals, liability
amortization with BTC-collateral management, life events and goals.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			logger.SetLevel(logrus.InfoLevel)
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&inputFile, "input", "i", "", "path to the plan YAML file (required)")
	rootCmd.PersistentFlags().StringVarP(&formatName, "format", "f", "console", "output format: console, csv, json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fetchPrices, "fetch-prices", false, "fetch the BTC spot price when the plan file omits it")
	rootCmd.PersistentFlags().BoolVar(&saveReport, "save", false, "write the report to a timestamped file instead of stdout")

	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Run the deterministic yearly projection",
		RunE:  runProject,
	}

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "Run the Monte Carlo simulation",
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&numTrials, "trials", calculation.DefaultNumTrials, "number of Monte Carlo trials")
	mcCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 picks one)")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve for earliest retirement age and max sustainable spending",
		RunE:  runSolve,
	}

	rootCmd.AddCommand(projectCmd, mcCmd, solveCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func buildEngine() (*calculation.Engine, error) {
	engine := calculation.NewEngine(tax.NewCalculator())
	engine.SetLogger(logger)
	return engine, nil
}

func loadInput() (*domain.PlanInput, error) {
	if inputFile == "" {
		return nil, fmt.Errorf("--input is required")
	}
	parser := config.NewInputParser()
	input, err := parser.LoadFromFile(inputFile)
	if err != nil {
		return nil, err
	}

	if input.BTCSpotPrice.IsZero() && fetchPrices {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider := pricefeed.NewCoinGeckoProvider()
		price, asOf, err := provider.GetPrice(ctx, "BTC")
		if err != nil {
			logger.Warnf("price fetch failed, using fallback: %v", err)
		} else {
			logger.Infof("fetched BTC spot price %s (as of %s)", price.StringFixed(2), asOf.Format(time.RFC3339))
			input.BTCSpotPrice = price
		}
	}
	return input, nil
}

func emit(report *output.Report) error {
	formatter := output.GetFormatterByName(formatName)
	if formatter == nil {
		return fmt.Errorf("unknown format %q, available: %v", formatName, output.FormatterNames())
	}
	if saveReport {
		filename, err := output.WriteFormatted(formatter, report, formatExtension(formatter.Name()))
		if err != nil {
			return fmt.Errorf("writing report failed: %w", err)
		}
		logger.Infof("report written to %s", filename)
		return nil
	}
	data, err := formatter.Format(report)
	if err != nil {
		return fmt.Errorf("formatting failed: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func formatExtension(name string) string {
	switch name {
	case "json":
		return "json"
	case "csv":
		return "csv"
	default:
		return "txt"
	}
}

func runProject(cmd *cobra.Command, args []string) error {
	input, err := loadInput()
	if err != nil {
		return err
	}
	engine, err := buildEngine()
	if err != nil {
		return err
	}

	projection, err := engine.RunProjection(input)
	if err != nil {
		return fmt.Errorf("projection failed: %w", err)
	}
	return emit(&output.Report{GeneratedAt: time.Now(), Projection: projection})
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	input, err := loadInput()
	if err != nil {
		return err
	}
	engine, err := buildEngine()
	if err != nil {
		return err
	}

	result, err := engine.RunMonteCarlo(input, calculation.MonteCarloConfig{NumTrials: numTrials, Seed: mcSeed})
	if err != nil {
		return fmt.Errorf("monte carlo failed: %w", err)
	}
	return emit(&output.Report{GeneratedAt: time.Now(), MonteCarlo: result})
}

func runSolve(cmd *cobra.Command, args []string) error {
	input, err := loadInput()
	if err != nil {
		return err
	}
	engine, err := buildEngine()
	if err != nil {
		return err
	}

	result, err := engine.SolveSustainability(input)
	if err != nil {
		return fmt.Errorf("solver failed: %w", err)
	}
	return emit(&output.Report{GeneratedAt: time.Now(), Solver: result})
}
