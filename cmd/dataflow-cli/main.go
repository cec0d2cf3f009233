// Dataflow CLI — выполнение графов пайплайнов из файлов.
//
// Использование:
//
//	dataflow [--api-url URL] [--json] [--config FILE] <command> [flags]
//
// Команды:
//
//	run GRAPH_FILE  Выполнить граф (.json, .yaml)
//	ops             Список операций
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/dataflow/internal/cli"
	"github.com/shaiso/dataflow/internal/config"
	"github.com/shaiso/dataflow/internal/engine"
	"github.com/shaiso/dataflow/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var configPath string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "dataflow",
		Short:         "Dataflow CLI — run visual data pipelines from files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Execute through the API server at this URL instead of locally")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default $DATAFLOW_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Write engine logs to stderr")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	logger := func() *slog.Logger {
		if verbose {
			return telemetry.NewLogger(os.Stderr, "text")
		}
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	localEngine := func(uploadDir string) (*engine.Engine, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if uploadDir != "" {
			cfg.UploadDir = uploadDir
		}
		return engine.FromConfig(cfg, logger(), nil)
	}

	runnerFn := func(opts cli.RunOptions) (cli.Runner, error) {
		if apiURL != "" {
			return cli.NewClient(apiURL), nil
		}
		eng, err := localEngine(opts.UploadDir)
		if err != nil {
			return nil, err
		}
		return cli.LocalRunner{Engine: eng}, nil
	}

	listFn := func(ctx context.Context) ([]cli.OperationResponse, error) {
		if apiURL != "" {
			return cli.NewClient(apiURL).ListOperations(ctx)
		}
		eng, err := localEngine("")
		if err != nil {
			return nil, err
		}
		return cli.LocalOperations(eng.Registry()), nil
	}

	rootCmd.AddCommand(
		cli.NewRunCmd(runnerFn, outputFn),
		cli.NewOpsCmd(listFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
