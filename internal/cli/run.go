package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/dataflow/internal/domain"
)

// ErrRunFailed — граф не выполнялся (пустой граф, некорректные ID).
var ErrRunFailed = errors.New("run failed")

// Runner выполняет граф: локально или через API.
type Runner interface {
	Execute(ctx context.Context, graph *domain.Graph) (*domain.RunResult, error)
}

// Engine — локальный движок (*engine.Engine).
type Engine interface {
	Execute(ctx context.Context, nodes []domain.Node, edges []domain.Edge) *domain.RunResult
}

// LocalRunner выполняет граф в процессе CLI.
type LocalRunner struct {
	Engine Engine
}

// Execute выполняет граф локальным движком.
func (r LocalRunner) Execute(ctx context.Context, graph *domain.Graph) (*domain.RunResult, error) {
	return r.Engine.Execute(ctx, graph.Nodes, graph.Edges), nil
}

// RunOptions — флаги команды run, от которых зависит выбор Runner.
type RunOptions struct {
	UploadDir string
}

// NewRunCmd создаёт команду run.
func NewRunCmd(runnerFn func(RunOptions) (Runner, error), outputFn func() *Output) *cobra.Command {
	var opts RunOptions
	var nodeID string

	cmd := &cobra.Command{
		Use:   "run GRAPH_FILE",
		Short: "Execute a pipeline graph (.json or .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := LoadGraph(args[0])
			if err != nil {
				return err
			}

			runner, err := runnerFn(opts)
			if err != nil {
				return err
			}

			res, err := runner.Execute(cmd.Context(), graph)
			if err != nil {
				return err
			}

			if err := out.PrintRun(res, nodeID); err != nil {
				return err
			}
			if res.Status == domain.RunStatusError {
				return fmt.Errorf("%w: %s", ErrRunFailed, res.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeID, "node", "", "Show the result of this node instead of the final one")
	cmd.Flags().StringVar(&opts.UploadDir, "upload-dir", "", "Directory with uploaded files (local mode)")

	return cmd
}
