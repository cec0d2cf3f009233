package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/dataflow/internal/ops"
)

// LocalOperations описывает операции реестра так же, как API.
func LocalOperations(r *ops.Registry) []OperationResponse {
	kinds := r.Kinds()
	out := make([]OperationResponse, 0, len(kinds))
	for _, kind := range kinds {
		op, err := r.Get(kind)
		if err != nil {
			continue
		}
		out = append(out, OperationResponse{
			Kind:     op.Kind(),
			Category: string(op.Category()),
			Display:  op.Category() == ops.CategoryDisplay,
			Inputs:   op.Category().NeedsInput(),
			Aliases:  r.Aliases(op.Kind()),
		})
	}
	return out
}

// NewOpsCmd создаёт команду ops — список доступных операций.
func NewOpsCmd(listFn func(ctx context.Context) ([]OperationResponse, error), outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List available operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			operations, err := listFn(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"KIND", "CATEGORY", "DISPLAY", "ALIASES"}
			rows := make([][]string, len(operations))
			for i, op := range operations {
				display := ""
				if op.Display {
					display = "yes"
				}
				rows[i] = []string{op.Kind, op.Category, display, strings.Join(op.Aliases, ", ")}
			}

			outputFn().Print(headers, rows, operations)
			return nil
		},
	}
}
