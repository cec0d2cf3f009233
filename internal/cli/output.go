package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/table"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output в stdout/stderr. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(os.Stdout, os.Stderr, jsonMode)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(w, errW io.Writer, jsonMode bool) *Output {
	return &Output{jsonMode: jsonMode, w: w, errW: errW}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// PrintRun выводит результат run.
//
// В JSON режиме — RunResult целиком (или сводка узла nodeID).
// В текстовом — журнал, таблица узлов и preview итогового узла
// (или узла nodeID).
func (o *Output) PrintRun(res *domain.RunResult, nodeID string) error {
	focus := res.FinalOutput
	if nodeID != "" {
		focus = res.Summary(nodeID)
		if focus == nil {
			return fmt.Errorf("node %q was not executed", nodeID)
		}
	}

	if o.jsonMode {
		if nodeID != "" {
			o.JSON(focus)
		} else {
			o.JSON(res)
		}
		return nil
	}

	for _, line := range res.Logs {
		fmt.Fprintln(o.w, line)
	}
	if len(res.Logs) > 0 {
		fmt.Fprintln(o.w)
	}

	headers := []string{"NODE", "KIND", "STATUS", "ROWS", "COLUMNS"}
	rows := make([][]string, 0, len(res.Order))
	for _, id := range res.Order {
		s := res.NodeOutputs[id]
		if s == nil {
			continue
		}
		rows = append(rows, []string{id, s.Kind, string(s.Status), strconv.Itoa(s.Rows), strconv.Itoa(len(s.Columns))})
	}
	o.Table(headers, rows)

	if focus != nil && len(focus.Preview) > 0 {
		fmt.Fprintln(o.w)
		o.Table(previewTable(focus))
	}
	return nil
}

// previewTable превращает preview сводки в строки для Table.
func previewTable(s *domain.NodeSummary) ([]string, [][]string) {
	rows := make([][]string, len(s.Preview))
	for i, rec := range s.Preview {
		row := make([]string, len(s.Columns))
		for j, col := range s.Columns {
			row[j] = table.ToString(rec[col])
		}
		rows[i] = row
	}
	return s.Columns, rows
}
