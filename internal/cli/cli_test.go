package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/domain"
	"github.com/shaiso/dataflow/internal/ops"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGraph(t *testing.T) {
	jsonPath := writeFile(t, "g.json", `{
		"nodes": [
			{"id": "a", "kind": "read_data", "config": {"path": "x.csv"}},
			{"id": "b", "data": {"typeLabel": "Sort Data", "config": {"column": "x"}}}
		],
		"edges": [{"source": "a", "target": "b"}]
	}`)
	yamlPath := writeFile(t, "g.yaml", `
nodes:
  - id: a
    kind: read_data
    config:
      path: x.csv
  - id: b
    data:
      typeLabel: Sort Data
      config:
        column: x
edges:
  - source: a
    target: b
`)

	for _, path := range []string{jsonPath, yamlPath} {
		g, err := LoadGraph(path)
		require.NoError(t, err, path)

		require.Len(t, g.Nodes, 2)
		assert.Equal(t, "read_data", g.Nodes[0].Kind)
		assert.Equal(t, "x.csv", g.Nodes[0].Config["path"])
		assert.Equal(t, "Sort Data", g.Nodes[1].Kind)
		assert.Equal(t, []domain.Edge{{Source: "a", Target: "b"}}, g.Edges)
	}
}

func TestLoadGraph_Errors(t *testing.T) {
	_, err := LoadGraph(writeFile(t, "g.txt", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedGraphFile)

	_, err = LoadGraph(writeFile(t, "g.yml", "nodes: [\n"))
	assert.Error(t, err)

	_, err = LoadGraph(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func sampleResult() *domain.RunResult {
	final := &domain.NodeSummary{
		ID: "sort", Kind: "sort", Status: domain.NodeStatusSucceeded,
		Rows: 2, Columns: []string{"City", "Sales"},
		Preview: []map[string]any{
			{"City": "Paris", "Sales": 10.0},
			{"City": "Rome", "Sales": nil},
		},
	}
	return &domain.RunResult{
		RunID:  "r1",
		Status: domain.RunStatusSuccess,
		Logs:   []string{"[Step read] Loaded 2 rows from cities.csv (40 B)"},
		Order:  []string{"read", "sort"},
		NodeOutputs: map[string]*domain.NodeSummary{
			"read": {ID: "read", Kind: "ingest", Status: domain.NodeStatusSucceeded, Rows: 2, Columns: []string{"City", "Sales"}},
			"sort": final,
		},
		FinalOutput: final,
	}
}

func TestPrintRun_Text(t *testing.T) {
	var out bytes.Buffer
	o := NewOutputTo(&out, &bytes.Buffer{}, false)

	require.NoError(t, o.PrintRun(sampleResult(), ""))

	text := out.String()
	assert.Contains(t, text, "[Step read] Loaded 2 rows")
	assert.Contains(t, text, "NODE")
	assert.Regexp(t, `read\s+ingest\s+succeeded\s+2\s+2`, text)
	assert.Regexp(t, `Paris\s+10`, text)
}

func TestPrintRun_JSON(t *testing.T) {
	var out bytes.Buffer
	o := NewOutputTo(&out, &bytes.Buffer{}, true)

	require.NoError(t, o.PrintRun(sampleResult(), "read"))

	var s domain.NodeSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.Equal(t, "read", s.ID)

	assert.Error(t, o.PrintRun(sampleResult(), "ghost"))
}

type fakeRunner struct {
	got *domain.Graph
	res *domain.RunResult
}

func (f *fakeRunner) Execute(_ context.Context, g *domain.Graph) (*domain.RunResult, error) {
	f.got = g
	return f.res, nil
}

func TestRunCmd(t *testing.T) {
	path := writeFile(t, "g.json", `{"nodes": [{"id": "read", "kind": "read_data"}], "edges": []}`)
	runner := &fakeRunner{res: sampleResult()}
	var gotOpts RunOptions
	var out bytes.Buffer

	cmd := NewRunCmd(func(opts RunOptions) (Runner, error) {
		gotOpts = opts
		return runner, nil
	}, func() *Output { return NewOutputTo(&out, &bytes.Buffer{}, false) })
	cmd.SetArgs([]string{path, "--upload-dir", "/data/uploads"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "/data/uploads", gotOpts.UploadDir)
	assert.Equal(t, "read", runner.got.Nodes[0].ID)
	assert.Contains(t, out.String(), "Paris")
}

func TestRunCmd_FailedRun(t *testing.T) {
	path := writeFile(t, "g.json", `{"nodes": []}`)
	runner := &fakeRunner{res: &domain.RunResult{Status: domain.RunStatusError, Message: "Empty Workflow"}}

	cmd := NewRunCmd(func(RunOptions) (Runner, error) { return runner, nil },
		func() *Output { return NewOutputTo(&bytes.Buffer{}, &bytes.Buffer{}, false) })
	cmd.SetArgs([]string{path})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	assert.ErrorIs(t, err, ErrRunFailed)
	assert.Contains(t, err.Error(), "Empty Workflow")
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/execute":
			var g domain.Graph
			if err := json.NewDecoder(r.Body).Decode(&g); err != nil || len(g.Nodes) != 1 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error": {"code": "BAD_REQUEST", "message": "bad graph"}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"data": sampleResult()})
		case "/api/v1/runs":
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error": {"code": "SERVICE_UNAVAILABLE", "message": "run queue is not available"}}`))
		case "/api/v1/operations":
			w.Write([]byte(`{"data": [{"kind": "sort", "category": "transform", "needs_input": true}], "total": 1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	res, err := c.Execute(ctx, &domain.Graph{Nodes: []domain.Node{{ID: "read", Kind: "read_data"}}})
	require.NoError(t, err)
	assert.Equal(t, "r1", res.RunID)
	assert.Equal(t, 2, res.FinalOutput.Rows)

	_, err = c.Execute(ctx, &domain.Graph{})
	assert.EqualError(t, err, "BAD_REQUEST: bad graph")

	_, err = c.SubmitRun(ctx, &domain.Graph{})
	assert.EqualError(t, err, "SERVICE_UNAVAILABLE: run queue is not available")

	operations, err := c.ListOperations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []OperationResponse{{Kind: "sort", Category: "transform", Inputs: true}}, operations)
}

func TestOpsCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := NewOpsCmd(func(context.Context) ([]OperationResponse, error) {
		return LocalOperations(ops.DefaultRegistry(ops.Deps{})), nil
	}, func() *Output { return NewOutputTo(&out, &bytes.Buffer{}, false) })
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())

	lines := strings.Split(out.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "KIND"))
	assert.Regexp(t, `(?m)^pivot_table\s+display\s+yes\s+pivot`, out.String())
	assert.Regexp(t, `(?m)^filter_rows\s+transform\s+filter`, out.String())
}
