package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/dataflow/internal/domain"
)

// ErrUnsupportedGraphFile — файл графа не JSON и не YAML.
var ErrUnsupportedGraphFile = errors.New("graph file must be .json, .yaml or .yml")

// LoadGraph читает граф из JSON или YAML файла.
//
// YAML приводится к JSON, поэтому оба формата принимают узлы
// и в каноническом виде, и в виде React Flow.
func LoadGraph(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("convert %s to json: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGraphFile, filepath.Base(path))
	}

	var g domain.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &g, nil
}
