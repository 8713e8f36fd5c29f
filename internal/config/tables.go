package config

import (
	"fmt"
	"os"

	"github.com/elliotchance/orderedmap/v2"
	"gopkg.in/yaml.v3"
)

// TableSpec represents one replicated table: where it is read from and
// where dbt materializes it.
type TableSpec struct {
	SourceProject string `yaml:"source_project"`
	SourceDataset string `yaml:"source_dataset"`
	SourceTable   string `yaml:"source_table"`
	TargetDataset string `yaml:"target_dataset"`
	TargetTable   string `yaml:"target_table"`
}

// TableRecord pairs a model name with its table specification.
type TableRecord struct {
	Name string
	Spec TableSpec
}

// TableSet holds the models of one environment in file order.
// File order is the dispatch order, so it must survive parsing.
type TableSet struct {
	models *orderedmap.OrderedMap[string, TableSpec]
}

// LoadTables reads an environment's table configuration file.
// The file maps model names to table specifications; the top-level key
// order of the YAML document is preserved.
func LoadTables(path string) (*TableSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables parses table configuration YAML, preserving key order.
func ParseTables(data []byte) (*TableSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}

	ts := &TableSet{models: orderedmap.NewOrderedMap[string, TableSpec]()}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty document: an empty, valid table set.
		return ts, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tables file must be a mapping of model name to fields, got %s", nodeKind(root))
	}

	// Mapping node content alternates key, value.
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valueNode := root.Content[i+1]

		name := keyNode.Value
		if name == "" {
			return nil, fmt.Errorf("line %d: model name must not be empty", keyNode.Line)
		}

		var spec TableSpec
		if err := valueNode.Decode(&spec); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}

		if !ts.models.Set(name, spec) {
			return nil, fmt.Errorf("line %d: duplicate model %q", keyNode.Line, name)
		}
	}

	return ts, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.MappingNode:
		return "a mapping"
	default:
		return "an unknown node"
	}
}

// Len returns the number of models in the set.
func (ts *TableSet) Len() int {
	return ts.models.Len()
}

// Names returns model names in file order.
func (ts *TableSet) Names() []string {
	return ts.models.Keys()
}

// Get returns the table specification for a model.
func (ts *TableSet) Get(name string) (TableSpec, bool) {
	return ts.models.Get(name)
}

// Records returns all models in file order.
func (ts *TableSet) Records() []TableRecord {
	records := make([]TableRecord, 0, ts.models.Len())
	for el := ts.models.Front(); el != nil; el = el.Next() {
		records = append(records, TableRecord{Name: el.Key, Spec: el.Value})
	}
	return records
}
