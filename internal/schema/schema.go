package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/tidwall/gjson"

	"phiextract/internal/assets"
	"phiextract/internal/services"
)

// Schema maps a script name to the typetree nodes describing its layout.
// A Schema is immutable once loaded.
type Schema struct {
	entries map[string][]assets.Node
}

// Load reads the schema definition file. A missing file or a file that is not
// a JSON object of node lists is a configuration error.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "schema", "load", fmt.Sprintf("schema file %s not found", path), err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "schema", "load", "read schema file", err)
	}
	return Parse(data)
}

// Parse decodes schema definitions from raw JSON.
func Parse(data []byte) (*Schema, error) {
	if !gjson.ValidBytes(data) {
		return nil, services.Wrap(services.ErrConfiguration, "schema", "parse", "schema file is not valid JSON", nil)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, services.Wrap(services.ErrConfiguration, "schema", "parse", "schema file must contain an object keyed by script name", nil)
	}

	entries := make(map[string][]assets.Node)
	var parseErr error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		nodes, err := parseNodes(value)
		if err != nil {
			parseErr = services.Wrap(services.ErrConfiguration, "schema", "parse", fmt.Sprintf("entry %q", name), err)
			return false
		}
		entries[name] = nodes
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return &Schema{entries: entries}, nil
}

func parseNodes(value gjson.Result) ([]assets.Node, error) {
	if !value.IsArray() {
		return nil, errors.New("expected a list of typetree nodes")
	}
	items := value.Array()
	if len(items) == 0 {
		return nil, errors.New("node list is empty")
	}
	nodes := make([]assets.Node, 0, len(items))
	for i, item := range items {
		typ := item.Get("m_Type")
		name := item.Get("m_Name")
		if !typ.Exists() || !name.Exists() {
			return nil, fmt.Errorf("node %d: m_Type and m_Name are required", i)
		}
		nodes = append(nodes, assets.Node{
			Level:    int(item.Get("m_Level").Int()),
			Type:     typ.String(),
			Name:     name.String(),
			MetaFlag: int32(item.Get("m_MetaFlag").Int()),
		})
	}
	if nodes[0].Level != 0 {
		return nil, errors.New("first node must be the root (m_Level 0)")
	}
	return nodes, nil
}

// Nodes returns the node list registered under name.
func (s *Schema) Nodes(name string) ([]assets.Node, bool) {
	if s == nil {
		return nil, false
	}
	nodes, ok := s.entries[name]
	return nodes, ok
}

// Names lists the registered entries in sorted order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
