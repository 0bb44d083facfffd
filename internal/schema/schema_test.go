package schema_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"phiextract/internal/schema"
	"phiextract/internal/services"
)

const sampleSchema = `{
  "TipsProvider": [
    {"m_Level": 0, "m_Type": "MonoBehaviour", "m_Name": "Base", "m_MetaFlag": 0, "m_ByteSize": -1},
    {"m_Level": 1, "m_Type": "vector", "m_Name": "tips", "m_MetaFlag": 0},
    {"m_Level": 2, "m_Type": "Array", "m_Name": "Array", "m_MetaFlag": 16384}
  ],
  "GameInformation": [
    {"m_Level": 0, "m_Type": "MonoBehaviour", "m_Name": "Base"}
  ]
}`

func TestLoadParsesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typetree.json")
	if err := os.WriteFile(path, []byte(sampleSchema), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	s, err := schema.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	nodes, ok := s.Nodes("TipsProvider")
	if !ok {
		t.Fatal("expected TipsProvider entry")
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[2].Type != "Array" || nodes[2].Level != 2 || nodes[2].MetaFlag != 16384 {
		t.Fatalf("unexpected array node: %+v", nodes[2])
	}
	if names := s.Names(); len(names) != 2 || names[0] != "GameInformation" {
		t.Fatalf("unexpected names: %v", names)
	}
	if _, ok := s.Nodes("GetCollectionControl"); ok {
		t.Fatal("did not expect an entry for GetCollectionControl")
	}
}

func TestLoadMissingFileIsConfigurationError(t *testing.T) {
	_, err := schema.Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"invalid json": `{"GameInformation": [`,
		"not object":   `[1, 2, 3]`,
		"not list":     `{"GameInformation": {"m_Type": "x"}}`,
		"empty list":   `{"GameInformation": []}`,
		"missing type": `{"GameInformation": [{"m_Level": 0, "m_Name": "Base"}]}`,
		"bad root":     `{"GameInformation": [{"m_Level": 1, "m_Type": "int", "m_Name": "x"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := schema.Parse([]byte(body)); !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}
