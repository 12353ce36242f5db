package schema

import (
	"encoding/json"
	"io/fs"
	"strings"
	"testing"
)

// TestEmbeddedSchemasAreValidJSON catches malformed schema files at test time
// rather than at first use.
func TestEmbeddedSchemasAreValidJSON(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	schemaCount := 0
	for _, entry := range entries {
		entry := entry
		if !strings.HasSuffix(entry.Name(), ".schema.json") {
			continue
		}
		schemaCount++

		t.Run(entry.Name(), func(t *testing.T) {
			t.Parallel()

			data, err := FS.ReadFile(entry.Name())
			if err != nil {
				t.Fatalf("failed to read %s: %v", entry.Name(), err)
			}

			var v map[string]interface{}
			if err := json.Unmarshal(data, &v); err != nil {
				t.Fatalf("%s is not a valid JSON object: %v", entry.Name(), err)
			}
			if _, ok := v["$schema"]; !ok {
				t.Errorf("%s missing $schema field", entry.Name())
			}
			if _, ok := v["type"]; !ok {
				t.Errorf("%s missing type field", entry.Name())
			}
		})
	}

	if schemaCount == 0 {
		t.Error("no schema files found in embedded FS")
	}
}

func TestConfigSchemaStages(t *testing.T) {
	t.Parallel()

	data, err := FS.ReadFile("config.schema.json")
	if err != nil {
		t.Fatalf("config.schema.json not embedded: %v", err)
	}

	var schema struct {
		Properties struct {
			Stages struct {
				Items struct {
					Enum []string `json:"enum"`
				} `json:"items"`
			} `json:"stages"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatal(err)
	}

	want := []string{"checkout", "provision", "install", "run"}
	got := schema.Properties.Stages.Items.Enum
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("stage enum = %v, want %v", got, want)
	}
}
