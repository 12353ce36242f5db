package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadWithWarnings parses config data and returns any unknown field warnings.
func LoadWithWarnings(data []byte) (*Config, []string, error) {
	cfg, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}

	warnings := detectUnknownFields(data)

	return cfg, warnings, nil
}

// sections maps nested mapping keys to the struct that decodes them.
var sections = map[string]reflect.Type{
	"trigger":      reflect.TypeOf(TriggerConfig{}),
	"runtime":      reflect.TypeOf(RuntimeConfig{}),
	"dependencies": reflect.TypeOf(DependenciesConfig{}),
	"tests":        reflect.TypeOf(TestsConfig{}),
}

// detectUnknownFields compares the raw YAML mapping with known struct fields.
// It runs after a successful parse, so a decode failure here is unexpected.
func detectUnknownFields(data []byte) []string {
	var warnings []string

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	knownTopLevel := getYAMLFields(reflect.TypeOf(Config{}))
	for _, key := range sortedKeys(raw) {
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	for _, name := range sortedKeys(raw) {
		typ, ok := sections[name]
		if !ok {
			continue
		}
		node := raw[name]
		warnings = append(warnings, checkSection(name, &node, typ)...)
	}

	if tests, ok := raw["tests"]; ok {
		warnings = append(warnings, checkEntries(&tests)...)
	}

	return warnings
}

func checkSection(name string, node *yaml.Node, typ reflect.Type) []string {
	var fields map[string]yaml.Node
	if err := node.Decode(&fields); err != nil {
		return nil
	}

	var warnings []string
	known := getYAMLFields(typ)
	for _, key := range sortedKeys(fields) {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", key, name))
		}
	}
	return warnings
}

func checkEntries(tests *yaml.Node) []string {
	var section struct {
		Entries []map[string]yaml.Node `yaml:"entries"`
	}
	if err := tests.Decode(&section); err != nil {
		return nil
	}

	var warnings []string
	known := getYAMLFields(reflect.TypeOf(EntryConfig{}))
	for i, entry := range section.Entries {
		for _, key := range sortedKeys(entry) {
			if !known[key] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in tests.entries[%d] (ignored)", key, i))
			}
		}
	}
	return warnings
}

// getYAMLFields returns a map of known YAML field names for a struct type.
func getYAMLFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
