// Package manifest parses dependency manifests in requirements format.
package manifest

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// Requirement is a single declared dependency.
type Requirement struct {
	Name       string `json:"name" yaml:"name"`
	Extras     string `json:"extras,omitempty" yaml:"extras,omitempty"`
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Marker     string `json:"marker,omitempty" yaml:"marker,omitempty"`
}

// Spec renders the requirement back into installer syntax.
func (r Requirement) Spec() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.Extras != "" {
		b.WriteString("[" + r.Extras + "]")
	}
	b.WriteString(r.Constraint)
	if r.Marker != "" {
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Manifest is an ordered list of requirements. It is not modified after Load.
type Manifest struct {
	Path         string        `json:"path" yaml:"path"`
	Requirements []Requirement `json:"requirements" yaml:"requirements"`

	raw []byte
}

// Specs returns the installer arguments for every requirement, in order.
func (m *Manifest) Specs() []string {
	specs := make([]string, len(m.Requirements))
	for i, r := range m.Requirements {
		specs[i] = r.Spec()
	}
	return specs
}

// Empty reports whether the manifest declares no requirements.
func (m *Manifest) Empty() bool {
	return len(m.Requirements) == 0
}

// Fingerprint returns the hex-encoded sha256 of the manifest bytes.
func (m *Manifest) Fingerprint() string {
	return Digest(m.raw)
}

// Digest returns the hex-encoded sha256 of raw manifest bytes. It lets
// callers key a cache on a manifest without parsing it first.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Raw returns the bytes the manifest was parsed from.
func (m *Manifest) Raw() []byte {
	return m.raw
}

// ParseError describes a malformed or conflicting manifest line.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// name[extras] followed by the version constraint.
var requirementPattern = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([A-Za-z0-9._,\s-]*)\])?\s*(.*)$`)

// Constraint clauses such as "==1.2", ">=1, <2" or "~=3.0".
var constraintPattern = regexp.MustCompile(`^(?:(?:===|==|!=|~=|<=|>=|<|>)\s*[A-Za-z0-9.*+!_-]+)(?:\s*,\s*(?:===|==|!=|~=|<=|>=|<|>)\s*[A-Za-z0-9.*+!_-]+)*$`)

// utf8BOM is written by some editors at the start of text files.
var utf8BOM = []byte("\xef\xbb\xbf")

// Parse parses manifest content. Blank lines and comments are ignored.
// A name declared twice with different extras, constraints or markers is a
// conflict. The fingerprint covers data as given, including any BOM.
func Parse(path string, data []byte) (*Manifest, error) {
	m := &Manifest{Path: path, raw: data}
	seen := make(map[string]int)

	scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		req, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Path: path, Line: lineNo, Message: err.Error()}
		}

		key := NormalizeName(req.Name)
		if idx, ok := seen[key]; ok {
			prev := m.Requirements[idx]
			if !sameExtras(prev.Extras, req.Extras) || prev.Constraint != req.Constraint || prev.Marker != req.Marker {
				return nil, &ParseError{
					Path:    path,
					Line:    lineNo,
					Message: fmt.Sprintf("conflicting requirements for %s: %q and %q", req.Name, prev.Spec(), req.Spec()),
				}
			}
			continue
		}
		seen[key] = len(m.Requirements)
		m.Requirements = append(m.Requirements, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func stripComment(line string) string {
	if idx := strings.Index(line, "#"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

func parseLine(line string) (Requirement, error) {
	if strings.HasPrefix(line, "-") {
		return Requirement{}, fmt.Errorf("installer options are not supported: %q", line)
	}

	var marker string
	if idx := strings.Index(line, ";"); idx >= 0 {
		marker = strings.TrimSpace(line[idx+1:])
		line = strings.TrimSpace(line[:idx])
		if marker == "" {
			return Requirement{}, fmt.Errorf("empty environment marker")
		}
	}

	m := requirementPattern.FindStringSubmatch(line)
	if m == nil {
		return Requirement{}, fmt.Errorf("malformed requirement: %q", line)
	}

	constraint := strings.TrimSpace(m[3])
	if constraint != "" && !constraintPattern.MatchString(constraint) {
		return Requirement{}, fmt.Errorf("malformed version constraint for %s: %q", m[1], constraint)
	}

	return Requirement{
		Name:       m[1],
		Extras:     normalizeExtras(m[2]),
		Constraint: strings.Join(strings.Fields(constraint), ""),
		Marker:     marker,
	}, nil
}

func normalizeExtras(extras string) string {
	if extras == "" {
		return ""
	}
	parts := strings.Split(extras, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

// sameExtras compares extras lists ignoring order and case.
func sameExtras(a, b string) bool {
	return extrasKey(a) == extrasKey(b)
}

func extrasKey(extras string) string {
	if extras == "" {
		return ""
	}
	parts := strings.Split(strings.ToLower(extras), ",")
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// NormalizeName folds a distribution name so that "Flask_Login",
// "flask-login" and "flask.login" compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "-"))
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)
