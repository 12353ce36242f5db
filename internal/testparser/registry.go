package testparser

import "strings"

// Registry maps output format names to their parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry with all built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	unittestParser := &UnittestParser{}
	pytestParser := &PytestParser{}

	r.parsers["unittest"] = unittestParser
	r.parsers["python"] = unittestParser
	r.parsers["pytest"] = pytestParser
	r.parsers["py.test"] = pytestParser

	return r
}

// GetParser returns the parser for a format name.
// Returns nil if no parser is found.
func (r *Registry) GetParser(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Detect picks a parser by looking at the output itself.
// Returns nil when the output matches no known format.
func (r *Registry) Detect(output string) Parser {
	switch {
	case looksLikePytest(output):
		return r.GetParser("pytest")
	case looksLikeUnittest(output):
		return r.GetParser("unittest")
	default:
		return nil
	}
}

// Parse parses output in the given format. "auto" detects the format,
// "none" and unknown formats return zero counts with Parsed=false.
func (r *Registry) Parse(format, output string) TestCounts {
	var p Parser
	switch strings.ToLower(format) {
	case "", "auto":
		p = r.Detect(output)
	case "none":
		return TestCounts{}
	default:
		p = r.GetParser(format)
	}
	if p == nil {
		return TestCounts{}
	}
	return p.Parse(output)
}

// RegisterParser adds a custom parser for a format name.
func (r *Registry) RegisterParser(format string, parser Parser) {
	r.parsers[strings.ToLower(format)] = parser
}
