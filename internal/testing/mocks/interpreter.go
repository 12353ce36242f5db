package mocks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Interpreter writes a shell script that behaves enough like a Python
// interpreter for testrig: it answers --version, creates virtual
// environments with "-m venv", records "-m pip install" calls and runs
// test scripts through /bin/sh.
// Use NewInterpreter() to create instances with a fluent builder API.
type Interpreter struct {
	name         string
	version      string
	failVenv     bool
	unresolvable []string

	path string
	log  string
}

// NewInterpreter creates a fake interpreter that reports version 3.10.12.
func NewInterpreter(name string) *Interpreter {
	return &Interpreter{name: name, version: "3.10.12"}
}

// WithVersion sets the version printed by --version.
func (f *Interpreter) WithVersion(v string) *Interpreter {
	f.version = v
	return f
}

// WithVenvFailure makes "-m venv" fail.
func (f *Interpreter) WithVenvFailure() *Interpreter {
	f.failVenv = true
	return f
}

// WithUnresolvable makes "-m pip install" fail when asked for any of names.
func (f *Interpreter) WithUnresolvable(names ...string) *Interpreter {
	f.unresolvable = append(f.unresolvable, names...)
	return f
}

// Install writes the script into dir and returns its path.
func (f *Interpreter) Install(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	f.path = filepath.Join(dir, f.name)
	f.log = filepath.Join(dir, f.name+".pip.log")
	if err := os.WriteFile(f.path, []byte(f.script()), 0755); err != nil {
		return "", err
	}
	return f.path, nil
}

// Path returns the installed script path.
func (f *Interpreter) Path() string { return f.path }

// PipCalls returns the argument lists of every "-m pip" invocation, one
// space-joined string per call.
func (f *Interpreter) PipCalls() ([]string, error) {
	data, err := os.ReadFile(f.log)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (f *Interpreter) script() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("case \"$1\" in\n")
	b.WriteString("--version)\n")
	fmt.Fprintf(&b, "\techo \"Python %s\"\n", f.version)
	b.WriteString("\t;;\n")
	b.WriteString("-m)\n")
	b.WriteString("\tcase \"$2\" in\n")
	b.WriteString("\tvenv)\n")
	if f.failVenv {
		b.WriteString("\t\techo \"Error: ensurepip is not available\" >&2\n")
		b.WriteString("\t\tmkdir -p \"$3\"\n")
		b.WriteString("\t\texit 1\n")
	} else {
		b.WriteString("\t\tmkdir -p \"$3/bin\" && cp \"$0\" \"$3/bin/python\" && chmod +x \"$3/bin/python\"\n")
	}
	b.WriteString("\t\t;;\n")
	b.WriteString("\tpip)\n")
	b.WriteString("\t\tshift 2\n")
	fmt.Fprintf(&b, "\t\techo \"$*\" >> '%s'\n", f.log)
	if len(f.unresolvable) > 0 {
		b.WriteString("\t\tfor arg in \"$@\"; do\n")
		b.WriteString("\t\t\tcase \"$arg\" in\n")
		for _, name := range f.unresolvable {
			fmt.Fprintf(&b, "\t\t\t'%s'|'%s'[!A-Za-z0-9._-]*)\n", name, name)
			b.WriteString("\t\t\t\techo \"ERROR: No matching distribution found for $arg\" >&2\n")
			b.WriteString("\t\t\t\texit 1\n")
			b.WriteString("\t\t\t\t;;\n")
		}
		b.WriteString("\t\t\tesac\n")
		b.WriteString("\t\tdone\n")
	}
	b.WriteString("\t\techo \"Successfully installed $*\"\n")
	b.WriteString("\t\t;;\n")
	b.WriteString("\t*)\n")
	b.WriteString("\t\techo \"No module named $2\" >&2\n")
	b.WriteString("\t\texit 1\n")
	b.WriteString("\t\t;;\n")
	b.WriteString("\tesac\n")
	b.WriteString("\t;;\n")
	b.WriteString("*)\n")
	b.WriteString("\texec /bin/sh \"$@\"\n")
	b.WriteString("\t;;\n")
	b.WriteString("esac\n")
	return b.String()
}
