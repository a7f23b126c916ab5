package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/plexc/compiler"
)

const counterYAML = `
kind: Plan
children:
  - kind: VariableDeclaration
    text: count
    children:
      - {kind: TypeName, text: Integer}
      - {kind: IntegerLiteral, text: "0"}
  - kind: Action
    text: Loop
    children:
      - kind: Do
        children:
          - kind: Action
            text: Body
            children:
              - kind: Assignment
                children:
                  - {kind: Variable, text: count}
                  - kind: Operator
                    text: "+"
                    children:
                      - {kind: Variable, text: count}
                      - {kind: IntegerLiteral, text: "1"}
          - kind: Operator
            text: "<"
            children:
              - {kind: Variable, text: count}
              - {kind: IntegerLiteral, text: "10"}
`

const counterText = `Integer count = 0;
Loop: do {
  Body: count = count + 1;
} while (count < 10);
`

const brokenYAML = `
kind: Plan
children:
  - kind: VariableDeclaration
    text: spare
    children: [{kind: TypeName, text: Integer}]
  - kind: Action
    text: Root
    children:
      - kind: Assignment
        children:
          - {kind: Variable, text: missing}
          - {kind: IntegerLiteral, text: "1"}
`

// project creates a directory with a plexc.toml and the given files.
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["plexc.toml"] = "[store]\npath = \"diag.db\"\n"
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// run executes the CLI in dir and returns stdout, stderr and the error.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"-C", dir}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCompileThenDecompile(t *testing.T) {
	dir := project(t, map[string]string{"counter.yaml": counterYAML})
	src := filepath.Join(dir, "counter.yaml")
	out := filepath.Join(dir, "counter.xml")

	if _, stderr, err := run(t, dir, "compile", src, "-o", out); err != nil {
		t.Fatalf("compile: %v\n%s", err, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<PlexilPlan ID="n1"`) {
		t.Errorf("unexpected XML:\n%s", data)
	}

	stdout, _, err := run(t, dir, "decompile", out)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != counterText {
		t.Errorf("decompile:\n%s\nwant:\n%s", stdout, counterText)
	}

	stdout, _, err = run(t, dir, "decompile", "--indent", "\t", out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "\n\tBody: count = count + 1;\n") {
		t.Errorf("indent flag ignored:\n%s", stdout)
	}
}

func TestCompile_CBORAndDigest(t *testing.T) {
	dir := project(t, map[string]string{"counter.yaml": counterYAML})
	src := filepath.Join(dir, "counter.yaml")
	xmlOut := filepath.Join(dir, "a.xml")
	cborOut := filepath.Join(dir, "b.cbor")

	if _, _, err := run(t, dir, "compile", src, "-o", xmlOut); err != nil {
		t.Fatal(err)
	}
	if _, _, err := run(t, dir, "compile", src, "-f", "cbor", "-o", cborOut); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, dir, "decompile", cborOut)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != counterText {
		t.Errorf("decompile cbor:\n%s", stdout)
	}

	stdout, _, err = run(t, dir, "digest", xmlOut, cborOut)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("digest output:\n%s", stdout)
	}
	a, b := strings.Fields(lines[0]), strings.Fields(lines[1])
	if len(a[0]) != 64 || a[0] != b[0] {
		t.Errorf("digests differ:\n%s", stdout)
	}
}

func TestCompile_UnknownFormat(t *testing.T) {
	dir := project(t, map[string]string{"counter.yaml": counterYAML})
	_, _, err := run(t, dir, "compile", filepath.Join(dir, "counter.yaml"), "-f", "json")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("err = %v", err)
	}
}

func TestCheck_ReportsAndArchives(t *testing.T) {
	dir := project(t, map[string]string{"broken.yaml": brokenYAML})
	src := filepath.Join(dir, "broken.yaml")

	stdout, stderr, err := run(t, dir, "check", "--archive", src)
	if !errors.Is(err, compiler.ErrCheckFailed) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stdout, `variable "missing" is not declared`) {
		t.Errorf("missing error:\n%s", stdout)
	}
	if !strings.Contains(stdout, `variable "spare" is declared but never used`) {
		t.Errorf("missing warning:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 error, 1 warning") {
		t.Errorf("missing summary:\n%s", stdout)
	}

	_, id, ok := strings.Cut(strings.TrimSpace(stderr), "archived run ")
	if !ok {
		t.Fatalf("no run id in stderr:\n%s", stderr)
	}

	stdout, _, err = run(t, dir, "runs")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, id) || !strings.Contains(stdout, src) {
		t.Errorf("runs:\n%s", stdout)
	}

	stdout, _, err = run(t, dir, "runs", "show", id)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, `variable "missing" is not declared`) {
		t.Errorf("runs show:\n%s", stdout)
	}

	stdout, _, err = run(t, dir, "runs", "prune", src, "--keep", "0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "removed 1 run") {
		t.Errorf("prune:\n%s", stdout)
	}
}

func TestCheck_Clean(t *testing.T) {
	dir := project(t, map[string]string{"counter.yaml": counterYAML})
	stdout, _, err := run(t, dir, "check", filepath.Join(dir, "counter.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "no problems") {
		t.Errorf("stdout:\n%s", stdout)
	}
}

func TestCompile_RefusesOnErrors(t *testing.T) {
	dir := project(t, map[string]string{"broken.yaml": brokenYAML})
	out := filepath.Join(dir, "broken.xml")
	_, stderr, err := run(t, dir, "compile", filepath.Join(dir, "broken.yaml"), "-o", out)
	if !errors.Is(err, compiler.ErrCheckFailed) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(stderr, "not declared") {
		t.Errorf("stderr:\n%s", stderr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("output written despite errors")
	}
}

func TestDecompile_PatternFailure(t *testing.T) {
	dir := project(t, map[string]string{
		"bad.xml": `<PlexilPlan><Node><NodeId>X</NodeId></Node></PlexilPlan>`,
	})
	_, _, err := run(t, dir, "decompile", filepath.Join(dir, "bad.xml"))
	if err == nil || !strings.Contains(err.Error(), "decompiler: <Node>") {
		t.Errorf("err = %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "plexc.toml"), []byte("[output]\nformat = \"yaml\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := run(t, dir, "digest", "whatever.xml")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("err = %v", err)
	}
}
