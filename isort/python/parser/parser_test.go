package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var testCases = []struct {
	desc, py string
	want     parseResultComparable
}{
	{
		desc: "plain",
		py: `import os
import os.path as osp, sys
`,
		want: parseResultComparable{
			File: "plain.py",
			Imports: []importComparable{
				{Module: "os", Line: 1},
				{Module: "os.path", Alias: "osp", Line: 2},
				{Module: "sys", Line: 2},
			},
		},
	},
	{
		desc: "from",
		py: `from a.b import c, d as e
from x import *
`,
		want: parseResultComparable{
			File: "from.py",
			Imports: []importComparable{
				{Module: "a.b", Name: "c", IsFrom: true, Line: 1},
				{Module: "a.b", Name: "d", Alias: "e", IsFrom: true, Line: 1},
				{Module: "x", IsFrom: true, IsStar: true, Line: 2},
			},
		},
	},
	{
		desc: "relative",
		py: `from . import sibling
from ..pkg.mod import thing
`,
		want: parseResultComparable{
			File: "relative.py",
			Imports: []importComparable{
				{Module: ".", Name: "sibling", IsFrom: true, Line: 1},
				{Module: "..pkg.mod", Name: "thing", IsFrom: true, Line: 2},
			},
		},
	},
	{
		desc: "future",
		py: `"""Docstring."""
from __future__ import annotations
`,
		want: parseResultComparable{
			File: "future.py",
			Imports: []importComparable{
				{Module: "__future__", Name: "annotations", IsFrom: true, Line: 2},
			},
		},
	},
	{
		desc: "parenthesized",
		py: `from a import (
    b,
    c,  # trailing
)
`,
		want: parseResultComparable{
			File: "parenthesized.py",
			Imports: []importComparable{
				{Module: "a", Name: "b", IsFrom: true, Line: 1},
				{Module: "a", Name: "c", IsFrom: true, Line: 1},
			},
		},
	},
	{
		desc: "nested",
		py: `try:
    import ujson as json
except ImportError:
    import json


def load():
    import yaml
    return yaml
`,
		want: parseResultComparable{
			File: "nested.py",
			Imports: []importComparable{
				{Module: "ujson", Alias: "json", Line: 2},
				{Module: "json", Line: 4},
				{Module: "yaml", Line: 8},
			},
		},
	},
	{
		desc: "empty",
		py:   "",
		want: parseResultComparable{
			File:    "empty.py",
			Imports: []importComparable{},
		},
	},
	{
		desc: "no imports",
		py: `def main():
    print("import os")
`,
		want: parseResultComparable{
			File:    "noimports.py",
			Imports: []importComparable{},
		},
	},
}

func TestTreesitterParser(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			res, errs := NewParser().Parse(tc.want.File, tc.py)
			if len(errs) > 0 {
				t.Fatalf("unexpected parse errors: %v", errs)
			}

			if diff := cmp.Diff(tc.want, makeComparable(res), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("unexpected diff (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestSyntaxErrors(t *testing.T) {
	testCases := []struct {
		desc, py    string
		wantInError string
		wantImports []string
	}{
		{
			desc:        "missing token",
			py:          "import os\ndef broken(:\n    pass\n",
			wantInError: `expected ")"`,
			wantImports: []string{"import os"},
		},
		{
			desc:        "unexpected token",
			py:          "import os\nx = = 1\nimport sys\n",
			wantInError: "syntax error",
			wantImports: []string{"import os"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			res, errs := NewParser().Parse("broken.py", tc.py)
			if res == nil {
				t.Fatalf("result should be returned alongside errors")
			}
			if len(errs) == 0 {
				t.Fatalf("syntax error should be reported")
			}

			found := false
			for _, err := range errs {
				msg := err.Error()
				if !strings.HasPrefix(msg, "broken.py: syntax error") {
					t.Errorf("unexpected error message: %q", msg)
				}
				if strings.Contains(msg, tc.wantInError) && strings.Contains(msg, "^") {
					found = true
				}
			}
			if !found {
				t.Errorf("no error with %q and a caret in %v", tc.wantInError, errs)
			}

			// Imports before the error survive recovery.
			got := map[string]bool{}
			for _, imp := range res.Imports {
				got[imp.String()] = true
			}
			for _, want := range tc.wantImports {
				if !got[want] {
					t.Errorf("%q not found in %v", want, got)
				}
			}
		})
	}
}

func TestString(t *testing.T) {
	res, _ := NewParser().Parse("s.py", `import a.b as c
from ..x import y as z
from m import *
`)
	var got []string
	for _, imp := range res.Imports {
		got = append(got, imp.String())
	}
	want := []string{"import a.b as c", "from ..x import y as z", "from m import *"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diff (-want, +got):\n%s", diff)
	}
}

func TestIdentifier(t *testing.T) {
	id, err := NewIdentifier("a.b.c")
	if err != nil {
		t.Fatal(err)
	}
	if got := id.Parent().Literal(); got != "a.b" {
		t.Errorf("Parent() = %q", got)
	}
	if got := id.Root(); got != "a" {
		t.Errorf("Root() = %q", got)
	}
	if id.Parent().Parent().Parent() != nil {
		t.Errorf("root identifier should have no parent")
	}

	for _, bad := range []string{"", ".a", "a..b", "1a", "a-b"} {
		if _, err := NewIdentifier(bad); err == nil {
			t.Errorf("NewIdentifier(%q) should fail", bad)
		}
	}
}

type parseResultComparable struct {
	File    string
	Imports []importComparable
}

type importComparable struct {
	Module string
	Name   string
	Alias  string
	IsFrom bool
	IsStar bool
	Line   int
}

func makeComparable(result *ParseResult) parseResultComparable {
	comparable := parseResultComparable{
		File: result.File,
	}
	for _, imp := range result.Imports {
		name := ""
		if imp.Name() != nil {
			name = imp.Name().Literal()
		}
		comparable.Imports = append(comparable.Imports, importComparable{
			Module: imp.ModuleLiteral(),
			Name:   name,
			Alias:  imp.Alias(),
			IsFrom: imp.IsFrom(),
			IsStar: imp.IsStarImport(),
			Line:   imp.Line(),
		})
	}
	return comparable
}
