package parser

import (
	"context"
	"fmt"
	"iter"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ParseResult holds the result of parsing a Python file.
type ParseResult struct {
	// The path of the file as it was passed to the Parse function.
	File string

	// The import statements in source order, one entry per imported name.
	Imports []*ImportStatement
}

// ImportStatement corresponds to a single imported name in a Python file.
//
// `import a, b` yields two statements, as does `from m import a, b`.
type ImportStatement struct {
	// module is the dotted module path. It is nil for `from . import x`.
	module *Identifier

	// level is the number of leading dots of a relative import.
	level int

	// name is the imported name of a from-import, nil for a plain import
	// and for a wildcard import.
	name *Identifier

	// alias is the name bound by `as`, or "".
	alias string

	isFrom bool
	isStar bool

	// 1-based line of the statement.
	line int
}

// Module returns the module being imported or imported from, or nil for
// `from . import x`.
func (i *ImportStatement) Module() *Identifier {
	return i.module
}

// Level returns the number of leading dots of a relative import, 0 for an
// absolute import.
func (i *ImportStatement) Level() int {
	return i.level
}

// Name returns the name imported by a from-import.
func (i *ImportStatement) Name() *Identifier {
	return i.name
}

func (i *ImportStatement) Alias() string {
	return i.alias
}

func (i *ImportStatement) IsFrom() bool {
	return i.isFrom
}

// IsStarImport returns true for `from m import *`.
func (i *ImportStatement) IsStarImport() bool {
	return i.isStar
}

func (i *ImportStatement) Line() int {
	return i.line
}

// ModuleLiteral returns the module the statement is placed by, including the
// leading dots of a relative import. This is the string isort assigns a
// section to.
func (i *ImportStatement) ModuleLiteral() string {
	s := strings.Repeat(".", i.level)
	if i.module != nil {
		s += i.module.Literal()
	}
	return s
}

// String returns the statement as it could appear in Python source code.
func (i *ImportStatement) String() string {
	var s string
	switch {
	case !i.isFrom:
		s = "import " + i.ModuleLiteral()
	case i.isStar:
		return "from " + i.ModuleLiteral() + " import *"
	default:
		s = "from " + i.ModuleLiteral() + " import " + i.name.Literal()
	}
	if i.alias != "" {
		s += " as " + i.alias
	}
	return s
}

// Identifier is a dotted Python name such as "os.path".
type Identifier struct {
	parts []string
}

// NewIdentifier returns an [Identifier] from its dotted literal.
func NewIdentifier(dotted string) (*Identifier, error) {
	parts := strings.Split(dotted, ".")
	for _, part := range parts {
		if !pythonIdentifierRegexp.MatchString(part) {
			return nil, fmt.Errorf("NewIdentifier only supports dotted identifiers; %q doesn't match %s", dotted, pythonIdentifierRegexp)
		}
	}
	return &Identifier{parts}, nil
}

// Parent returns this identifier with the last dot-delimited component
// removed, or nil for an identifier without a dot.
func (i *Identifier) Parent() *Identifier {
	if len(i.parts) <= 1 {
		return nil
	}
	return &Identifier{i.parts[0 : len(i.parts)-1]}
}

// Root returns the first component, the top level package.
func (i *Identifier) Root() string {
	return i.parts[0]
}

// Parts returns the dot-delimited components.
func (i *Identifier) Parts() []string {
	return append([]string(nil), i.parts...)
}

// Literal returns the identifier as it appears in Python source code.
func (i *Identifier) Literal() string {
	return strings.Join(i.parts, ".")
}

var pythonIdentifierRegexp = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

type Parser interface {
	Parse(filePath, source string) (*ParseResult, []error)
}

type treeSitterParser struct {
	Parser
}

func NewParser() Parser {
	p := treeSitterParser{}

	return &p
}

func (p *treeSitterParser) Parse(filePath, source string) (*ParseResult, []error) {
	result := &ParseResult{
		File: filePath,
	}

	errs := make([]error, 0)

	sourceCode := []byte(source)

	sp := sitter.NewParser()
	sp.SetLanguage(python.GetLanguage())
	tree, err := sp.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to parse %q: %w", filePath, err))
		return result, errs
	}

	rootNode := tree.RootNode()

	// Imports may appear anywhere: inside try blocks, conditionals and
	// function bodies.
	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		for child := range namedChildren(node) {
			switch child.Type() {
			case "import_statement":
				result.Imports = append(result.Imports, readImportStatement(child, sourceCode)...)
			case "import_from_statement":
				result.Imports = append(result.Imports, readImportFromStatement(child, sourceCode)...)
			case "future_import_statement":
				result.Imports = append(result.Imports, readFutureImportStatement(child, sourceCode)...)
			default:
				visit(child)
			}
		}
	}
	visit(rootNode)

	if rootNode.HasError() {
		for _, e := range collectParseErrors(rootNode, source) {
			errs = append(errs, fmt.Errorf("%s: %s", filePath, e))
		}
	}

	return result, errs
}

func lineOf(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

/*
Structure of import_statement for "import os.path as osp, sys":

	import_statement
	  aliased_import
	    name: dotted_name (identifier "os") (identifier "path")
	    alias: identifier "osp"
	  dotted_name (identifier "sys")
*/
func readImportStatement(node *sitter.Node, sourceCode []byte) []*ImportStatement {
	var out []*ImportStatement
	for child := range namedChildren(node) {
		id, alias := readImportedName(child, sourceCode)
		if id == nil {
			continue
		}
		out = append(out, &ImportStatement{
			module: id,
			alias:  alias,
			line:   lineOf(node),
		})
	}
	return out
}

/*
Structure of import_from_statement for "from ..pkg import a as b, c":

	import_from_statement
	  module_name: relative_import
	    import_prefix ".."
	    dotted_name (identifier "pkg")
	  name: aliased_import
	    name: dotted_name (identifier "a")
	    alias: identifier "b"
	  name: dotted_name (identifier "c")
*/
func readImportFromStatement(node *sitter.Node, sourceCode []byte) []*ImportStatement {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}

	var module *Identifier
	level := 0
	switch moduleNode.Type() {
	case "relative_import":
		for child := range namedChildren(moduleNode) {
			switch child.Type() {
			case "import_prefix":
				level = strings.Count(child.Content(sourceCode), ".")
			case "dotted_name":
				module = readIdentifier(child, sourceCode)
			}
		}
	case "dotted_name":
		module = readIdentifier(moduleNode, sourceCode)
	}

	var out []*ImportStatement
	for child := range namedChildren(node) {
		if child.StartByte() == moduleNode.StartByte() {
			continue
		}
		if child.Type() == "wildcard_import" {
			out = append(out, &ImportStatement{
				module: module,
				level:  level,
				isFrom: true,
				isStar: true,
				line:   lineOf(node),
			})
			continue
		}
		name, alias := readImportedName(child, sourceCode)
		if name == nil {
			continue
		}
		out = append(out, &ImportStatement{
			module: module,
			level:  level,
			name:   name,
			alias:  alias,
			isFrom: true,
			line:   lineOf(node),
		})
	}
	return out
}

var futureModule = &Identifier{[]string{"__future__"}}

func readFutureImportStatement(node *sitter.Node, sourceCode []byte) []*ImportStatement {
	var out []*ImportStatement
	for child := range namedChildren(node) {
		name, alias := readImportedName(child, sourceCode)
		if name == nil {
			continue
		}
		out = append(out, &ImportStatement{
			module: futureModule,
			name:   name,
			alias:  alias,
			isFrom: true,
			line:   lineOf(node),
		})
	}
	return out
}

// readImportedName reads a dotted_name or aliased_import node. Other nodes,
// such as comments, yield a nil identifier.
func readImportedName(node *sitter.Node, sourceCode []byte) (*Identifier, string) {
	switch node.Type() {
	case "dotted_name":
		return readIdentifier(node, sourceCode), ""
	case "aliased_import":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return nil, ""
		}
		alias := ""
		if aliasNode := node.ChildByFieldName("alias"); aliasNode != nil {
			alias = aliasNode.Content(sourceCode)
		}
		return readIdentifier(nameNode, sourceCode), alias
	}
	return nil, ""
}

func readIdentifier(node *sitter.Node, sourceCode []byte) *Identifier {
	if node.Type() == "identifier" {
		return &Identifier{[]string{node.Content(sourceCode)}}
	}

	var parts []string
	for child := range namedChildren(node) {
		if child.Type() == "identifier" {
			parts = append(parts, child.Content(sourceCode))
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return &Identifier{parts}
}

// errQuery matches every syntax error in a tree.
var errQuery = mustNewQuery("(ERROR) @error")

// collectParseErrors renders each syntax error as its source line with a
// caret under the offending column. Tokens the grammar expected but did not
// find are MISSING nodes rather than ERROR nodes, so they are found by
// walking the tree.
func collectParseErrors(rootNode *sitter.Node, source string) []string {
	lines := strings.Split(source, "\n")

	render := func(msg string, at sitter.Point) string {
		row, col := int(at.Row), int(at.Column)

		line := ""
		if row < len(lines) {
			line = lines[row]
		}

		pre := fmt.Sprintf("     %d: ", row+1)
		arw := strings.Repeat(" ", len(pre)+col) + "^"
		return msg + "\n" + pre + line + "\n" + arw
	}

	var errs []string
	for m := range matches(errQuery, rootNode) {
		errs = append(errs, render("syntax error", m.Captures[0].Node.StartPoint()))
	}
	for n := range missingNodes(rootNode) {
		errs = append(errs, render(fmt.Sprintf("syntax error: expected %q", n.Type()), n.StartPoint()))
	}

	if len(errs) == 0 {
		errs = append(errs, "syntax error")
	}
	return errs
}

func missingNodes(node *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		var walk func(n *sitter.Node) bool
		walk = func(n *sitter.Node) bool {
			if n.IsMissing() {
				return yield(n)
			}
			if !n.HasError() {
				return true
			}
			for i := 0; i < int(n.ChildCount()); i++ {
				if !walk(n.Child(i)) {
					return false
				}
			}
			return true
		}
		walk(node)
	}
}

func mustNewQuery(query string) *sitter.Query {
	q, err := sitter.NewQuery([]byte(query), python.GetLanguage())
	if err != nil {
		panic(err)
	}
	return q
}

func matches(query *sitter.Query, node *sitter.Node) iter.Seq[*sitter.QueryMatch] {
	return func(yield func(*sitter.QueryMatch) bool) {
		qc := sitter.NewQueryCursor()
		defer qc.Close()
		qc.Exec(query, node)
		for {
			m, ok := qc.NextMatch()
			if !ok {
				break
			}
			if !yield(m) {
				break
			}
		}
	}
}

func namedChildren(node *sitter.Node) iter.Seq[*sitter.Node] {
	return func(yield func(*sitter.Node) bool) {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if !yield(node.NamedChild(i)) {
				return
			}
		}
	}
}
