package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/parser"
	"github.com/gnana997/ambient/pkg/parser/queries"
)

// Splitter parses declaration files and cuts them into blocks. It is safe
// for concurrent use when its managers are.
type Splitter struct {
	parsers *parser.ParserManager
	queries *queries.QueryManager
	logger  *slog.Logger
}

// NewSplitter creates a splitter on top of the given managers.
func NewSplitter(pm *parser.ParserManager, qm *queries.QueryManager, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Splitter{parsers: pm, queries: qm, logger: logger}
}

var (
	externsTag  = regexp.MustCompile(`(^|\s|\*)@externs\b`)
	overviewTag = regexp.MustCompile(`@fileoverview\b\s*([^@]*)`)
)

// Split parses content and returns the file's blocks in source order.
//
// Each top-level statement becomes one block (one per declarator for
// `var a, b;`). The doc comment is the `/** */` comment directly before the
// statement; any other comment in between detaches it. Comments carrying
// @fileoverview or @externs describe the file and attach to nothing.
func (s *Splitter) Split(path string, content []byte) (*DeclarationFile, error) {
	lang := parser.DetectLanguage(path)
	if lang == parser.LanguageUnknown {
		lang = parser.LanguageJavaScript
	}

	file := &DeclarationFile{
		Path:        path,
		Language:    lang,
		ContentHash: HashContent(content),
		Size:        len(content),
	}

	tree, err := s.parsers.Parse(content, lang)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	q, err := s.queries.GetQuery(lang, queries.QueryTypeDeclarations)
	if err != nil {
		return nil, err
	}
	matches, err := s.queries.ExecuteQuery(tree, q, content)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", path, err)
	}

	byStart := make(map[uint][]queries.QueryMatch)
	for _, m := range matches {
		if def, ok := m.Capture("definition"); ok {
			start := uint(def.Location.StartByte)
			byStart[start] = append(byStart[start], m)
		}
	}

	root := tree.RootNode()
	var doc string
	var docLine int
	for i := uint(0); i < root.NamedChildCount(); i++ {
		n := root.NamedChild(i)
		if n == nil {
			continue
		}
		switch n.Kind() {
		case "comment":
			text := n.Utf8Text(content)
			doc = ""
			if !strings.HasPrefix(text, "/**") || strings.HasPrefix(text, "/**/") {
				continue
			}
			if isFileComment(text) {
				file.Externs = file.Externs || externsTag.MatchString(text)
				if m := overviewTag.FindStringSubmatch(text); m != nil && file.Overview == "" {
					file.Overview = cleanOverview(m[1])
				}
				continue
			}
			doc, docLine = text, int(n.StartPosition().Row)+1
			continue
		case "empty_statement", "hashbang_comment":
			continue
		}

		group := byStart[n.StartByte()]
		if len(group) == 0 {
			file.Blocks = append(file.Blocks, Block{Doc: doc, DocLine: docLine, Stmt: otherStatement(n, content)})
		}
		for _, m := range group {
			stmt, ok := buildStatement(m, content)
			if !ok {
				stmt = otherStatement(n, content)
			}
			file.Blocks = append(file.Blocks, Block{Doc: doc, DocLine: docLine, Stmt: stmt})
		}
		doc = ""
	}

	s.logger.Debug("split declaration file",
		"path", path,
		"language", lang.String(),
		"blocks", len(file.Blocks),
		"externs", file.Externs)
	return file, nil
}

// HashContent returns the hex SHA-256 of content, as stored in
// DeclarationFile.ContentHash.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func isFileComment(text string) bool {
	return externsTag.MatchString(text) || strings.Contains(text, "@fileoverview")
}

func cleanOverview(s string) string {
	var words []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line != "" {
			words = append(words, line)
		}
	}
	return strings.Join(words, " ")
}

func buildStatement(m queries.QueryMatch, src []byte) (Statement, bool) {
	def, ok := m.Capture("definition")
	if !ok {
		return Statement{}, false
	}
	name, ok := m.Capture("name")
	if !ok {
		return Statement{}, false
	}
	decl, hasDecl := m.Capture("declarator")

	st := Statement{
		Line:   int(def.Location.StartLine),
		Column: int(def.Location.StartColumn),
		Text:   firstLine(def.Text),
	}

	switch m.Category() {
	case "var":
		st.Kind = StmtVar
		st.Path = []string{name.Text}
		st.Keyword = declarationKeyword(def.Text)
		if hasDecl {
			classifyValue(&st, decl.Node.ChildByFieldName("value"), src)
		}
	case "function":
		st.Kind = StmtFunction
		st.Path = []string{name.Text}
		st.Keyword = "function"
		st.Callable = true
		fn := def.Node
		if hasDecl {
			fn = decl.Node
		}
		st.Params = parameters(fn, src)
		if body := fn.ChildByFieldName("body"); body != nil {
			st.Body, st.BodyDetail = functionBody(body)
		}
	case "assign":
		path, ok := memberPath(name.Node, src)
		if !ok || !hasDecl {
			return Statement{}, false
		}
		st.Kind = StmtAssign
		st.Path = path
		classifyValue(&st, decl.Node.ChildByFieldName("right"), src)
	case "stub":
		path, ok := memberPath(name.Node, src)
		if !ok {
			return Statement{}, false
		}
		st.Kind = StmtStub
		st.Path = path
	default:
		return Statement{}, false
	}
	return st, true
}

func otherStatement(n *ts.Node, src []byte) Statement {
	detail := n.Kind()
	if n.IsError() {
		detail = "syntax error"
	}
	return Statement{
		Kind:       StmtOther,
		Body:       model.BodyImplementation,
		BodyDetail: detail,
		Line:       int(n.StartPosition().Row) + 1,
		Column:     int(n.StartPosition().Column) + 1,
		Text:       firstLine(n.Utf8Text(src)),
	}
}

func declarationKeyword(text string) string {
	fields := strings.Fields(text)
	if len(fields) > 0 && fields[0] == "declare" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// memberPath flattens `a.b.c` into its segments. Computed or private
// members do not name a declaration.
func memberPath(n *ts.Node, src []byte) ([]string, bool) {
	if n == nil {
		return nil, false
	}
	switch n.Kind() {
	case "identifier":
		return []string{n.Utf8Text(src)}, true
	case "member_expression":
		prop := n.ChildByFieldName("property")
		if prop == nil || prop.Kind() != "property_identifier" {
			return nil, false
		}
		owner, ok := memberPath(n.ChildByFieldName("object"), src)
		if !ok {
			return nil, false
		}
		return append(owner, prop.Utf8Text(src)), true
	default:
		return nil, false
	}
}

// classifyValue records what a declaration is initialised with.
func classifyValue(st *Statement, v *ts.Node, src []byte) {
	if v == nil {
		st.Body = model.BodyNone
		return
	}
	switch v.Kind() {
	case "parenthesized_expression":
		if inner := firstNamedChild(v); inner != nil {
			classifyValue(st, inner, src)
			return
		}
	case "function_expression", "function", "arrow_function", "generator_function":
		st.Callable = true
		st.Params = parameters(v, src)
		body := v.ChildByFieldName("body")
		if body == nil || body.Kind() != "statement_block" {
			st.Body, st.BodyDetail = model.BodyImplementation, "expression body"
			return
		}
		st.Body, st.BodyDetail = functionBody(body)
		return
	case "object":
		if countMembers(v) == 0 {
			st.Body = model.BodyNamespace
			return
		}
	}
	if isLiteral(v) {
		st.Body = model.BodyLiteral
		return
	}
	st.Body = model.BodyImplementation
	st.BodyDetail = v.Kind()
}

func functionBody(body *ts.Node) (model.BodyKind, string) {
	if countMembers(body) == 0 {
		return model.BodyEmptyFunction, ""
	}
	return model.BodyImplementation, "function body"
}

// isLiteral accepts constant values: scalars, negated numbers, and arrays
// or object literals made only of those.
func isLiteral(n *ts.Node) bool {
	switch n.Kind() {
	case "number", "string", "true", "false", "null", "undefined", "regex":
		return true
	case "template_string":
		return !hasChildKind(n, "template_substitution")
	case "unary_expression":
		arg := n.ChildByFieldName("argument")
		return arg != nil && isLiteral(arg)
	case "parenthesized_expression":
		inner := firstNamedChild(n)
		return inner != nil && isLiteral(inner)
	case "array":
		return allNamed(n, isLiteral)
	case "object":
		return allNamed(n, func(c *ts.Node) bool {
			if c.Kind() != "pair" {
				return false
			}
			key := c.ChildByFieldName("key")
			val := c.ChildByFieldName("value")
			return key != nil && key.Kind() != "computed_property_name" && val != nil && isLiteral(val)
		})
	}
	return false
}

func parameters(fn *ts.Node, src []byte) []StatementParam {
	list := fn.ChildByFieldName("parameters")
	if list == nil {
		// `x => ...` has a single bare parameter.
		if p := fn.ChildByFieldName("parameter"); p != nil {
			return []StatementParam{{Name: p.Utf8Text(src)}}
		}
		return nil
	}
	var params []StatementParam
	for i := uint(0); i < list.NamedChildCount(); i++ {
		c := list.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		params = append(params, parameter(c, src))
	}
	return params
}

func parameter(n *ts.Node, src []byte) StatementParam {
	switch n.Kind() {
	case "assignment_pattern":
		if left := n.ChildByFieldName("left"); left != nil {
			return parameter(left, src)
		}
	case "rest_pattern":
		if inner := firstNamedChild(n); inner != nil {
			p := parameter(inner, src)
			p.Rest = true
			return p
		}
	case "required_parameter", "optional_parameter":
		if pat := n.ChildByFieldName("pattern"); pat != nil {
			return parameter(pat, src)
		}
	}
	return StatementParam{Name: n.Utf8Text(src)}
}

// countMembers counts named children that are not comments.
func countMembers(n *ts.Node) int {
	count := 0
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && c.Kind() != "comment" {
			count++
		}
	}
	return count
}

func allNamed(n *ts.Node, pred func(*ts.Node) bool) bool {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() == "comment" {
			continue
		}
		if !pred(c) {
			return false
		}
	}
	return true
}

func firstNamedChild(n *ts.Node) *ts.Node {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && c.Kind() != "comment" {
			return c
		}
	}
	return nil
}

func hasChildKind(n *ts.Node, kind string) bool {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if c := n.NamedChild(i); c != nil && c.Kind() == kind {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
