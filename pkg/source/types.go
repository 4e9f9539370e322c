package source

import (
	"github.com/gnana997/ambient/pkg/model"
	"github.com/gnana997/ambient/pkg/parser"
)

// StatementKind classifies a top-level statement of a declaration file.
type StatementKind int

const (
	// StmtVar is `var x;`, `let x = ...;` or `declare var x;`.
	StmtVar StatementKind = iota
	// StmtFunction is a function declaration or signature.
	StmtFunction
	// StmtAssign is `a.b.c = value;`.
	StmtAssign
	// StmtStub is a bare `a.b.c;` property stub.
	StmtStub
	// StmtOther is any statement that does not declare anything.
	StmtOther
)

func (k StatementKind) String() string {
	switch k {
	case StmtVar:
		return "var"
	case StmtFunction:
		return "function"
	case StmtAssign:
		return "assign"
	case StmtStub:
		return "stub"
	case StmtOther:
		return "other"
	default:
		return "invalid"
	}
}

// StatementParam is a parameter as written in the declaration source.
type StatementParam struct {
	Name string
	Rest bool
}

// Statement is the declaration part of a block.
type Statement struct {
	Kind StatementKind

	// Path is the declared name split at dots, e.g.
	// ["Console", "prototype", "assert"].
	Path []string

	// Keyword is var, let, const or function. Empty for assignments.
	Keyword string

	// Callable is set when the declaration is a function or is initialised
	// with a function value.
	Callable bool
	Params   []StatementParam

	Body model.BodyKind

	// BodyDetail names the construct that made Body an implementation, or
	// the statement kind for StmtOther.
	BodyDetail string

	Line   int
	Column int
	Text   string
}

// Block pairs a statement with the doc comment immediately preceding it.
type Block struct {
	Doc     string
	DocLine int
	Stmt    Statement
}

// DeclarationFile is one loaded externs source, split into blocks.
type DeclarationFile struct {
	Path     string
	Language parser.Language

	// Externs is set when a file-level comment carries @externs.
	Externs bool

	// Overview is the @fileoverview text, if any.
	Overview string

	ContentHash string
	Size        int
	Blocks      []Block
}
