// Package odl parses PDS3 "Object Description Language" catalog labels
// (MISSION.CAT, HOST.CAT, INSTRUMENT.CAT, DATASET.CAT, VOLDESC.CAT,
// REF.CAT, PERSONNEL.CAT) into the typed objects in pkg/models.
package odl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var odlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
	{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
	{Name: "Date", Pattern: `\d{4}-\d{2}-\d{2}(?:T[0-9:.]+Z?)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_:^]*`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?(?:[eE][-+]?\d+)?`},
	{Name: "Punct", Pattern: `[=(){},]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Value is an ODL scalar, string, or parenthesized sequence value.
type Value struct {
	String *string  `parser:"(  @String"`
	Date   *string  `parser:" | @Date"`
	Number *float64 `parser:" | @Number"`
	Seq    []*Value `parser:" | \"(\" ( @@ (\",\" @@)* )? \")\""`
	Symbol *string  `parser:" | @Ident )"`
}

// Assignment is one KEYWORD = VALUE pair.
type Assignment struct {
	Key   string `parser:"@Ident \"=\""`
	Value *Value `parser:"@@"`
}

// Block is an OBJECT = NAME ... END_OBJECT = NAME or
// GROUP = NAME ... END_GROUP = NAME nested section.
type Block struct {
	Kind  string       `parser:"@(\"OBJECT\" | \"GROUP\") \"=\""`
	Name  string       `parser:"@Ident"`
	Body  []*Statement `parser:"@@*"`
	_     string       `parser:"(\"END_OBJECT\" | \"END_GROUP\") \"=\" Ident"`
}

// Statement is one line of an ODL label: either a nested block or a
// scalar assignment.
type Statement struct {
	Block      *Block      `parser:"(  @@"`
	Assignment *Assignment `parser:" | @@ )"`
}

// Label is a full parsed ODL document: a flat sequence of top-level
// statements, exactly as the PDS3 catalog files are laid out.
type Label struct {
	Statements []*Statement `parser:"@@*"`
}

var odlParser = participle.MustBuild[Label](
	participle.Lexer(odlLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)
