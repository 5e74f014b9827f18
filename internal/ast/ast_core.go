// Package ast defines the concrete syntax tree produced by internal/parser.
// It deliberately mirrors source structure closely (concrete, not desugared);
// internal/hir lowers this into the desugared Expr/Pat IR the rest of the
// engine actually analyzes, per the split spec.md draws between the parser
// and the semantic engine.
package ast

import "github.com/funvibe/funxy/internal/token"

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
	Token() token.Token
	String() string
	Accept(v Visitor) any
}

// Statement is a node that can appear in a block's statement list.
type Statement interface {
	Node
	stmtNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	exprNode()
}

// Pattern is a node that appears in a binding position (let, match arm,
// function parameter, for-loop variable).
type Pattern interface {
	Node
	patNode()
}

// TypeExpr is a node in type position.
type TypeExpr interface {
	Node
	typeNode()
}

// Item is a top-level or module-level declaration.
type Item interface {
	Node
	itemNode()
}

// Visitor is implemented by tree walkers (pretty-printer, lowering passes,
// the syntax-highlighter). Each method returns an untyped result so a single
// interface can serve folds as well as side-effecting walks.
type Visitor interface {
	VisitProgram(*Program) any
	VisitModDecl(*ModDecl) any
	VisitUseDecl(*UseDecl) any
	VisitStructDecl(*StructDecl) any
	VisitEnumDecl(*EnumDecl) any
	VisitTraitDecl(*TraitDecl) any
	VisitImplDecl(*ImplDecl) any
	VisitFunctionDecl(*FunctionDecl) any
	VisitConstDecl(*ConstDecl) any
	VisitStaticDecl(*StaticDecl) any
	VisitMacroRulesDecl(*MacroRulesDecl) any
	VisitTypeAliasDecl(*TypeAliasDecl) any

	VisitIdentifier(*Identifier) any
	VisitIntegerLiteral(*IntegerLiteral) any
	VisitFloatLiteral(*FloatLiteral) any
	VisitStringLiteral(*StringLiteral) any
	VisitCharLiteral(*CharLiteral) any
	VisitBoolLiteral(*BoolLiteral) any
	VisitPathExpr(*PathExpr) any
	VisitBinaryExpr(*BinaryExpr) any
	VisitUnaryExpr(*UnaryExpr) any
	VisitRefExpr(*RefExpr) any
	VisitCallExpr(*CallExpr) any
	VisitMethodCallExpr(*MethodCallExpr) any
	VisitFieldExpr(*FieldExpr) any
	VisitIndexExpr(*IndexExpr) any
	VisitTupleExpr(*TupleExpr) any
	VisitArrayExpr(*ArrayExpr) any
	VisitStructLiteralExpr(*StructLiteralExpr) any
	VisitClosureExpr(*ClosureExpr) any
	VisitIfExpr(*IfExpr) any
	VisitIfLetExpr(*IfLetExpr) any
	VisitMatchExpr(*MatchExpr) any
	VisitWhileExpr(*WhileExpr) any
	VisitWhileLetExpr(*WhileLetExpr) any
	VisitForExpr(*ForExpr) any
	VisitLoopExpr(*LoopExpr) any
	VisitBlockExpr(*BlockExpr) any
	VisitAssignExpr(*AssignExpr) any
	VisitReturnExpr(*ReturnExpr) any
	VisitBreakExpr(*BreakExpr) any
	VisitContinueExpr(*ContinueExpr) any
	VisitTryExpr(*TryExpr) any
	VisitRangeExpr(*RangeExpr) any
	VisitMacroCallExpr(*MacroCallExpr) any

	VisitLetStmt(*LetStmt) any
	VisitExprStmt(*ExprStmt) any
	VisitItemStmt(*ItemStmt) any

	VisitIdentPattern(*IdentPattern) any
	VisitWildcardPattern(*WildcardPattern) any
	VisitLiteralPattern(*LiteralPattern) any
	VisitTuplePattern(*TuplePattern) any
	VisitStructPattern(*StructPattern) any
	VisitPathPattern(*PathPattern) any
	VisitRestPattern(*RestPattern) any
	VisitRefPattern(*RefPattern) any

	VisitPathType(*PathType) any
	VisitRefType(*RefType) any
	VisitTupleType(*TupleType) any
	VisitArrayType(*ArrayType) any
	VisitSliceType(*SliceType) any
	VisitFnType(*FnType) any
	VisitNeverType(*NeverType) any
	VisitInferType(*InferType) any
}

// Base embeds common bookkeeping every node needs; concrete node types embed
// it instead of repeating the Tok/String plumbing.
type Base struct {
	Tok token.Token
}

func (b Base) Token() token.Token     { return b.Tok }
func (b Base) TokenLiteral() string   { return b.Tok.Lexeme }

// Attribute models a `#[...]` item attribute, e.g. `#[path = "foo.rs"]`.
type Attribute struct {
	Base
	Name string
	Args []string
}

// GenericParam is one entry of a `<T, U: Bound>` parameter list.
type GenericParam struct {
	Base
	Name   string
	Bounds []TypeExpr
}

// Field is one struct field declaration.
type Field struct {
	Base
	Name string
	Type TypeExpr
	Pub  bool
}

// Param is one function parameter.
type Param struct {
	Base
	Pattern Pattern
	Type    TypeExpr
	IsSelf  bool
	SelfRef bool
}

// Program is the root node of one parsed file.
type Program struct {
	Base
	Items []Item
}

func (p *Program) String() string    { return "Program" }
func (p *Program) Accept(v Visitor) any { return v.VisitProgram(p) }

// ModDecl is `mod name;` (file-backed) or `mod name { ... }` (inline).
type ModDecl struct {
	Base
	Name       string
	Attrs      []Attribute
	Items      []Item // nil for file-backed modules; populated for inline ones
	PathOverride string // from #[path = "..."], empty if absent
	Pub        bool
}

func (m *ModDecl) String() string      { return "mod " + m.Name }
func (m *ModDecl) Accept(v Visitor) any { return v.VisitModDecl(m) }
func (m *ModDecl) itemNode()           {}

// UseTree is one segment of a `use` path, including `{a, b}` group imports
// and `as` renames.
type UseTree struct {
	Segments []string
	Alias    string // renamed-to name, empty if none
	Glob     bool   // `use foo::*`
	Group    []*UseTree
}

// UseDecl is a `use ...;` import declaration.
type UseDecl struct {
	Base
	Tree *UseTree
	Pub  bool
}

func (u *UseDecl) String() string      { return "use" }
func (u *UseDecl) Accept(v Visitor) any { return v.VisitUseDecl(u) }
func (u *UseDecl) itemNode()           {}

// StructDecl declares a struct (named-field or tuple form).
type StructDecl struct {
	Base
	Name       string
	Generics   []GenericParam
	Fields     []Field
	TupleField []TypeExpr // non-nil for tuple structs, mutually exclusive with Fields
	Pub        bool
}

func (s *StructDecl) String() string      { return "struct " + s.Name }
func (s *StructDecl) Accept(v Visitor) any { return v.VisitStructDecl(s) }
func (s *StructDecl) itemNode()           {}

// EnumVariant is one arm of an enum declaration.
type EnumVariant struct {
	Base
	Name       string
	TupleField []TypeExpr
	Fields     []Field
}

// EnumDecl declares a sum type.
type EnumDecl struct {
	Base
	Name     string
	Generics []GenericParam
	Variants []EnumVariant
	Pub      bool
}

func (e *EnumDecl) String() string      { return "enum " + e.Name }
func (e *EnumDecl) Accept(v Visitor) any { return v.VisitEnumDecl(e) }
func (e *EnumDecl) itemNode()           {}

// TraitDecl declares a trait (interface) with default and required methods.
type TraitDecl struct {
	Base
	Name       string
	Generics   []GenericParam
	SuperTraits []TypeExpr
	Methods    []*FunctionDecl
	AssocTypes []string
	Pub        bool
}

func (t *TraitDecl) String() string      { return "trait " + t.Name }
func (t *TraitDecl) Accept(v Visitor) any { return v.VisitTraitDecl(t) }
func (t *TraitDecl) itemNode()           {}

// ImplDecl is `impl Trait for Type { ... }` or an inherent `impl Type { ... }`.
type ImplDecl struct {
	Base
	Generics  []GenericParam
	Trait     TypeExpr // nil for an inherent impl
	SelfType  TypeExpr
	Methods   []*FunctionDecl
	AssocType map[string]TypeExpr
}

func (i *ImplDecl) String() string      { return "impl" }
func (i *ImplDecl) Accept(v Visitor) any { return v.VisitImplDecl(i) }
func (i *ImplDecl) itemNode()           {}

// FunctionDecl declares a function or method.
type FunctionDecl struct {
	Base
	Name     string
	Generics []GenericParam
	Params   []Param
	RetType  TypeExpr // nil means unit
	Body     *BlockExpr // nil for a trait method with no default body
	Pub      bool
	IsAsync  bool
}

func (f *FunctionDecl) String() string      { return "fn " + f.Name }
func (f *FunctionDecl) Accept(v Visitor) any { return v.VisitFunctionDecl(f) }
func (f *FunctionDecl) itemNode()           {}

// ConstDecl declares a `const NAME: T = expr;` item.
type ConstDecl struct {
	Base
	Name  string
	Type  TypeExpr
	Value Expression
	Pub   bool
}

func (c *ConstDecl) String() string      { return "const " + c.Name }
func (c *ConstDecl) Accept(v Visitor) any { return v.VisitConstDecl(c) }
func (c *ConstDecl) itemNode()           {}

// StaticDecl declares a `static NAME: T = expr;` item.
type StaticDecl struct {
	Base
	Name  string
	Type  TypeExpr
	Value Expression
	Mut   bool
	Pub   bool
}

func (s *StaticDecl) String() string      { return "static " + s.Name }
func (s *StaticDecl) Accept(v Visitor) any { return v.VisitStaticDecl(s) }
func (s *StaticDecl) itemNode()           {}

// TypeAliasDecl declares `type Name = T;`.
type TypeAliasDecl struct {
	Base
	Name     string
	Generics []GenericParam
	Target   TypeExpr
	Pub      bool
}

func (t *TypeAliasDecl) String() string      { return "type " + t.Name }
func (t *TypeAliasDecl) Accept(v Visitor) any { return v.VisitTypeAliasDecl(t) }
func (t *TypeAliasDecl) itemNode()           {}

// MacroRule is one `(pattern) => { template };` arm of a macro_rules!
// definition. Matching is token-tree based, not parsed further here.
type MacroRule struct {
	PatternTokens  []token.Token
	TemplateTokens []token.Token
}

// MacroRulesDecl declares a `macro_rules! name { ... }` item.
type MacroRulesDecl struct {
	Base
	Name  string
	Rules []MacroRule
}

func (m *MacroRulesDecl) String() string      { return "macro_rules! " + m.Name }
func (m *MacroRulesDecl) Accept(v Visitor) any { return v.VisitMacroRulesDecl(m) }
func (m *MacroRulesDecl) itemNode()           {}

// ItemStmt wraps an Item so it can appear in a block's statement list (Rust
// allows local `fn`/`struct`/`use` declarations inside function bodies).
type ItemStmt struct {
	Base
	Item Item
}

func (s *ItemStmt) String() string      { return s.Item.String() }
func (s *ItemStmt) Accept(v Visitor) any { return v.VisitItemStmt(s) }
func (s *ItemStmt) stmtNode()          {}

// Identifier is a bare name used as an expression (before path resolution
// decides what it refers to).
type Identifier struct {
	Base
	Name string
}

func (i *Identifier) String() string      { return i.Name }
func (i *Identifier) Accept(v Visitor) any { return v.VisitIdentifier(i) }
func (i *Identifier) exprNode()           {}
