package ast

// Terse constructors used by tests and embedding hosts. The parser builds
// nodes directly; these exist so a tree can be written by hand without the
// struct-literal noise.

func Num(v float64) *NumberLiteral { return &NumberLiteral{Value: v} }

func Word(v string) *WordLiteral { return &WordLiteral{Value: v} }

func Yep() *TruthLiteral { return &TruthLiteral{Value: "yep"} }

func Nope() *TruthLiteral { return &TruthLiteral{Value: "nope"} }

func Dunno() *TruthLiteral { return &TruthLiteral{Value: "dunno"} }

func Void() *VoidLiteral { return &VoidLiteral{} }

func List(elements ...Expression) *ListLiteral {
	return &ListLiteral{Elements: elements}
}

func ID(name string) *Identifier { return &Identifier{Name: name} }

func Bin(op string, left, right Expression) *BinaryExpression {
	return &BinaryExpression{Operator: op, Left: left, Right: right}
}

func Cmp(op string, left, right Expression) *CompareExpression {
	eq := 0
	for _, r := range op {
		if r == '=' {
			eq++
		}
	}
	return &CompareExpression{Operator: op, Left: left, Right: right, EqualCount: eq}
}

func Rel(op RelateOp, left, right string) *RelateExpression {
	return &RelateExpression{Operator: op, Left: ID(left), Right: ID(right)}
}

func Call(name string, args ...Expression) *CallExpression {
	return &CallExpression{Callee: ID(name), Arguments: args}
}

func Blk(stmts ...Statement) *Block { return &Block{Statements: stmts} }

func Prog(stmts ...Statement) *Program { return &Program{Body: stmts} }

// Decl declares a variable at line 0. DeclAt pins the source line, which
// bond auto-detection keys on.
func Decl(kind DeclKind, name string, value Expression, term ...Terminator) *VarDeclaration {
	return DeclAt(kind, name, value, 0, term...)
}

func DeclAt(kind DeclKind, name string, value Expression, line int, term ...Terminator) *VarDeclaration {
	return &VarDeclaration{Kind: kind, Name: name, Value: value, Line: line, terms: terms{Terms: term}}
}

func Assign(name string, value Expression, term ...Terminator) *Assignment {
	return &Assignment{Name: name, Value: value, terms: terms{Terms: term}}
}

func Print(value Expression, term ...Terminator) *PrintStatement {
	return &PrintStatement{Value: value, terms: terms{Terms: term}}
}

func Expr(e Expression, term ...Terminator) *ExpressionStatement {
	return &ExpressionStatement{Value: e, terms: terms{Terms: term}}
}

func If(cond Expression, body *Block) *IfStatement {
	return &IfStatement{Condition: cond, Body: body}
}

func Fn(kind FuncKind, name string, params []string, body *Block) *FunctionDecl {
	return &FunctionDecl{Kind: kind, Name: name, Params: params, Body: body}
}

func Ret(value Expression, term ...Terminator) *ReturnStatement {
	return &ReturnStatement{Value: value, terms: terms{Terms: term}}
}
