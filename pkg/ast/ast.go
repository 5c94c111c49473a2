package ast

// NodeType names every syntax-node variant handed over by the parser.
type NodeType string

const (
	NodeNumberLiteral     NodeType = "NumberLiteral"
	NodeWordLiteral       NodeType = "WordLiteral"
	NodeTruthLiteral      NodeType = "TruthLiteral"
	NodeVoidLiteral       NodeType = "VoidLiteral"
	NodeListLiteral       NodeType = "ListLiteral"
	NodeBlobLiteral       NodeType = "BlobLiteral"
	NodeIdentifier        NodeType = "Identifier"
	NodeBinaryExpression  NodeType = "BinaryExpression"
	NodeUnaryExpression   NodeType = "UnaryExpression"
	NodeCompareExpression NodeType = "CompareExpression"
	NodeLogicalExpression NodeType = "LogicalExpression"
	NodeRelateExpression  NodeType = "RelateExpression"
	NodeCallExpression    NodeType = "CallExpression"
	NodeMemberExpression  NodeType = "MemberExpression"
	NodeIndexExpression   NodeType = "IndexExpression"
	NodeSeanceExpression  NodeType = "SeanceExpression"
	NodeRememberExpr      NodeType = "RememberExpression"
	NodeBecomeExpression  NodeType = "BecomeExpression"
	NodeGraphQuery        NodeType = "GraphQuery"
	NodeVibeExpression    NodeType = "VibeExpression"
	NodeChillExpression   NodeType = "ChillExpression"
	NodeReadExpression    NodeType = "ReadExpression"

	NodeProgram           NodeType = "Program"
	NodeVarDeclaration    NodeType = "VarDeclaration"
	NodeAssignment        NodeType = "Assignment"
	NodePrintStatement    NodeType = "PrintStatement"
	NodeIfStatement       NodeType = "IfStatement"
	NodePlsLoop           NodeType = "PlsLoop"
	NodeUghLoop           NodeType = "UghLoop"
	NodeHopefullyLoop     NodeType = "HopefullyLoop"
	NodeAgainLoop         NodeType = "AgainLoop"
	NodeEnoughStatement   NodeType = "EnoughStatement"
	NodeFunctionDecl      NodeType = "FunctionDecl"
	NodeReturnStatement   NodeType = "ReturnStatement"
	NodeTryCopeStatement  NodeType = "TryCopeStatement"
	NodeYoloBlock         NodeType = "YoloBlock"
	NodeOopsStatement     NodeType = "OopsStatement"
	NodeBlameStatement    NodeType = "BlameStatement"
	NodeBetBlock          NodeType = "BetBlock"
	NodeJackpotBlock      NodeType = "JackpotBlock"
	NodeDeleteStatement   NodeType = "DeleteStatement"
	NodeForgetsEveryone   NodeType = "ForgetsEveryone"
	NodeRecoverStatement  NodeType = "RecoverStatement"
	NodeExorcise          NodeType = "ExorciseStatement"
	NodePrayStatement     NodeType = "PrayStatement"
	NodePersonalityDef    NodeType = "PersonalityDef"
	NodeResolveClause     NodeType = "ResolveClause"
	NodeMoodLockBlock     NodeType = "MoodLockBlock"
	NodeInspectStatement  NodeType = "InspectStatement"
	NodeOpenStatement     NodeType = "OpenStatement"
	NodeWriteStatement    NodeType = "WriteStatement"
	NodeCloseStatement    NodeType = "CloseStatement"
	NodeCanvasDecl        NodeType = "CanvasDecl"
	NodeDrawStatement     NodeType = "DrawStatement"
	NodeBlockOfStatements NodeType = "Block"
	NodeExpressionStmt    NodeType = "ExpressionStatement"
)

// Terminator is a statement-result effect tag. A statement carries the tags
// in the order they were written; the evaluator applies them left to right.
type Terminator string

const (
	TermPlain     Terminator = "."
	TermCache     Terminator = ".."
	TermUncertain Terminator = "~"
	TermForceful  Terminator = "!"
	TermDebug     Terminator = "?"
)

// DeclKind is the declaration keyword a variable or function was introduced
// with. The behavior matrix over these kinds is closed; the runtime keys a
// flat rule table on them.
type DeclKind string

const (
	DeclSure     DeclKind = "sure"
	DeclMaybe    DeclKind = "maybe"
	DeclWhatever DeclKind = "whatever"
	DeclSwear    DeclKind = "swear"
	DeclPinky    DeclKind = "pinky"
	DeclGhost    DeclKind = "ghost"
	DeclDream    DeclKind = "dream"
	DeclWhisper  DeclKind = "whisper"
	DeclCurse    DeclKind = "curse"
	DeclScream   DeclKind = "scream"
)

// FuncKind is the keyword a function was declared with.
type FuncKind string

const (
	FuncDoes   FuncKind = "does"
	FuncDid    FuncKind = "did" // memoized
	FuncMust   FuncKind = "must"
	FuncShould FuncKind = "should"
	FuncMight  FuncKind = "might"
	FuncWill   FuncKind = "will" // stub, returns Dunno
)

// RelateOp names the relationship operators between two variables.
type RelateOp string

const (
	RelLoves   RelateOp = "loves"
	RelHates   RelateOp = "hates"
	RelFears   RelateOp = "fears"
	RelEnvies  RelateOp = "envies"
	RelIgnores RelateOp = "ignores"
	RelMirrors RelateOp = "mirrors"
	RelHaunts  RelateOp = "haunts"
	RelForgets RelateOp = "forgets"
)

type Node interface {
	NodeType() NodeType
}

type Statement interface {
	Node
	Terminators() []Terminator
}

type Expression interface {
	Node
}

// terms is embedded by every statement so terminator tags ride along
// uniformly.
type terms struct {
	Terms []Terminator
}

func (t terms) Terminators() []Terminator { return t.Terms }

//-----------------------------------------------------------------------------
// Literals and simple expressions
//-----------------------------------------------------------------------------

type NumberLiteral struct {
	Value float64
}

func (*NumberLiteral) NodeType() NodeType { return NodeNumberLiteral }

type WordLiteral struct {
	Value string
}

func (*WordLiteral) NodeType() NodeType { return NodeWordLiteral }

// TruthLiteral covers yep, nope and dunno.
type TruthLiteral struct {
	Value string
}

func (*TruthLiteral) NodeType() NodeType { return NodeTruthLiteral }

type VoidLiteral struct{}

func (*VoidLiteral) NodeType() NodeType { return NodeVoidLiteral }

type ListLiteral struct {
	Elements []Expression
}

func (*ListLiteral) NodeType() NodeType { return NodeListLiteral }

type BlobEntry struct {
	Key   string
	Value Expression
}

type BlobLiteral struct {
	Entries []BlobEntry
}

func (*BlobLiteral) NodeType() NodeType { return NodeBlobLiteral }

type Identifier struct {
	Name string
}

func (*Identifier) NodeType() NodeType { return NodeIdentifier }

//-----------------------------------------------------------------------------
// Operators
//-----------------------------------------------------------------------------

// BinaryExpression records the whitespace around its operator: the parser is
// whitespace-precedence sensitive and equal spacing on both sides is
// ambiguous (ledger-charged).
type BinaryExpression struct {
	Operator    string
	Left, Right Expression
	LeftSpaces  int
	RightSpaces int
}

func (*BinaryExpression) NodeType() NodeType { return NodeBinaryExpression }

type UnaryExpression struct {
	Operator string
	Operand  Expression
}

func (*UnaryExpression) NodeType() NodeType { return NodeUnaryExpression }

// CompareExpression keeps the raw count of '=' signs: five or more extends
// equality into mood/trust/age/scar comparison.
type CompareExpression struct {
	Operator    string
	Left, Right Expression
	EqualCount  int
}

func (*CompareExpression) NodeType() NodeType { return NodeCompareExpression }

type LogicalExpression struct {
	Operator    string // and, or, nor, xor, "but not"
	Left, Right Expression
}

func (*LogicalExpression) NodeType() NodeType { return NodeLogicalExpression }

// RelateExpression is an emotional operator between two named variables.
type RelateExpression struct {
	Operator    RelateOp
	Left, Right *Identifier
}

func (*RelateExpression) NodeType() NodeType { return NodeRelateExpression }

//-----------------------------------------------------------------------------
// Calls and access
//-----------------------------------------------------------------------------

type CallExpression struct {
	Callee    Expression
	Arguments []Expression
}

func (*CallExpression) NodeType() NodeType { return NodeCallExpression }

type MemberExpression struct {
	Object Expression
	Member string
}

func (*MemberExpression) NodeType() NodeType { return NodeMemberExpression }

type IndexExpression struct {
	Object Expression
	Index  Expression
}

func (*IndexExpression) NodeType() NodeType { return NodeIndexExpression }

// SeanceExpression contacts a deceased entity by name.
type SeanceExpression struct {
	Name string
}

func (*SeanceExpression) NodeType() NodeType { return NodeSeanceExpression }

// RememberExpression reads the Nth historical value of a variable.
type RememberExpression struct {
	Name  string
	Index Expression
}

func (*RememberExpression) NodeType() NodeType { return NodeRememberExpr }

// BecomeExpression instantiates a personality.
type BecomeExpression struct {
	Personality string
	Arguments   []Expression
}

func (*BecomeExpression) NodeType() NodeType { return NodeBecomeExpression }

// GraphQuery exposes relationship-graph introspection (edges, distance,
// isolated).
type GraphQuery struct {
	Method    string
	Arguments []Expression
}

func (*GraphQuery) NodeType() NodeType { return NodeGraphQuery }

// VibeExpression spawns an asynchronous task and yields its handle.
type VibeExpression struct {
	Body *Block
}

func (*VibeExpression) NodeType() NodeType { return NodeVibeExpression }

// ChillExpression joins a task handle.
type ChillExpression struct {
	Task Expression
}

func (*ChillExpression) NodeType() NodeType { return NodeChillExpression }

// ReadExpression reads from an open file handle.
type ReadExpression struct {
	Handle string
}

func (*ReadExpression) NodeType() NodeType { return NodeReadExpression }

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

type Block struct {
	Statements []Statement
}

func (*Block) NodeType() NodeType { return NodeBlockOfStatements }

type Program struct {
	Body []Statement
}

func (*Program) NodeType() NodeType { return NodeProgram }

type VarDeclaration struct {
	terms
	Kind  DeclKind
	Name  string
	Value Expression
	Line  int
	// PinkySource links a pinky declaration to the variable it promised to.
	PinkySource string
}

func (*VarDeclaration) NodeType() NodeType { return NodeVarDeclaration }

type Assignment struct {
	terms
	Name  string
	Value Expression
}

func (*Assignment) NodeType() NodeType { return NodeAssignment }

// ExpressionStatement wraps a bare expression so it can carry terminators.
type ExpressionStatement struct {
	terms
	Value Expression
}

func (*ExpressionStatement) NodeType() NodeType { return NodeExpressionStmt }

type PrintStatement struct {
	terms
	Value Expression
}

func (*PrintStatement) NodeType() NodeType { return NodePrintStatement }

type ButClause struct {
	Condition Expression
	Body      *Block
}

type IfStatement struct {
	terms
	Condition Expression
	Body      *Block
	But       []ButClause
	Actually  *Block
}

func (*IfStatement) NodeType() NodeType { return NodeIfStatement }

// PlsLoop runs Count times; the counter origin depends on the current SP
// band.
type PlsLoop struct {
	terms
	Count   Expression
	Counter string
	Body    *Block
	Line    int
}

func (*PlsLoop) NodeType() NodeType { return NodePlsLoop }

// UghLoop is a while loop with a per-iteration quit probability.
type UghLoop struct {
	terms
	Condition Expression
	Body      *Block
}

func (*UghLoop) NodeType() NodeType { return NodeUghLoop }

type HopefullyLoop struct {
	terms
	Condition Expression
	Body      *Block
}

func (*HopefullyLoop) NodeType() NodeType { return NodeHopefullyLoop }

type AgainLoop struct {
	terms
	Body *Block
}

func (*AgainLoop) NodeType() NodeType { return NodeAgainLoop }

type EnoughStatement struct {
	terms
}

func (*EnoughStatement) NodeType() NodeType { return NodeEnoughStatement }

type FunctionDecl struct {
	terms
	Kind      FuncKind
	Name      string
	Params    []string
	Condition Expression // for might
	Body      *Block
	Line      int
}

func (*FunctionDecl) NodeType() NodeType { return NodeFunctionDecl }

type ReturnStatement struct {
	terms
	Value Expression
}

func (*ReturnStatement) NodeType() NodeType { return NodeReturnStatement }

// TryCopeStatement handles a runtime Blame with cope, or suppresses it with
// deny.
type TryCopeStatement struct {
	terms
	Try       *Block
	CopeParam string
	Cope      *Block
	Deny      *Block
}

func (*TryCopeStatement) NodeType() NodeType { return NodeTryCopeStatement }

type YoloBlock struct {
	terms
	Body *Block
}

func (*YoloBlock) NodeType() NodeType { return NodeYoloBlock }

type OopsStatement struct {
	terms
	Message string
}

func (*OopsStatement) NodeType() NodeType { return NodeOopsStatement }

type BlameStatement struct {
	terms
	Target string
	Reason string
}

func (*BlameStatement) NodeType() NodeType { return NodeBlameStatement }

type BetBlock struct {
	terms
	Condition Expression
	Reward    Expression
	Risk      Expression
	Body      *Block
}

func (*BetBlock) NodeType() NodeType { return NodeBetBlock }

type JackpotBlock struct {
	terms
	Condition Expression
	Body      *Block
	Line      int
}

func (*JackpotBlock) NodeType() NodeType { return NodeJackpotBlock }

type DeleteStatement struct {
	terms
	Name string
}

func (*DeleteStatement) NodeType() NodeType { return NodeDeleteStatement }

// ForgetsEveryone severs every relationship a variable has.
type ForgetsEveryone struct {
	terms
	Name string
}

func (*ForgetsEveryone) NodeType() NodeType { return NodeForgetsEveryone }

// RecoverStatement is the explicit "i am okay" insanity recovery action.
type RecoverStatement struct {
	terms
}

func (*RecoverStatement) NodeType() NodeType { return NodeRecoverStatement }

type ExorciseStatement struct {
	terms
	CurseName string
}

func (*ExorciseStatement) NodeType() NodeType { return NodeExorcise }

type PrayStatement struct {
	terms
	Prayer string // mercy, chaos, nothing
}

func (*PrayStatement) NodeType() NodeType { return NodePrayStatement }

// ResolveClause permanently pins a method name to one parent of a
// personality, overriding parity dispatch.
type ResolveClause struct {
	Method string
	Parent string
}

func (*ResolveClause) NodeType() NodeType { return NodeResolveClause }

type PersonalityDef struct {
	terms
	Name     string
	Parents  []string
	Body     []Statement
	Resolves []*ResolveClause
}

func (*PersonalityDef) NodeType() NodeType { return NodePersonalityDef }

// MoodLockBlock serializes its body across vibes under the named lock.
type MoodLockBlock struct {
	terms
	Name string
	Body *Block
}

func (*MoodLockBlock) NodeType() NodeType { return NodeMoodLockBlock }

// InspectStatement is wtf/huh introspection on a variable.
type InspectStatement struct {
	terms
	Name string
	Deep bool // wtf when true, huh when false
}

func (*InspectStatement) NodeType() NodeType { return NodeInspectStatement }

type OpenStatement struct {
	terms
	Handle string
	Path   Expression
	Mode   string
}

func (*OpenStatement) NodeType() NodeType { return NodeOpenStatement }

type WriteStatement struct {
	terms
	Handle string
	Data   Expression
	Append bool
}

func (*WriteStatement) NodeType() NodeType { return NodeWriteStatement }

type CloseStatement struct {
	terms
	Handle string
}

func (*CloseStatement) NodeType() NodeType { return NodeCloseStatement }

type CanvasDecl struct {
	terms
	Name   string
	Title  Expression
	Width  Expression
	Height Expression
}

func (*CanvasDecl) NodeType() NodeType { return NodeCanvasDecl }

type DrawStatement struct {
	terms
	Canvas    string
	Op        string // pixel, line, rect, circle, text, sprite, show
	Arguments []Expression
}

func (*DrawStatement) NodeType() NodeType { return NodeDrawStatement }
