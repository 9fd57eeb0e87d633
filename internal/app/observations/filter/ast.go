package filter

import "time"

// Expr is a node in the parsed filter expression tree. The parser only
// builds the tree, it never evaluates anything against data.
type Expr interface {
	exprNode()
}

type LogicalOp string

const (
	OpAnd LogicalOp = "and"
	OpOr  LogicalOp = "or"
	OpNot LogicalOp = "not"
)

type ComparisonOp string

const (
	OpEq ComparisonOp = "eq"
	OpNe ComparisonOp = "ne"
	OpGt ComparisonOp = "gt"
	OpGe ComparisonOp = "ge"
	OpLt ComparisonOp = "lt"
	OpLe ComparisonOp = "le"
)

type LogicalExpr struct {
	Op    LogicalOp
	Left  Expr // nil for OpNot
	Right Expr
}

type ComparisonExpr struct {
	Op    ComparisonOp
	Left  Expr
	Right Expr
}

// CallExpr is a filter function application, e.g. contains(name,'Weather')
// or geo.distance(location, geography'POINT(11.1 57.7)').
type CallExpr struct {
	Name string
	Args []Expr
}

// PropertyExpr references an entity property, possibly across one
// navigation hop, e.g. Datastream/Thing/name.
type PropertyExpr struct {
	Path []string
}

type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
	LiteralDateTime
	LiteralGeometry
)

type LiteralExpr struct {
	Kind     LiteralKind
	String   string
	Number   float64
	Bool     bool
	Time     time.Time
	Geometry string // WKT payload of a geography'...' literal
}

func (*LogicalExpr) exprNode()    {}
func (*ComparisonExpr) exprNode() {}
func (*CallExpr) exprNode()       {}
func (*PropertyExpr) exprNode()   {}
func (*LiteralExpr) exprNode()    {}
