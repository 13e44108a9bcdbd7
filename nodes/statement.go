package nodes

// Direction is an ORDER BY direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// JoinKind is the flavour of a JOIN clause.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
)

// String returns the SQL keywords for the join.
func (k JoinKind) String() string {
	switch k {
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	default:
		return "INNER JOIN"
	}
}

// JoinClause joins the rows of Param on condition On.
type JoinClause struct {
	Kind  JoinKind
	Param *ParameterNode
	On    Node
}

// OrderClause is one ORDER BY entry. Dirs applies positionally when Expr
// compiles to a list.
type OrderClause struct {
	Expr Node
	Dirs []Direction
}

// SelectCore holds the clauses of a SELECT statement. A negative Limit
// means the row count is unbounded.
type SelectCore struct {
	From       *ParameterNode
	Joins      []*JoinClause
	Projection Node
	Distinct   bool
	Wheres     []Node
	Groups     []Node
	Havings    []Node
	Orders     []*OrderClause
	Limit      int
	Offset     int
}

// Params returns the parameters of the FROM and JOIN clauses, in order.
func (c *SelectCore) Params() []*ParameterNode {
	var ps []*ParameterNode
	if c.From != nil {
		ps = append(ps, c.From)
	}
	for _, j := range c.Joins {
		if j.Param != nil {
			ps = append(ps, j.Param)
		}
	}
	return ps
}

// Clone returns a copy whose slices can be appended to independently.
func (c *SelectCore) Clone() *SelectCore {
	out := *c
	out.Joins = make([]*JoinClause, len(c.Joins))
	for i, j := range c.Joins {
		jc := *j
		out.Joins[i] = &jc
	}
	out.Wheres = append([]Node(nil), c.Wheres...)
	out.Groups = append([]Node(nil), c.Groups...)
	out.Havings = append([]Node(nil), c.Havings...)
	out.Orders = append([]*OrderClause(nil), c.Orders...)
	return &out
}

// InsertStatement inserts the rows described by Values into the table of
// Into's entity type.
type InsertStatement struct {
	Into   *ParameterNode
	Values []Node
}

// Clone returns a copy whose slices can be appended to independently.
func (s *InsertStatement) Clone() *InsertStatement {
	return &InsertStatement{Into: s.Into, Values: append([]Node(nil), s.Values...)}
}

// UpdateStatement assigns Set to the rows of Table matching Wheres.
type UpdateStatement struct {
	Table  *ParameterNode
	Set    Node
	Wheres []Node
}

// Clone returns a copy whose slices can be appended to independently.
func (s *UpdateStatement) Clone() *UpdateStatement {
	return &UpdateStatement{Table: s.Table, Set: s.Set, Wheres: append([]Node(nil), s.Wheres...)}
}

// DeleteStatement removes the rows of From matching Wheres.
type DeleteStatement struct {
	From   *ParameterNode
	Wheres []Node
}

// Clone returns a copy whose slices can be appended to independently.
func (s *DeleteStatement) Clone() *DeleteStatement {
	return &DeleteStatement{From: s.From, Wheres: append([]Node(nil), s.Wheres...)}
}
