package managers

import (
	"errors"

	"github.com/bawdo/exprql/nodes"
	"github.com/bawdo/exprql/plugins"
)

type customer struct {
	ID     int64   `db:"id,pk,auto"`
	Name   string  `db:"name"`
	Email  *string `db:"email"`
	Age    int     `db:"age"`
	Active bool    `db:"active"`
}

type order struct {
	ID         int64   `db:"id,pk,auto"`
	CustomerID int64   `db:"customer_id"`
	Total      float64 `db:"total"`
}

// tag has no primary key.
type tag struct {
	Name string `db:"name"`
}

var (
	c    = nodes.Param[customer]("c")
	o    = nodes.Param[order]("o")
	name = c.Field("Name")
	age  = c.Field("Age")
	act  = c.Field("Active")
)

var errDenied = errors.New("denied")

// countingTransformer records how many statements it saw.
type countingTransformer struct {
	plugins.BaseTransformer
	selects, inserts, updates, deletes int
}

func (ct *countingTransformer) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	ct.selects++
	return core, nil
}

func (ct *countingTransformer) TransformInsert(s *nodes.InsertStatement) (*nodes.InsertStatement, error) {
	ct.inserts++
	return s, nil
}

func (ct *countingTransformer) TransformUpdate(s *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	ct.updates++
	return s, nil
}

func (ct *countingTransformer) TransformDelete(s *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	ct.deletes++
	return s, nil
}

// failingTransformer rejects every statement.
type failingTransformer struct{}

func (failingTransformer) TransformSelect(*nodes.SelectCore) (*nodes.SelectCore, error) {
	return nil, errDenied
}
func (failingTransformer) TransformInsert(*nodes.InsertStatement) (*nodes.InsertStatement, error) {
	return nil, errDenied
}
func (failingTransformer) TransformUpdate(*nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	return nil, errDenied
}
func (failingTransformer) TransformDelete(*nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	return nil, errDenied
}

// activeOnly appends "<row>.Active" to selects and "Age >= 18" to
// deletes, mutating the statement it is handed.
type activeOnly struct {
	plugins.BaseTransformer
}

func (activeOnly) TransformSelect(core *nodes.SelectCore) (*nodes.SelectCore, error) {
	core.Wheres = append(core.Wheres, core.From.Field("Active"))
	return core, nil
}

func (activeOnly) TransformUpdate(s *nodes.UpdateStatement) (*nodes.UpdateStatement, error) {
	s.Wheres = append(s.Wheres, s.Table.Field("Active"))
	return s, nil
}

func (activeOnly) TransformDelete(s *nodes.DeleteStatement) (*nodes.DeleteStatement, error) {
	s.Wheres = append(s.Wheres, s.From.Field("Age").GtEq(18))
	return s, nil
}
