package plugins

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bawdo/exprql/mapping"
	"github.com/bawdo/exprql/nodes"
)

type user struct {
	ID   int64 `db:"id,pk"`
	Name string
}

type post struct {
	ID     int64 `db:"id,pk"`
	UserID int64
}

// --- BaseTransformer no-op behaviour ---

func TestBaseTransformerReturnsInput(t *testing.T) {
	t.Parallel()
	bt := BaseTransformer{}
	u := nodes.Param[user]("u")

	core := &nodes.SelectCore{From: u, Wheres: []nodes.Node{u.Field("Name").Eq("x")}}
	gotCore, err := bt.TransformSelect(core)
	require.NoError(t, err)
	assert.Same(t, core, gotCore)

	ins := &nodes.InsertStatement{Into: u}
	gotIns, err := bt.TransformInsert(ins)
	require.NoError(t, err)
	assert.Same(t, ins, gotIns)

	upd := &nodes.UpdateStatement{Table: u}
	gotUpd, err := bt.TransformUpdate(upd)
	require.NoError(t, err)
	assert.Same(t, upd, gotUpd)

	del := &nodes.DeleteStatement{From: u}
	gotDel, err := bt.TransformDelete(del)
	require.NoError(t, err)
	assert.Same(t, del, gotDel)
}

// --- CollectParams ---

func TestCollectParamsFromAndJoins(t *testing.T) {
	t.Parallel()
	u := nodes.Param[user]("u")
	p := nodes.Param[post]("p")
	core := &nodes.SelectCore{
		From:  u,
		Joins: []*nodes.JoinClause{{Param: p}, {Param: nodes.Param[user]("u")}},
	}

	refs := CollectParams(core, mapping.Default)
	require.Len(t, refs, 3)
	assert.Same(t, u, refs[0].Param)
	assert.Equal(t, "users", refs[0].Table())
	assert.Same(t, p, refs[1].Param)
	assert.Equal(t, "posts", refs[1].Table())
	assert.Equal(t, "users", refs[2].Table())
}

func TestCollectParamsSkipsUnmapped(t *testing.T) {
	t.Parallel()
	shape := nodes.ParamOf("s", reflect.TypeFor[struct{ X int }]())
	core := &nodes.SelectCore{From: shape, Joins: []*nodes.JoinClause{{Param: nil}}}
	assert.Empty(t, CollectParams(core, mapping.Default))
	assert.Empty(t, CollectParams(&nodes.SelectCore{}, mapping.Default))
}

func TestCollectParamsUsesResolver(t *testing.T) {
	t.Parallel()
	r := mapping.NewRegistry(mapping.WithTableNamer(func(n string) string { return "tbl_" + n }))
	refs := CollectParams(&nodes.SelectCore{From: nodes.Param[user]("u")}, r)
	require.Len(t, refs, 1)
	assert.Equal(t, "tbl_user", refs[0].Table())
}

func TestStatementParam(t *testing.T) {
	t.Parallel()
	ref, ok := StatementParam(nodes.Param[post]("p"), mapping.Default)
	require.True(t, ok)
	assert.Equal(t, "posts", ref.Table())

	_, ok = StatementParam(nil, mapping.Default)
	assert.False(t, ok)
}
