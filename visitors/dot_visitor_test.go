package visitors

import (
	"strings"
	"testing"

	"github.com/bawdo/exprql/nodes"
)

func renderDot(t *testing.T, n nodes.Node) string {
	t.Helper()
	dv := NewDotVisitor()
	if err := n.Accept(dv); err != nil {
		t.Fatalf("accept: %v", err)
	}
	return dv.ToDot()
}

func TestDotVisitParameter(t *testing.T) {
	t.Parallel()
	dot := renderDot(t, nodes.Param[customer]("c"))

	if !strings.HasPrefix(dot, "digraph AST {") {
		t.Errorf("expected digraph header, got:\n%s", dot)
	}
	if !strings.Contains(dot, `label="Parameter\nc visitors.customer"`) {
		t.Errorf("expected Parameter label, got:\n%s", dot)
	}
	if !strings.Contains(dot, `fillcolor="#6CA6CD"`) {
		t.Errorf("expected blue fill for Parameter, got:\n%s", dot)
	}
}

func TestDotVisitComparison(t *testing.T) {
	t.Parallel()
	c := nodes.Param[customer]("c")
	dot := renderDot(t, c.Field("Age").Gt(18))

	for _, want := range []string{
		`n0 [label="GreaterThan", fillcolor="#FFB347"]`,
		`n1 [label="Member\nAge", fillcolor="#B0D4E8"]`,
		`n2 [label="Parameter\nc visitors.customer"`,
		`n3 [label="Constant\n18", fillcolor="#D3D3D3"]`,
		`n0 -> n1 [label="LEFT"]`,
		`n1 -> n2 [label="EXPR"]`,
		`n0 -> n3 [label="RIGHT"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("expected %q in:\n%s", want, dot)
		}
	}
}

func TestDotVisitColours(t *testing.T) {
	t.Parallel()
	c := nodes.Param[customer]("c")
	tests := []struct {
		name  string
		node  nodes.Node
		label string
		color string
	}{
		{"logical", c.Field("Active").And(c.Field("Age").Gt(1)), "AndAlso", colorLogical},
		{"arithmetic", c.Field("Age").Add(1), "Add", colorArithmetic},
		{"not", nodes.Not(c.Field("Active")), "Not", colorLogical},
		{"negate", c.Field("Age").Negate(), "Negate", colorArithmetic},
		{"call", c.Field("Name").Like("x"), `Call\nLike`, colorFunction},
		{"conditional", nodes.Cond(c.Field("Active"), 1, 0), "Conditional", colorLogical},
		{"array", nodes.Array(1, 2), "NewArray", colorConstruct},
		{"list", nodes.List(1, 2), "ListInit", colorConstruct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dot := renderDot(t, tt.node)
			want := `n0 [label="` + tt.label + `", fillcolor="` + tt.color + `"]`
			if !strings.Contains(dot, want) {
				t.Errorf("expected %q in:\n%s", want, dot)
			}
		})
	}
}

func TestDotVisitBindingsLabelEdges(t *testing.T) {
	t.Parallel()
	c := nodes.Param[customer]("c")
	dot := renderDot(t, nodes.New(nodes.Bind("name", c.Field("Name")), nodes.Bind("years", c.Field("Age"))))

	if !strings.Contains(dot, `label="New\nanonymous"`) {
		t.Errorf("expected anonymous New label, got:\n%s", dot)
	}
	if !strings.Contains(dot, `[label="name"]`) || !strings.Contains(dot, `[label="years"]`) {
		t.Errorf("expected binding edge labels, got:\n%s", dot)
	}
}

func TestDotVisitCallArguments(t *testing.T) {
	t.Parallel()
	c := nodes.Param[customer]("c")
	dot := renderDot(t, c.Field("Age").In(1, 2))

	for _, want := range []string{`[label="ARG[0]"]`, `[label="ARG[1]"]`, `[label="[0]"]`, `[label="[1]"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("expected %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `[label="OBJECT"]`) {
		t.Errorf("static call should have no OBJECT edge:\n%s", dot)
	}
}

func TestDotVisitLambdaAndInvocation(t *testing.T) {
	t.Parallel()
	x := nodes.Param[customer]("x")
	lam := nodes.Lambda(x.Field("Active"), x)
	dot := renderDot(t, nodes.Invoke(lam, nodes.Param[customer]("c")))

	for _, want := range []string{`label="Invocation"`, `label="Lambda\n(x)"`, `[label="BODY"]`, `[label="EXPR"]`} {
		if !strings.Contains(dot, want) {
			t.Errorf("expected %q in:\n%s", want, dot)
		}
	}
}

func TestDotVisitStringConstantQuoted(t *testing.T) {
	t.Parallel()
	dot := renderDot(t, nodes.Const(`say "hi"`))
	if !strings.Contains(dot, `label="Constant\n'say \"hi\"'"`) {
		t.Errorf("expected escaped string constant, got:\n%s", dot)
	}
}

func TestDotRootsAndPluginCluster(t *testing.T) {
	t.Parallel()
	c := nodes.Param[customer]("c")
	dv := NewDotVisitor()

	where := dv.Root("WHERE")
	if err := dv.Add(where, "", c.Field("Age").Gt(18)); err != nil {
		t.Fatal(err)
	}
	start := dv.NodeCount()
	if err := dv.Add(where, "AND", c.Field("Email").IsNull()); err != nil {
		t.Fatal(err)
	}
	ids := dv.NodeIDsSince(start)
	dv.AddPluginCluster("softdelete", "#E8A0BF", ids)
	dot := dv.ToDot()

	if !strings.Contains(dot, `n0 [label="WHERE", fillcolor="#FF6961"]`) {
		t.Errorf("expected statement root, got:\n%s", dot)
	}
	if !strings.Contains(dot, "n0 -> n1;") {
		t.Errorf("expected unlabelled edge from root, got:\n%s", dot)
	}
	if !strings.Contains(dot, "subgraph cluster_0_softdelete {") {
		t.Errorf("expected plugin cluster, got:\n%s", dot)
	}
	if len(ids) != 4 {
		t.Errorf("expected 4 clustered nodes, got %d", len(ids))
	}
	if got := dv.NodeIDsSince(dv.NodeCount()); got != nil {
		t.Errorf("expected nil ids past the end, got %v", got)
	}
}

func TestDotVisitAllKindsReachable(t *testing.T) {
	t.Parallel()
	c := nodes.Param[customer]("c")
	tree := nodes.Init[customer](
		nodes.Bind("Name", nodes.Call(c.Field("Name"), "ToUpper")),
		nodes.Bind("Age", nodes.Cond(nodes.Not(c.Field("Active")), c.Field("Age").Negate(), nodes.Const(0))),
		nodes.Bind("Balance", nodes.Convert(c.Field("Age"), nil)),
	)
	dv := NewDotVisitor()
	if err := tree.Accept(dv); err != nil {
		t.Fatal(err)
	}
	// MemberInit, Call, Member, Parameter, Conditional, Not, Member,
	// Parameter, Negate, Member, Parameter, Constant, Convert, Member,
	// Parameter.
	if got := dv.NodeCount(); got != 15 {
		t.Errorf("expected 15 nodes, got %d\n%s", got, dv.ToDot())
	}
}
