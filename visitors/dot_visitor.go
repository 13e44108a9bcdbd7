package visitors

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bawdo/exprql/nodes"
)

// Color constants for DOT node categories.
const (
	colorParameter  = "#6CA6CD" // blue, row parameters, lambdas
	colorMember     = "#B0D4E8" // light blue, member access
	colorComparison = "#FFB347" // orange, comparisons
	colorLogical    = "#FFEB80" // yellow, AND, OR, NOT, conditionals
	colorLiteral    = "#D3D3D3" // grey, constants
	colorConstruct  = "#77DD77" // green, New, MemberInit, lists
	colorStatement  = "#FF6961" // red, statement clauses
	colorArithmetic = "#98FB98" // mint green, arithmetic
	colorFunction   = "#87CEEB" // sky blue, method calls
)

type dotNode struct {
	id    string
	label string
	color string
}

type dotEdge struct {
	from  string
	to    string
	label string
}

// pluginCluster groups nodes added by a plugin into a DOT subgraph cluster.
type pluginCluster struct {
	name    string
	color   string
	nodeIDs []string
}

// DotVisitor renders expression trees as a Graphviz DOT graph. It
// implements nodes.Visitor; several trees can be added under labelled
// statement roots with Root and Add.
type DotVisitor struct {
	nextID    int
	nodes     []dotNode
	edges     []dotEdge
	clusters  []pluginCluster
	parentID  string
	edgeLabel string
}

// NewDotVisitor creates an empty DotVisitor.
func NewDotVisitor() *DotVisitor {
	return &DotVisitor{}
}

func (dv *DotVisitor) addNode(label, color string) string {
	id := fmt.Sprintf("n%d", dv.nextID)
	dv.nextID++
	dv.nodes = append(dv.nodes, dotNode{id: id, label: label, color: color})
	if dv.parentID != "" {
		dv.edges = append(dv.edges, dotEdge{from: dv.parentID, to: id, label: dv.edgeLabel})
	}
	return id
}

// visitChild visits child with parentID as its parent and label on the
// connecting edge.
func (dv *DotVisitor) visitChild(parentID, label string, child nodes.Node) error {
	if child == nil {
		return nil
	}
	savedParent, savedLabel := dv.parentID, dv.edgeLabel
	dv.parentID, dv.edgeLabel = parentID, label
	err := child.Accept(dv)
	dv.parentID, dv.edgeLabel = savedParent, savedLabel
	return err
}

// Root adds a statement-level node, such as a clause heading, and returns
// its ID for use with Add.
func (dv *DotVisitor) Root(label string) string {
	saved := dv.parentID
	dv.parentID = ""
	id := dv.addNode(label, colorStatement)
	dv.parentID = saved
	return id
}

// Add renders n beneath the node parentID.
func (dv *DotVisitor) Add(parentID, label string, n nodes.Node) error {
	return dv.visitChild(parentID, label, n)
}

// AddPluginCluster groups nodeIDs into a dashed cluster named after a plugin.
func (dv *DotVisitor) AddPluginCluster(name, color string, nodeIDs []string) {
	if len(nodeIDs) > 0 {
		dv.clusters = append(dv.clusters, pluginCluster{name: name, color: color, nodeIDs: nodeIDs})
	}
}

// NodeCount returns the number of nodes accumulated so far.
func (dv *DotVisitor) NodeCount() int {
	return len(dv.nodes)
}

// NodeIDsSince returns the IDs of nodes added since (and including) the given index.
func (dv *DotVisitor) NodeIDsSince(start int) []string {
	if start >= len(dv.nodes) {
		return nil
	}
	ids := make([]string, len(dv.nodes)-start)
	for i := start; i < len(dv.nodes); i++ {
		ids[i-start] = dv.nodes[i].id
	}
	return ids
}

// ToDot generates the complete DOT graph text.
func (dv *DotVisitor) ToDot() string {
	var sb strings.Builder

	sb.WriteString("digraph AST {\n")
	sb.WriteString("  rankdir=TB;\n")
	sb.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")

	clustered := make(map[string]bool)
	byID := make(map[string]dotNode, len(dv.nodes))
	for _, n := range dv.nodes {
		byID[n.id] = n
	}
	for _, c := range dv.clusters {
		for _, id := range c.nodeIDs {
			clustered[id] = true
		}
	}

	for _, n := range dv.nodes {
		if !clustered[n.id] {
			fmt.Fprintf(&sb, "  %s [label=\"%s\", fillcolor=\"%s\"];\n", n.id, escapeLabel(n.label), n.color)
		}
	}

	for i, c := range dv.clusters {
		fmt.Fprintf(&sb, "  subgraph cluster_%d_%s {\n", i, c.name)
		fmt.Fprintf(&sb, "    label=\"%s\";\n", c.name)
		sb.WriteString("    style=dashed;\n")
		fmt.Fprintf(&sb, "    color=\"%s\";\n", c.color)
		sb.WriteString("    fontname=\"Helvetica\";\n")
		for _, id := range c.nodeIDs {
			n := byID[id]
			fmt.Fprintf(&sb, "    %s [label=\"%s\", fillcolor=\"%s\"];\n", n.id, escapeLabel(n.label), n.color)
		}
		sb.WriteString("  }\n")
	}

	for _, e := range dv.edges {
		if e.label != "" {
			fmt.Fprintf(&sb, "  %s -> %s [label=\"%s\"];\n", e.from, e.to, e.label)
		} else {
			fmt.Fprintf(&sb, "  %s -> %s;\n", e.from, e.to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// escapeLabel escapes double quotes in DOT labels.
// Backslash sequences like \n are intentional DOT line breaks and are preserved.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func typeLabel(t reflect.Type) string {
	if t == nil {
		return "anonymous"
	}
	return t.String()
}

// --- Visitor interface implementation ---

func (dv *DotVisitor) VisitConstant(n *nodes.ConstantNode) error {
	label := "Constant\\n"
	if s, ok := n.Value.(string); ok {
		label += "'" + s + "'"
	} else {
		label += fmt.Sprintf("%v", n.Value)
	}
	dv.addNode(label, colorLiteral)
	return nil
}

func (dv *DotVisitor) VisitParameter(n *nodes.ParameterNode) error {
	dv.addNode("Parameter\\n"+n.Name+" "+typeLabel(n.Type), colorParameter)
	return nil
}

func (dv *DotVisitor) VisitMember(n *nodes.MemberNode) error {
	id := dv.addNode("Member\\n"+n.Name, colorMember)
	return dv.visitChild(id, "EXPR", n.Expr)
}

func (dv *DotVisitor) VisitBinary(n *nodes.BinaryNode) error {
	color := colorComparison
	switch {
	case n.Op.IsLogical():
		color = colorLogical
	case n.Op.IsArithmetic():
		color = colorArithmetic
	}
	id := dv.addNode(n.Op.String(), color)
	if err := dv.visitChild(id, "LEFT", n.Left); err != nil {
		return err
	}
	return dv.visitChild(id, "RIGHT", n.Right)
}

func (dv *DotVisitor) VisitUnary(n *nodes.UnaryNode) error {
	label := n.Op.String()
	if n.Op == nodes.OpConvert {
		label += "\\n" + typeLabel(n.Type)
	}
	color := colorArithmetic
	if n.Op == nodes.OpNot {
		color = colorLogical
	}
	id := dv.addNode(label, color)
	return dv.visitChild(id, "OPERAND", n.Operand)
}

func (dv *DotVisitor) VisitCall(n *nodes.CallNode) error {
	id := dv.addNode("Call\\n"+n.Method, colorFunction)
	if err := dv.visitChild(id, "OBJECT", n.Object); err != nil {
		return err
	}
	for i, a := range n.Args {
		if err := dv.visitChild(id, fmt.Sprintf("ARG[%d]", i), a); err != nil {
			return err
		}
	}
	return nil
}

func (dv *DotVisitor) VisitNew(n *nodes.NewNode) error {
	id := dv.addNode("New\\n"+typeLabel(n.Type), colorConstruct)
	return dv.visitBindings(id, n.Members)
}

func (dv *DotVisitor) VisitMemberInit(n *nodes.MemberInitNode) error {
	id := dv.addNode("MemberInit\\n"+typeLabel(n.Type), colorConstruct)
	return dv.visitBindings(id, n.Bindings)
}

func (dv *DotVisitor) visitBindings(parentID string, bs []nodes.Binding) error {
	for _, b := range bs {
		if err := dv.visitChild(parentID, b.Name, b.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (dv *DotVisitor) VisitListInit(n *nodes.ListInitNode) error {
	id := dv.addNode("ListInit", colorConstruct)
	return dv.visitItems(id, n.Items)
}

func (dv *DotVisitor) VisitNewArray(n *nodes.NewArrayNode) error {
	id := dv.addNode("NewArray", colorConstruct)
	return dv.visitItems(id, n.Items)
}

func (dv *DotVisitor) visitItems(parentID string, items []nodes.Node) error {
	for i, it := range items {
		if err := dv.visitChild(parentID, fmt.Sprintf("[%d]", i), it); err != nil {
			return err
		}
	}
	return nil
}

func (dv *DotVisitor) VisitLambda(n *nodes.LambdaNode) error {
	names := make([]string, len(n.Params))
	for i, p := range n.Params {
		names[i] = p.Name
	}
	id := dv.addNode("Lambda\\n("+strings.Join(names, ", ")+")", colorParameter)
	return dv.visitChild(id, "BODY", n.Body)
}

func (dv *DotVisitor) VisitInvocation(n *nodes.InvocationNode) error {
	id := dv.addNode("Invocation", colorFunction)
	if err := dv.visitChild(id, "EXPR", n.Expr); err != nil {
		return err
	}
	return dv.visitItems(id, n.Args)
}

func (dv *DotVisitor) VisitConditional(n *nodes.ConditionalNode) error {
	id := dv.addNode("Conditional", colorLogical)
	if err := dv.visitChild(id, "TEST", n.Test); err != nil {
		return err
	}
	if err := dv.visitChild(id, "THEN", n.IfTrue); err != nil {
		return err
	}
	return dv.visitChild(id, "ELSE", n.IfFalse)
}
