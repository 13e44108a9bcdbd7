package testutil

import "github.com/bawdo/exprql/nodes"

// KindRecorder implements nodes.Visitor by walking the whole tree and
// recording the kind of every node it reaches, in visiting order.
type KindRecorder struct {
	Kinds []nodes.Kind
}

var _ nodes.Visitor = (*KindRecorder)(nil)

// Count returns how many nodes of kind k were visited.
func (r *KindRecorder) Count(k nodes.Kind) int {
	n := 0
	for _, got := range r.Kinds {
		if got == k {
			n++
		}
	}
	return n
}

func (r *KindRecorder) record(n nodes.Node) error {
	r.Kinds = append(r.Kinds, n.Kind())
	for _, c := range nodes.Children(n) {
		if c == nil {
			continue
		}
		if err := c.Accept(r); err != nil {
			return err
		}
	}
	return nil
}

func (r *KindRecorder) VisitConstant(n *nodes.ConstantNode) error     { return r.record(n) }
func (r *KindRecorder) VisitParameter(n *nodes.ParameterNode) error   { return r.record(n) }
func (r *KindRecorder) VisitMember(n *nodes.MemberNode) error         { return r.record(n) }
func (r *KindRecorder) VisitBinary(n *nodes.BinaryNode) error         { return r.record(n) }
func (r *KindRecorder) VisitUnary(n *nodes.UnaryNode) error           { return r.record(n) }
func (r *KindRecorder) VisitCall(n *nodes.CallNode) error             { return r.record(n) }
func (r *KindRecorder) VisitNew(n *nodes.NewNode) error               { return r.record(n) }
func (r *KindRecorder) VisitMemberInit(n *nodes.MemberInitNode) error { return r.record(n) }
func (r *KindRecorder) VisitListInit(n *nodes.ListInitNode) error     { return r.record(n) }
func (r *KindRecorder) VisitNewArray(n *nodes.NewArrayNode) error     { return r.record(n) }
func (r *KindRecorder) VisitLambda(n *nodes.LambdaNode) error         { return r.record(n) }
func (r *KindRecorder) VisitInvocation(n *nodes.InvocationNode) error { return r.record(n) }
func (r *KindRecorder) VisitConditional(n *nodes.ConditionalNode) error {
	return r.record(n)
}
