package rules

import (
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/vimy/vimy-tactics/model"
)

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	NodeSelector NodeKind = iota
	NodeSequence
	NodeCondition
)

func (k NodeKind) String() string {
	switch k {
	case NodeSelector:
		return "selector"
	case NodeSequence:
		return "sequence"
	case NodeCondition:
		return "condition"
	}
	return "unknown"
}

// Node is one element of a priority tree. Selector succeeds on the first
// child success, Sequence succeeds only if every child succeeds, and Condition
// succeeds when its expression is true. A forcing Condition also names the
// action the turn must take. Trees hold no state between evaluations.
type Node struct {
	Kind         NodeKind
	Name         string
	Children     []*Node
	ConditionSrc string           // expr source evaluated against TreeEnv
	Action       model.ActionKind // forced on success when forces is set
	forces       bool
	program      *vm.Program
}

func Selector(name string, children ...*Node) *Node {
	return &Node{Kind: NodeSelector, Name: name, Children: children}
}

func Sequence(name string, children ...*Node) *Node {
	return &Node{Kind: NodeSequence, Name: name, Children: children}
}

// Condition is a leaf that forces action when src evaluates true.
func Condition(name, src string, action model.ActionKind) *Node {
	return &Node{Kind: NodeCondition, Name: name, ConditionSrc: src, Action: action, forces: true}
}

// Guard is a leaf that gates its siblings without forcing an action.
func Guard(name, src string) *Node {
	return &Node{Kind: NodeCondition, Name: name, ConditionSrc: src}
}

// Forces reports whether a successful evaluation of n yields an action.
func (n *Node) Forces() bool { return n.forces }

// Forced is the outcome of a tree that settled the turn's action.
type Forced struct {
	Action model.ActionKind
	Rule   string // name of the Condition leaf that fired
}
