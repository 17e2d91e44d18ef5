package rules

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	ErrEmptyComposite = errors.New("composite node has no children")
	ErrEmptyCondition = errors.New("condition has no source")
	ErrUnknownAction  = errors.New("unknown action kind")
)

// Compile checks the tree shape and compiles every condition into expr
// bytecode. A tree must be compiled before Evaluate can succeed on it.
func Compile(root *Node) error {
	if root == nil {
		return errors.New("nil tree")
	}
	switch root.Kind {
	case NodeSelector, NodeSequence:
		if len(root.Children) == 0 {
			return fmt.Errorf("%s %q: %w", root.Kind, root.Name, ErrEmptyComposite)
		}
		for _, c := range root.Children {
			if err := Compile(c); err != nil {
				return err
			}
		}
		return nil
	case NodeCondition:
		if root.ConditionSrc == "" {
			return fmt.Errorf("condition %q: %w", root.Name, ErrEmptyCondition)
		}
		if root.forces && !root.Action.Valid() {
			return fmt.Errorf("condition %q: %w: %d", root.Name, ErrUnknownAction, int(root.Action))
		}
		prog, err := expr.Compile(root.ConditionSrc, expr.Env(TreeEnv{}), expr.AsBool())
		if err != nil {
			return fmt.Errorf("compile condition %q: %w", root.Name, err)
		}
		root.program = prog
		return nil
	}
	return fmt.Errorf("node %q: unknown kind %d", root.Name, int(root.Kind))
}

// Evaluate walks the tree depth-first, left to right. It returns the action
// forced by the first satisfied path, or false when the tree settles nothing
// and utility ranking should decide.
func Evaluate(root *Node, env TreeEnv) (Forced, bool) {
	ok, f, forced := evaluate(root, env)
	if !ok || !forced {
		return Forced{}, false
	}
	return f, true
}

func evaluate(n *Node, env TreeEnv) (success bool, f Forced, forced bool) {
	if n == nil {
		return false, Forced{}, false
	}
	switch n.Kind {
	case NodeSelector:
		for _, c := range n.Children {
			if ok, cf, cforced := evaluate(c, env); ok {
				return true, cf, cforced
			}
		}
		return false, Forced{}, false

	case NodeSequence:
		var last Forced
		has := false
		for _, c := range n.Children {
			ok, cf, cforced := evaluate(c, env)
			if !ok {
				return false, Forced{}, false
			}
			if cforced {
				last, has = cf, true
			}
		}
		return true, last, has

	case NodeCondition:
		if n.program == nil {
			slog.Warn("condition not compiled", "rule", n.Name)
			return false, Forced{}, false
		}
		result, err := vm.Run(n.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", n.Name, "error", err)
			return false, Forced{}, false
		}
		match, ok := result.(bool)
		if !ok || !match {
			return false, Forced{}, false
		}
		if !n.forces {
			return true, Forced{}, false
		}
		slog.Debug("rule fired", "rule", n.Name, "action", n.Action)
		return true, Forced{Action: n.Action, Rule: n.Name}, true
	}
	return false, Forced{}, false
}
