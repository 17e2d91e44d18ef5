package rules

import (
	"errors"
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

func mustCompile(t *testing.T, root *Node) *Node {
	t.Helper()
	if err := Compile(root); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return root
}

func envWithHealth(hp float64) TreeEnv {
	return TreeEnv{Self: model.Unit{HP: hp, MaxHP: 100, Attack: 10}}
}

func TestEvaluate_SelectorShortCircuits(t *testing.T) {
	root := mustCompile(t, Selector("root",
		Condition("first", `Health() < 50`, model.Retreat),
		Condition("second", `true`, model.Attack),
	))

	f, ok := Evaluate(root, envWithHealth(10))
	if !ok || f.Action != model.Retreat || f.Rule != "first" {
		t.Errorf("Evaluate(hp=10) = %+v, %v; want retreat from first", f, ok)
	}
	f, ok = Evaluate(root, envWithHealth(90))
	if !ok || f.Action != model.Attack || f.Rule != "second" {
		t.Errorf("Evaluate(hp=90) = %+v, %v; want attack from second", f, ok)
	}
}

func TestEvaluate_SequenceNeedsEveryChild(t *testing.T) {
	root := mustCompile(t, Sequence("gate",
		Guard("wounded", `Health() < 50`),
		Condition("support", `SupportAvailable()`, model.SeekSupport),
	))

	env := envWithHealth(40)
	if _, ok := Evaluate(root, env); ok {
		t.Error("sequence without support should not force")
	}
	env.Support = &model.Unit{HP: 10, MaxHP: 50}
	f, ok := Evaluate(root, env)
	if !ok || f.Action != model.SeekSupport {
		t.Errorf("Evaluate = %+v, %v; want seek_support", f, ok)
	}
	env.Self.HP = 60
	if _, ok := Evaluate(root, env); ok {
		t.Error("guard failure should stop the sequence")
	}
}

func TestEvaluate_GuardOnlySuccessForcesNothing(t *testing.T) {
	root := mustCompile(t, Selector("root",
		Guard("always", `true`),
		Condition("never-reached", `true`, model.Attack),
	))
	if f, ok := Evaluate(root, envWithHealth(50)); ok {
		t.Errorf("guard-only success forced %+v", f)
	}
}

func TestEvaluate_RuntimeErrorCountsAsFailure(t *testing.T) {
	// Index out of range only fails at run time.
	root := mustCompile(t, Selector("root",
		Condition("broken", `[1, 2][Resource("ether") + 5] > 0`, model.SpecialAttack),
		Condition("fallback", `true`, model.Idle),
	))
	f, ok := Evaluate(root, envWithHealth(50))
	if !ok || f.Action != model.Idle {
		t.Errorf("Evaluate = %+v, %v; want fallback idle", f, ok)
	}
}

func TestEvaluate_UncompiledConditionFails(t *testing.T) {
	root := Condition("raw", `true`, model.Attack)
	if _, ok := Evaluate(root, envWithHealth(50)); ok {
		t.Error("uncompiled condition should not force")
	}
}

func TestEvaluate_IsStateless(t *testing.T) {
	root := mustCompile(t, Selector("root",
		Condition("low", `Health() < 20`, model.Retreat),
		Condition("rest", `true`, model.Attack),
	))
	for i := 0; i < 3; i++ {
		if f, _ := Evaluate(root, envWithHealth(10)); f.Action != model.Retreat {
			t.Fatalf("pass %d: got %s, want retreat", i, f.Action)
		}
		if f, _ := Evaluate(root, envWithHealth(90)); f.Action != model.Attack {
			t.Fatalf("pass %d: got %s, want attack", i, f.Action)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		want error
	}{
		{"empty selector", Selector("s"), ErrEmptyComposite},
		{"empty sequence", Sequence("q"), ErrEmptyComposite},
		{"empty condition", Condition("c", "", model.Attack), ErrEmptyCondition},
		{"bad action", Condition("c", "true", model.ActionKind(77)), ErrUnknownAction},
	}
	for _, tc := range tests {
		err := Compile(tc.root)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: Compile error = %v, want %v", tc.name, err, tc.want)
		}
	}

	if err := Compile(Condition("typo", `Helth() < 3`, model.Retreat)); err == nil {
		t.Error("unknown function should fail to compile")
	}
	if err := Compile(Condition("not-bool", `Health() + 1`, model.Retreat)); err == nil {
		t.Error("non-bool expression should fail to compile")
	}
	if err := Compile(nil); err == nil {
		t.Error("nil tree should fail to compile")
	}
}
