package agent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/rules"
)

func mustAgent(t *testing.T, u *model.Unit) *Agent {
	t.Helper()
	a, err := New(u, rules.DefaultDoctrine())
	if err != nil {
		t.Fatalf("New(%s): %v", u.Name, err)
	}
	return a
}

func unit(name string, hp, attack float64) *model.Unit {
	return &model.Unit{ID: name, Name: name, HP: hp, MaxHP: 100, Attack: attack, Aggression: 0.5}
}

func world(ether int) *model.World {
	return &model.World{
		FactionMorale:    50,
		TechLevel:        1,
		DistanceToTarget: 10,
		Resources:        model.ResourcePool{"ether": ether, "credits": 100},
		Allies:           []*model.Ally{{Name: "sydra", Affinity: 40}},
	}
}

func TestScenario_RetreatBelowThreshold(t *testing.T) {
	a := mustAgent(t, unit("scout", 15, 10))
	enemy := unit("enemy", 100, 10)
	a.Engage(enemy, nil)
	before := a.Weights.All()

	o := NewOrchestrator(rand.New(rand.NewSource(1)))
	outs := o.RunTurn([]*Agent{a}, world(3))
	if len(outs) != 1 {
		t.Fatalf("got %d outcomes, want 1", len(outs))
	}
	out := outs[0]
	if out.Action != model.Retreat || !out.Forced {
		t.Errorf("action = %s forced=%v, want forced retreat", out.Action, out.Forced)
	}
	if out.Reward != rules.DefaultRewards().Retreat {
		t.Errorf("reward = %v, want %v", out.Reward, rules.DefaultRewards().Retreat)
	}
	after := a.Weights.All()
	for _, k := range model.ActionPriority {
		if k == model.Retreat {
			continue
		}
		if after[k] != before[k] {
			t.Errorf("weight for %s changed from %v to %v", k, before[k], after[k])
		}
	}
	if enemy.HP != 100 {
		t.Errorf("enemy HP = %v, want untouched", enemy.HP)
	}
}

func TestScenario_SpecialAttackSpendsEther(t *testing.T) {
	a := mustAgent(t, unit("kael", 100, 10))
	enemy := unit("enemy", 100, 10)
	a.Engage(enemy, nil)
	w := world(1)

	outs := NewOrchestrator(nil).RunTurn([]*Agent{a}, w)
	out := outs[0]
	if out.Action != model.SpecialAttack {
		t.Fatalf("action = %s, want special_attack", out.Action)
	}
	if w.Resources.Available("ether") != 0 {
		t.Errorf("ether = %d, want 0", w.Resources.Available("ether"))
	}
	if enemy.HP != 70 {
		t.Errorf("enemy HP = %v, want 70 (100 - 10*3)", enemy.HP)
	}
}

func TestScenario_SeekSupportHeals(t *testing.T) {
	a := mustAgent(t, unit("kael", 40, 10))
	medic := unit("medic", 50, 0)
	a.Engage(unit("enemy", 100, 10), medic)

	out := NewOrchestrator(nil).RunTurn([]*Agent{a}, world(5))[0]
	if out.Action != model.SeekSupport {
		t.Fatalf("action = %s, want seek_support", out.Action)
	}
	if a.Unit.HP != 70 {
		t.Errorf("HP = %v, want 70", a.Unit.HP)
	}
}

func TestScenario_WeightUpdateArithmetic(t *testing.T) {
	d := rules.DefaultDoctrine()
	d.Rewards.AttackHit = 0.8
	a, err := New(unit("kael", 100, 10), d)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.Engage(unit("enemy", 100, 10), nil)

	out := NewOrchestrator(nil).RunTurn([]*Agent{a}, world(0))[0]
	if out.Action != model.Attack || out.Reward != 0.8 {
		t.Fatalf("outcome = %s reward %v, want attack reward 0.8", out.Action, out.Reward)
	}
	if got := a.Weights.Weight(model.Attack); math.Abs(got-0.58) > 1e-12 {
		t.Errorf("attack weight = %v, want 0.58", got)
	}
	if out.WeightAfter != a.Weights.Weight(model.Attack) {
		t.Errorf("WeightAfter = %v, want %v", out.WeightAfter, a.Weights.Weight(model.Attack))
	}
}

func TestRunTurn_ContextsFromTurnStart(t *testing.T) {
	// Both units see one ether at turn start, so both are forced to special
	// attack; the second finds the pool empty and resolves as a no-op.
	first := mustAgent(t, unit("first", 100, 10))
	second := mustAgent(t, unit("second", 100, 10))
	enemy := unit("enemy", 100, 10)
	first.Engage(enemy, nil)
	second.Engage(enemy, nil)

	outs := NewOrchestrator(nil).RunTurn([]*Agent{first, second}, world(1))
	if len(outs) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outs))
	}
	if outs[0].Action != model.SpecialAttack || outs[0].Invalid {
		t.Errorf("first = %+v, want valid special attack", outs[0])
	}
	if outs[1].Action != model.SpecialAttack || !outs[1].Invalid || outs[1].Reward != 0.1 {
		t.Errorf("second = %+v, want caught special no-op", outs[1])
	}
	if enemy.HP != 70 {
		t.Errorf("enemy HP = %v, want 70", enemy.HP)
	}
}

func TestRunTurn_LaterUnitsHitMutatedTarget(t *testing.T) {
	first := mustAgent(t, unit("first", 100, 60))
	second := mustAgent(t, unit("second", 100, 60))
	enemy := unit("enemy", 100, 10)
	first.Engage(enemy, nil)
	second.Engage(enemy, nil)

	outs := NewOrchestrator(nil).RunTurn([]*Agent{first, second}, world(0))
	if outs[0].Deltas.Damage != 60 {
		t.Errorf("first damage = %v, want 60", outs[0].Deltas.Damage)
	}
	if !outs[1].Eliminated || outs[1].Deltas.Damage != 40 {
		t.Errorf("second = %+v, want elimination for 40", outs[1])
	}
}

func TestRunTurn_SkipsDeadUnits(t *testing.T) {
	alive := mustAgent(t, unit("alive", 100, 10))
	dead := mustAgent(t, unit("dead", 0, 10))
	enemy := unit("enemy", 100, 10)
	alive.Engage(enemy, nil)
	dead.Engage(enemy, nil)

	outs := NewOrchestrator(nil).RunTurn([]*Agent{dead, alive}, world(0))
	if len(outs) != 1 || outs[0].UnitName != "alive" {
		t.Errorf("outcomes = %+v, want only alive", outs)
	}
}

func TestRunTurn_UnitFelledMidTurnDoesNotAct(t *testing.T) {
	red := mustAgent(t, unit("red", 100, 200))
	blue := mustAgent(t, unit("blue", 100, 10))
	red.Engage(blue.Unit, nil)
	blue.Engage(red.Unit, nil)

	outs := NewOrchestrator(nil).RunTurn([]*Agent{red, blue}, world(0))
	if len(outs) != 1 || outs[0].UnitName != "red" || !outs[0].Eliminated {
		t.Errorf("outcomes = %+v, want red eliminating blue alone", outs)
	}
}

func TestRunTurn_UtilityWhenTreeSettlesNothing(t *testing.T) {
	a := mustAgent(t, unit("governor", 100, 10))
	w := world(0)
	w.FactionMorale = 95

	out := NewOrchestrator(rand.New(rand.NewSource(5))).RunTurn([]*Agent{a}, w)[0]
	if out.Forced {
		t.Error("unengaged unit should not be forced")
	}
	if out.Action != model.Manage {
		t.Errorf("action = %s, want manage", out.Action)
	}
}

func TestRunTurn_NotifiesInOrder(t *testing.T) {
	first := mustAgent(t, unit("first", 100, 10))
	second := mustAgent(t, unit("second", 100, 10))
	enemy := unit("enemy", 1000, 10)
	enemy.MaxHP = 1000
	first.Engage(enemy, nil)
	second.Engage(enemy, nil)

	var seen []string
	o := NewOrchestrator(nil, NotifierFunc(func(out model.TurnOutcome) {
		seen = append(seen, out.UnitName)
	}))
	o.RunTurn([]*Agent{first, second}, world(0))
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Errorf("notified %v, want [first second]", seen)
	}
}

func TestAddNotifier_ReceivesLaterTurns(t *testing.T) {
	a := mustAgent(t, unit("kael", 100, 10))
	a.Engage(unit("enemy", 100, 10), nil)
	o := NewOrchestrator(nil)
	o.RunTurn([]*Agent{a}, world(0))

	var got []int
	o.AddNotifier(NotifierFunc(func(out model.TurnOutcome) {
		got = append(got, out.Turn)
	}))
	o.RunTurn([]*Agent{a}, world(0))
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("notified turns %v, want [1]", got)
	}
}

func TestRun_StopsWhenBattleDecided(t *testing.T) {
	a := mustAgent(t, unit("kael", 100, 30))
	enemy := unit("enemy", 100, 10)
	a.Engage(enemy, nil)
	w := world(0)

	outs := NewOrchestrator(nil).Run([]*Agent{a}, w, 50)
	if enemy.Alive() {
		t.Fatalf("enemy survived 50 turns with HP %v", enemy.HP)
	}
	if len(outs) >= 50 {
		t.Errorf("ran %d turns, want early stop", len(outs))
	}
	if w.Turn != len(outs) {
		t.Errorf("world turn = %d, want %d", w.Turn, len(outs))
	}
	last := outs[len(outs)-1]
	if !last.Eliminated {
		t.Errorf("last outcome = %+v, want elimination", last)
	}
}

func TestRun_WeightsStayBoundedOverLongCampaign(t *testing.T) {
	d := rules.DefaultDoctrine()
	d.LearningRate = 1
	d.Rewards.ManageHigh = 50
	d.Rewards.ManageLow = -50
	d.Rewards.ResearchFailure = -20
	a, err := New(unit("governor", 100, 10), d)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w := world(0)

	NewOrchestrator(rand.New(rand.NewSource(9))).Run([]*Agent{a}, w, 200)
	for k, v := range a.Weights.All() {
		if v < 0 || v > 1 {
			t.Errorf("weight %s = %v, outside [0,1]", k, v)
		}
	}
	if w.Turn != 200 {
		t.Errorf("world turn = %d, want 200 (no battle to end early)", w.Turn)
	}
}
