package rules

import (
	"fmt"

	"github.com/nstehr/vimy/vimy-tactics/model"
)

// Rule names used by the compiled doctrine tree.
const (
	RuleRetreat     = "retreat"
	RuleSeekSupport = "seek-support"
	RuleSpecial     = "special-attack"
	RuleAggressive  = "aggressive-attack"
	RuleAttack      = "attack"
)

// CompileDoctrine builds a unit's priority tree from a doctrine's thresholds.
// Survival checks come first so a dying unit always retreats, then support,
// then the scarce-resource special, then the default attack which succeeds
// whenever a live target is assigned. Without a target the tree settles
// nothing and utility ranking picks among strategic actions.
func CompileDoctrine(d Doctrine) (*Node, error) {
	d.Validate()

	root := Selector("main",
		Sequence("survival",
			Condition(RuleRetreat,
				fmt.Sprintf(`Health() < %g`, d.RetreatHealth),
				model.Retreat),
		),
		Sequence("support",
			Guard("wounded", fmt.Sprintf(`Health() < %g`, d.SupportHealth)),
			Condition(RuleSeekSupport, `SupportAvailable()`, model.SeekSupport),
		),
		Sequence("special",
			Guard("has-target", `HasTarget()`),
			Condition(RuleSpecial,
				fmt.Sprintf(`Resource(%q) >= %d`, d.SpecialResource, d.SpecialCost),
				model.SpecialAttack),
		),
		Sequence("aggressive",
			Guard("has-target", `HasTarget()`),
			Condition(RuleAggressive,
				fmt.Sprintf(`Aggression() > %g`, d.AggressionThreshold),
				model.AggressiveAttack),
		),
		Condition(RuleAttack,
			fmt.Sprintf(`HasTarget() && Attack() >= %g`, d.MinAttack),
			model.Attack),
	)

	if err := Compile(root); err != nil {
		return nil, fmt.Errorf("compile doctrine %q: %w", d.Name, err)
	}
	return root, nil
}
