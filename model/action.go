package model

import (
	"fmt"
	"strings"
)

// ActionKind is one member of the closed set of actions a unit may take in a turn.
type ActionKind int

// Declaration order is the tie-break priority: when two candidates rank equally,
// the one declared first wins.
const (
	Attack ActionKind = iota
	AggressiveAttack
	SpecialAttack
	Retreat
	SeekSupport
	Manage
	Research
	Romance
	Move
	Idle
)

// ActionPriority lists every ActionKind in tie-break order.
var ActionPriority = []ActionKind{
	Attack,
	AggressiveAttack,
	SpecialAttack,
	Retreat,
	SeekSupport,
	Manage,
	Research,
	Romance,
	Move,
	Idle,
}

var actionNames = map[ActionKind]string{
	Attack:           "attack",
	AggressiveAttack: "aggressive_attack",
	SpecialAttack:    "special_attack",
	Retreat:          "retreat",
	SeekSupport:      "seek_support",
	Manage:           "manage",
	Research:         "research",
	Romance:          "romance",
	Move:             "move",
	Idle:             "idle",
}

func (k ActionKind) String() string {
	if s, ok := actionNames[k]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Valid reports whether k is a declared ActionKind.
func (k ActionKind) Valid() bool {
	_, ok := actionNames[k]
	return ok
}

// IsCombat reports whether k deals damage to a target.
func (k ActionKind) IsCombat() bool {
	return k == Attack || k == AggressiveAttack || k == SpecialAttack
}

// ParseActionKind accepts the snake_case name (case-insensitive, hyphens allowed).
func ParseActionKind(s string) (ActionKind, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, k := range ActionPriority {
		if actionNames[k] == norm {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action kind %q", s)
}

func (k ActionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown action kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *ActionKind) UnmarshalText(b []byte) error {
	parsed, err := ParseActionKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
