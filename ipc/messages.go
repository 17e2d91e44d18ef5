package ipc

// Message types exchanged with the game client.
const (
	TypeHello      = "hello"
	TypeAck        = "ack"
	TypeTurn       = "turn"
	TypeTurnResult = "turn_result"
	TypeError      = "error"
)

// HelloMessage describes the roster and the world signals a session starts from.
type HelloMessage struct {
	Player string     `json:"player"`
	Seed   int64      `json:"seed"`
	Units  []UnitSpec `json:"units"`
	Allies []AllySpec `json:"allies,omitempty"`
	World  WorldSpec  `json:"world"`
}

// UnitSpec declares one unit. Target and Support name other units in the roster.
type UnitSpec struct {
	Name       string  `json:"name"`
	HP         float64 `json:"hp"`
	MaxHP      float64 `json:"maxHp,omitempty"`
	Attack     float64 `json:"attack"`
	Morale     float64 `json:"morale,omitempty"`
	Aggression float64 `json:"aggression,omitempty"`
	Target     string  `json:"target,omitempty"`
	Support    string  `json:"support,omitempty"`
	// Passive units are part of the roster but never take a turn of their own.
	Passive bool `json:"passive,omitempty"`
}

type AllySpec struct {
	Name     string  `json:"name"`
	Affinity float64 `json:"affinity"`
}

type WorldSpec struct {
	FactionMorale    float64        `json:"factionMorale"`
	TechLevel        float64        `json:"techLevel"`
	DistanceToTarget float64        `json:"distanceToTarget"`
	Resources        map[string]int `json:"resources,omitempty"`
}

type AckMessage struct {
	Status string `json:"status"`
	Units  int    `json:"units,omitempty"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}
