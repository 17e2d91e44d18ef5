// Package config loads the YAML configuration shared by the simulate and
// serve commands: the doctrine every unit follows, the scenario a simulation
// starts from and the server endpoints.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/vimy/vimy-tactics/ipc"
	"github.com/nstehr/vimy/vimy-tactics/rules"
)

var ErrInvalidConfig = errors.New("invalid config")

var validate = validator.New()

type Config struct {
	LogLevel string         `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Doctrine rules.Doctrine `json:"doctrine" yaml:"doctrine"`
	Scenario Scenario       `json:"scenario" yaml:"scenario"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// Scenario is the starting roster and world for a simulation.
type Scenario struct {
	Turns  int          `json:"turns" yaml:"turns" validate:"gte=1,lte=1000"`
	Seed   int64        `json:"seed" yaml:"seed"`
	Units  []UnitConfig `json:"units" yaml:"units" validate:"required,min=1,dive"`
	Allies []AllyConfig `json:"allies" yaml:"allies" validate:"dive"`
	World  WorldConfig  `json:"world" yaml:"world"`
}

type UnitConfig struct {
	Name       string  `json:"name" yaml:"name" validate:"required"`
	HP         float64 `json:"hp" yaml:"hp" validate:"gt=0"`
	MaxHP      float64 `json:"max_hp" yaml:"max_hp" validate:"omitempty,gtefield=HP"`
	Attack     float64 `json:"attack" yaml:"attack" validate:"gte=0"`
	Aggression float64 `json:"aggression" yaml:"aggression" validate:"gte=0,lte=1"`
	Target     string  `json:"target" yaml:"target" validate:"omitempty,nefield=Name"`
	Support    string  `json:"support" yaml:"support" validate:"omitempty,nefield=Name"`
	Passive    bool    `json:"passive" yaml:"passive"`
}

type AllyConfig struct {
	Name     string  `json:"name" yaml:"name" validate:"required"`
	Affinity float64 `json:"affinity" yaml:"affinity" validate:"gte=0,lte=100"`
}

type WorldConfig struct {
	FactionMorale    float64        `json:"faction_morale" yaml:"faction_morale" validate:"gte=0,lte=100"`
	TechLevel        float64        `json:"tech_level" yaml:"tech_level" validate:"gte=0,lte=10"`
	DistanceToTarget float64        `json:"distance_to_target" yaml:"distance_to_target" validate:"gte=0,lte=20"`
	Resources        map[string]int `json:"resources" yaml:"resources" validate:"dive,gte=0"`
}

type ServerConfig struct {
	Socket      string `json:"socket" yaml:"socket" validate:"required"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr" validate:"omitempty,hostname_port"`
	Journal     string `json:"journal" yaml:"journal"`
}

// Default returns a complete configuration: the default doctrine and a
// three-unit skirmish.
func Default() Config {
	return Config{
		LogLevel: "info",
		Doctrine: rules.DefaultDoctrine(),
		Scenario: Scenario{
			Turns: 10,
			Seed:  1,
			Units: []UnitConfig{
				{Name: "lancer", HP: 100, Attack: 12, Aggression: 0.5, Target: "raider", Support: "medic"},
				{Name: "medic", HP: 80, Attack: 4, Aggression: 0.2, Passive: true},
				{Name: "raider", HP: 120, Attack: 9, Aggression: 0.9, Target: "lancer"},
			},
			Allies: []AllyConfig{
				{Name: "sydra", Affinity: 40},
				{Name: "orin", Affinity: 65},
			},
			World: WorldConfig{
				FactionMorale:    50,
				TechLevel:        1,
				DistanceToTarget: 12,
				Resources:        map[string]int{"ether": 3, "credits": 200},
			},
		},
		Server: ServerConfig{
			Socket: "/tmp/vimy-tactics.sock",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// Struct tags are checked first, then the doctrine is clamped.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Check(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping any field the document leaves out.
// A resources map in the document replaces the existing one outright.
func Parse(data []byte, cfg *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse: %v", ErrInvalidConfig, err)
	}
	if doc.Kind == 0 {
		return nil
	}
	if hasKey(&doc, "scenario", "world", "resources") {
		cfg.Scenario.World.Resources = nil
	}
	if err := doc.Decode(cfg); err != nil {
		return fmt.Errorf("%w: parse: %v", ErrInvalidConfig, err)
	}
	return nil
}

// hasKey reports whether the mapping path exists in a decoded document.
func hasKey(n *yaml.Node, path ...string) bool {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return false
		}
		n = n.Content[0]
	}
	for _, key := range path {
		if n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Check validates struct tags and clamps the doctrine.
func (c *Config) Check() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Doctrine.Validate()
	return nil
}

// Hello converts the scenario into the roster message a session starts from.
func (s Scenario) Hello(player string) ipc.HelloMessage {
	hello := ipc.HelloMessage{
		Player: player,
		Seed:   s.Seed,
		World: ipc.WorldSpec{
			FactionMorale:    s.World.FactionMorale,
			TechLevel:        s.World.TechLevel,
			DistanceToTarget: s.World.DistanceToTarget,
			Resources:        make(map[string]int, len(s.World.Resources)),
		},
	}
	for name, n := range s.World.Resources {
		hello.World.Resources[name] = n
	}
	for _, u := range s.Units {
		hello.Units = append(hello.Units, ipc.UnitSpec{
			Name:       u.Name,
			HP:         u.HP,
			MaxHP:      u.MaxHP,
			Attack:     u.Attack,
			Aggression: u.Aggression,
			Target:     u.Target,
			Support:    u.Support,
			Passive:    u.Passive,
		})
	}
	for _, a := range s.Allies {
		hello.Allies = append(hello.Allies, ipc.AllySpec{Name: a.Name, Affinity: a.Affinity})
	}
	return hello
}
