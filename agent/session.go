package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/nstehr/vimy/vimy-tactics/ipc"
	"github.com/nstehr/vimy/vimy-tactics/model"
	"github.com/nstehr/vimy/vimy-tactics/rules"
)

// MaxTurnsPerCommand bounds how many turns a single turn command may request.
const MaxTurnsPerCommand = 1000

var (
	ErrNoRoster      = errors.New("no roster: send hello first")
	ErrInvalidRoster = errors.New("invalid roster")
)

// Session owns one client's roster and plays turns on request.
type Session struct {
	Player string

	doctrine  rules.Doctrine
	notifiers []Notifier

	units  []*model.Unit
	agents []*Agent
	world  *model.World
	orch   *Orchestrator
}

func NewSession(d rules.Doctrine, notifiers ...Notifier) *Session {
	d.Validate()
	return &Session{doctrine: d, notifiers: notifiers}
}

// Register wires the session's handlers into a connection.
func (s *Session) Register(c *ipc.Connection) {
	c.RegisterHandler(ipc.TypeHello, s.HandleHello)
	c.RegisterHandler(ipc.TypeTurn, s.HandleTurn)
}

// HandleHello replaces the roster with the one described by the client.
func (s *Session) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}
	if err := s.Start(hello); err != nil {
		return nil, err
	}

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Units: len(s.units)})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleTurn plays the requested number of turns and reports the result.
func (s *Session) HandleTurn(env ipc.Envelope) (*ipc.Envelope, error) {
	var cmd ipc.TurnCommand
	if err := env.Decode(&cmd); err != nil {
		return nil, err
	}
	res, err := s.Play(cmd.Turns)
	if err != nil {
		return nil, err
	}

	reply, err := ipc.NewEnvelope(ipc.TypeTurnResult, res)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// Start builds the roster and world from hello. Any previous roster is dropped.
func (s *Session) Start(hello ipc.HelloMessage) error {
	units, agents, err := buildRoster(hello, s.doctrine)
	if err != nil {
		return err
	}

	s.Player = hello.Player
	s.units = units
	s.agents = agents
	s.world = buildWorld(hello)
	s.orch = NewOrchestrator(rand.New(rand.NewSource(hello.Seed)), s.notifiers...)

	slog.Info("roster received",
		"player", s.Player,
		"units", len(units),
		"acting", len(agents),
		"allies", len(hello.Allies),
		"seed", hello.Seed,
	)
	return nil
}

// Play runs up to turns turns, stopping early once the battle is decided.
// Zero or fewer plays a single turn.
func (s *Session) Play(turns int) (ipc.TurnResult, error) {
	if s.orch == nil {
		return ipc.TurnResult{}, ErrNoRoster
	}
	if turns <= 0 {
		turns = 1
	}
	if turns > MaxTurnsPerCommand {
		return ipc.TurnResult{}, fmt.Errorf("turns %d exceeds limit %d", turns, MaxTurnsPerCommand)
	}

	outcomes := s.orch.Run(s.agents, s.world, turns)
	res := s.Result(outcomes)

	slog.Info("turns played",
		"player", s.Player,
		"turn", s.world.Turn,
		"outcomes", len(outcomes),
		"over", res.Over,
	)
	return res, nil
}

// Result snapshots the session state after outcomes were produced.
func (s *Session) Result(outcomes []model.TurnOutcome) ipc.TurnResult {
	if outcomes == nil {
		outcomes = []model.TurnOutcome{}
	}
	res := ipc.TurnResult{
		Outcomes: outcomes,
		Units:    make([]model.Unit, 0, len(s.units)),
		Weights:  make(map[string]map[model.ActionKind]float64, len(s.agents)),
		Over:     BattleOver(s.agents),
	}
	for _, u := range s.units {
		res.Units = append(res.Units, *u)
	}
	for _, a := range s.agents {
		res.Weights[a.Unit.Name] = a.Weights.Snapshot()
	}
	if s.world != nil {
		res.World = *s.world
		res.World.Resources = make(model.ResourcePool, len(s.world.Resources))
		for k, v := range s.world.Resources {
			res.World.Resources[k] = v
		}
		res.World.Allies = make([]*model.Ally, 0, len(s.world.Allies))
		for _, a := range s.world.Allies {
			cp := *a
			res.World.Allies = append(res.World.Allies, &cp)
		}
	}
	return res
}

func buildRoster(hello ipc.HelloMessage, d rules.Doctrine) ([]*model.Unit, []*Agent, error) {
	if len(hello.Units) == 0 {
		return nil, nil, fmt.Errorf("%w: no units", ErrInvalidRoster)
	}

	byName := make(map[string]*model.Unit, len(hello.Units))
	units := make([]*model.Unit, 0, len(hello.Units))
	for _, spec := range hello.Units {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: unit without a name", ErrInvalidRoster)
		}
		if _, dup := byName[name]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate unit %q", ErrInvalidRoster, name)
		}
		u := model.NewUnit(name, spec.HP, spec.Attack)
		if spec.MaxHP > 0 {
			u.MaxHP = spec.MaxHP
		}
		if u.MaxHP <= 0 {
			return nil, nil, fmt.Errorf("%w: unit %q has no health", ErrInvalidRoster, name)
		}
		if u.HP > u.MaxHP {
			u.HP = u.MaxHP
		}
		if spec.Morale > 0 {
			u.Morale = spec.Morale
		}
		if spec.Aggression > 0 {
			u.Aggression = min(spec.Aggression, 1)
		}
		byName[name] = u
		units = append(units, u)
	}

	lookup := func(owner, role, name string) (*model.Unit, error) {
		if name == "" {
			return nil, nil
		}
		u, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s of %q names unknown unit %q", ErrInvalidRoster, role, owner, name)
		}
		if name == owner {
			return nil, fmt.Errorf("%w: %q cannot be its own %s", ErrInvalidRoster, owner, role)
		}
		return u, nil
	}

	var agents []*Agent
	for i, spec := range hello.Units {
		if spec.Passive {
			continue
		}
		u := units[i]
		target, err := lookup(u.Name, "target", spec.Target)
		if err != nil {
			return nil, nil, err
		}
		support, err := lookup(u.Name, "support", spec.Support)
		if err != nil {
			return nil, nil, err
		}
		a, err := New(u, d)
		if err != nil {
			return nil, nil, err
		}
		a.Engage(target, support)
		agents = append(agents, a)
	}
	return units, agents, nil
}

func buildWorld(hello ipc.HelloMessage) *model.World {
	w := &model.World{
		FactionMorale:    hello.World.FactionMorale,
		TechLevel:        hello.World.TechLevel,
		DistanceToTarget: hello.World.DistanceToTarget,
		Resources:        make(model.ResourcePool, len(hello.World.Resources)),
	}
	for name, n := range hello.World.Resources {
		w.Resources.Add(name, n)
	}
	for _, a := range hello.Allies {
		w.Allies = append(w.Allies, &model.Ally{Name: a.Name, Affinity: a.Affinity})
	}
	return w
}
