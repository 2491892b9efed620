package agent

import (
	"github.com/kynes/landsraad/pkg/arrakis"
)

// Strategy answers one pending engine request for an agent-controlled
// faction. Implementations must be deterministic for a given state so
// scripted runs are replayable.
type Strategy interface {
	Name() string
	Respond(gs *arrakis.GameState, req arrakis.PendingRequest) arrakis.AgentResponse
}

// ForStrategy returns the strategy registered under a name. Unknown names
// fall back to the cautious strategy.
func ForStrategy(name string) Strategy {
	switch name {
	case "aggressive":
		return &AggressiveStrategy{}
	case "craven":
		return &CravenStrategy{}
	default:
		return &CautiousStrategy{}
	}
}

// defaultResponse answers any request with the engine's deterministic default.
func defaultResponse(req arrakis.PendingRequest) arrakis.AgentResponse {
	return arrakis.AgentResponse{Faction: req.Faction, Type: req.Type, Default: true}
}

// contextInt reads an integer out of a request context. Context values arrive
// as int from the engine or float64 after a JSON round trip.
func contextInt(req arrakis.PendingRequest, key string) int {
	switch v := req.Context[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func contextString(req arrakis.PendingRequest, key string) string {
	s, _ := req.Context[key].(string)
	return s
}

// strongestLeader picks the strongest uncommitted leader the faction holds,
// or "" when every leader is dead or committed elsewhere.
func strongestLeader(gs *arrakis.GameState, f arrakis.Faction, territory arrakis.TerritoryID) arrakis.LeaderID {
	for _, rec := range gs.LeadersHeldBy(f) {
		if !rec.Alive() {
			continue
		}
		if rec.Location == arrakis.LeaderActive && rec.Territory != territory {
			continue
		}
		return rec.ID
	}
	return ""
}

// heldCard returns the first card in the faction's hand satisfying the
// predicate.
func heldCard(gs *arrakis.GameState, f arrakis.Faction, match func(arrakis.CardID) bool) arrakis.CardID {
	for _, id := range gs.Hands[f] {
		if match(id) {
			return id
		}
	}
	return ""
}

// --- CautiousStrategy ---

// CautiousStrategy dials half its forces behind its strongest leader, plays a
// defense when it holds one, calls traitors when offered, and otherwise takes
// the engine defaults.
type CautiousStrategy struct{}

func (CautiousStrategy) Name() string { return "cautious" }

func (CautiousStrategy) Respond(gs *arrakis.GameState, req arrakis.PendingRequest) arrakis.AgentResponse {
	switch req.Type {
	case arrakis.RequestBattlePlan:
		territory := arrakis.TerritoryID(contextString(req, "territory"))
		plan := &arrakis.PlanInput{
			RegularDialed: contextInt(req, "regular") / 2,
			EliteDialed:   contextInt(req, "elite") / 2,
		}
		if leader := strongestLeader(gs, req.Faction, territory); leader != "" {
			plan.Leader = leader
			if def := heldCard(gs, req.Faction, arrakis.IsDefense); def != "" {
				plan.Defense = def
			}
		} else {
			plan.NoLeader = true
		}
		return arrakis.AgentResponse{Faction: req.Faction, Type: req.Type, Plan: plan}
	case arrakis.RequestCallTraitor:
		yes := true
		return arrakis.AgentResponse{Faction: req.Faction, Type: req.Type, CallTraitor: &yes}
	default:
		return defaultResponse(req)
	}
}

// --- AggressiveStrategy ---

// AggressiveStrategy commits everything: full dial, strongest leader, weapon
// and defense when held, spice backing under advanced rules, traitor calls,
// captures over kills.
type AggressiveStrategy struct{}

func (AggressiveStrategy) Name() string { return "aggressive" }

func (AggressiveStrategy) Respond(gs *arrakis.GameState, req arrakis.PendingRequest) arrakis.AgentResponse {
	switch req.Type {
	case arrakis.RequestBattlePlan:
		territory := arrakis.TerritoryID(contextString(req, "territory"))
		regular := contextInt(req, "regular")
		elite := contextInt(req, "elite")
		plan := &arrakis.PlanInput{
			RegularDialed: regular,
			EliteDialed:   elite,
		}
		if leader := strongestLeader(gs, req.Faction, territory); leader != "" {
			plan.Leader = leader
			if w := heldCard(gs, req.Faction, arrakis.IsWeapon); w != "" {
				plan.Weapon = w
			}
			if def := heldCard(gs, req.Faction, arrakis.IsDefense); def != "" {
				plan.Defense = def
			}
		} else {
			plan.NoLeader = true
		}
		if gs.AdvancedRules {
			spice := gs.SpiceOf(req.Faction)
			dialed := regular + elite
			if spice < dialed {
				plan.SpiceDialed = spice
			} else {
				plan.SpiceDialed = dialed
			}
		}
		return arrakis.AgentResponse{Faction: req.Faction, Type: req.Type, Plan: plan}
	case arrakis.RequestCallTraitor:
		yes := true
		return arrakis.AgentResponse{Faction: req.Faction, Type: req.Type, CallTraitor: &yes}
	case arrakis.RequestCaptureChoice:
		capture := true
		return arrakis.AgentResponse{Faction: req.Faction, Type: req.Type, Capture: &capture}
	default:
		return defaultResponse(req)
	}
}

// --- CravenStrategy ---

// CravenStrategy never commits anything: it takes the engine default at every
// suspension point. Useful as a baseline opponent in scripted runs.
type CravenStrategy struct{}

func (CravenStrategy) Name() string { return "craven" }

func (CravenStrategy) Respond(_ *arrakis.GameState, req arrakis.PendingRequest) arrakis.AgentResponse {
	return defaultResponse(req)
}
