package arrakis

import "testing"

// testState builds a snapshot with the given factions seated in storm order,
// every leader alive in its owner's pool, empty hands, and 10 spice each.
func testState(order ...Faction) *GameState {
	gs := &GameState{
		StormSector: 6,
		StormOrder:  order,
		Spice:       make(map[Faction]int),
		Hands:       make(map[Faction][]CardID),
		Traitors:    make(map[Faction][]TraitorCard),
	}
	for _, f := range order {
		gs.Spice[f] = 10
		for _, def := range LeadersOf(f) {
			gs.Leaders = append(gs.Leaders, LeaderRecord{
				ID:       def.ID,
				Owner:    f,
				HeldBy:   f,
				Location: LeaderInPool,
			})
		}
	}
	return gs
}

func addForces(gs *GameState, f Faction, territory TerritoryID, sector, regular, elite int) {
	gs.Forces = append(gs.Forces, ForceStack{
		Faction:   f,
		Territory: territory,
		Sector:    sector,
		Regular:   regular,
		Elite:     elite,
	})
}

func addAdvisors(gs *GameState, territory TerritoryID, sector, count int) {
	gs.Forces = append(gs.Forces, ForceStack{
		Faction:   BeneGesserit,
		Territory: territory,
		Sector:    sector,
		Advisors:  count,
	})
}

func giveCard(gs *GameState, f Faction, id CardID) {
	gs.Hands[f] = append(gs.Hands[f], id)
}

func giveTraitor(gs *GameState, holder Faction, leader LeaderID) {
	def := LeaderByID(leader)
	gs.Traitors[holder] = append(gs.Traitors[holder], TraitorCard{
		Leader:        leader,
		LeaderFaction: def.Faction,
		Holder:        holder,
	})
}

// twoSidedBattle builds a battle context already past identification, with
// the aggressor and defender assigned.
func twoSidedBattle(territory TerritoryID, sectors []int, aggressor, defender Faction) *Battle {
	return &Battle{
		Territory:    territory,
		Sectors:      sectors,
		Factions:     []Faction{aggressor, defender},
		Aggressor:    aggressor,
		Defender:     defender,
		TraitorCalls: make(map[Faction]bool),
	}
}

func hasEvent(events []Event, t EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func countEvents(events []Event, t EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// drive steps the phase to completion, answering every pending request with
// the supplied function. Guards against a stuck machine.
func drive(t *testing.T, ps *PhaseState, answer func(PendingRequest) AgentResponse) {
	t.Helper()
	res, err := ps.Step(nil)
	if err != nil {
		t.Fatalf("initial step: %v", err)
	}
	for i := 0; i < 200; i++ {
		if res.Complete {
			return
		}
		if len(res.Pending) == 0 {
			t.Fatal("phase incomplete with nothing pending")
		}
		responses := make([]AgentResponse, 0, len(res.Pending))
		for _, req := range res.Pending {
			responses = append(responses, answer(req))
		}
		res, err = ps.Step(responses)
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if len(res.Rejections) > 0 {
			t.Fatalf("unexpected rejection: %+v", res.Rejections[0])
		}
	}
	t.Fatal("phase did not complete within 200 steps")
}

// defaultAnswer answers every request with its deterministic default.
func defaultAnswer(req PendingRequest) AgentResponse {
	return AgentResponse{Faction: req.Faction, Type: req.Type, Default: true}
}
