package arrakis

import (
	"reflect"
	"testing"
)

func TestIdentifyBattles_TwoFactionsSameTerritory(t *testing.T) {
	gs := testState(Atreides, Harkonnen)
	addForces(gs, Atreides, ImperialBasin, 9, 5, 0)
	addForces(gs, Harkonnen, ImperialBasin, 10, 4, 0)

	battles, _ := IdentifyBattles(gs, StandardBoard())
	if len(battles) != 1 {
		t.Fatalf("expected 1 battle, got %d", len(battles))
	}
	b := battles[0]
	if b.Territory != ImperialBasin {
		t.Errorf("expected battle in imperial basin, got %s", b.Territory)
	}
	if !reflect.DeepEqual(b.Factions, []Faction{Atreides, Harkonnen}) {
		t.Errorf("participants should be in storm order, got %v", b.Factions)
	}
}

func TestIdentifyBattles_StormSeparatesArcs(t *testing.T) {
	gs := testState(Atreides, Harkonnen)
	gs.StormSector = 9
	addForces(gs, Atreides, ImperialBasin, 8, 5, 0)
	addForces(gs, Harkonnen, ImperialBasin, 10, 4, 0)

	battles, _ := IdentifyBattles(gs, StandardBoard())
	if len(battles) != 0 {
		t.Errorf("stacks in different storm arcs should not fight, got %d battles", len(battles))
	}
}

func TestIdentifyBattles_StormSectorStacksExcluded(t *testing.T) {
	gs := testState(Atreides, Harkonnen)
	gs.StormSector = 9
	addForces(gs, Atreides, ImperialBasin, 9, 5, 0)
	addForces(gs, Harkonnen, ImperialBasin, 9, 4, 0)

	battles, _ := IdentifyBattles(gs, StandardBoard())
	if len(battles) != 0 {
		t.Errorf("stacks in the storm sector should not fight, got %d battles", len(battles))
	}
}

func TestIdentifyBattles_NeutralZoneNeverFights(t *testing.T) {
	gs := testState(Atreides, Harkonnen)
	addForces(gs, Atreides, PolarSink, 0, 5, 0)
	addForces(gs, Harkonnen, PolarSink, 0, 4, 0)

	battles, _ := IdentifyBattles(gs, StandardBoard())
	if len(battles) != 0 {
		t.Errorf("polar sink should never produce battles, got %d", len(battles))
	}
}

func TestIdentifyBattles_AdvisorsNotOccupants(t *testing.T) {
	gs := testState(Atreides, BeneGesserit)
	addForces(gs, Atreides, ImperialBasin, 9, 5, 0)
	addAdvisors(gs, ImperialBasin, 9, 3)

	battles, _ := IdentifyBattles(gs, StandardBoard())
	if len(battles) != 0 {
		t.Errorf("lone advisors should not contest a territory, got %d battles", len(battles))
	}
}

func TestIdentifyBattles_StrongholdViolationInformational(t *testing.T) {
	gs := testState(Atreides, Harkonnen, Fremen)
	addForces(gs, Atreides, Arrakeen, 9, 2, 0)
	addForces(gs, Harkonnen, Arrakeen, 9, 2, 0)
	addForces(gs, Fremen, Arrakeen, 9, 2, 0)

	battles, events := IdentifyBattles(gs, StandardBoard())
	if !hasEvent(events, EventStrongholdViolation) {
		t.Error("expected a stronghold occupancy violation event")
	}
	if len(battles) != 1 {
		t.Errorf("violation should not block identification, got %d battles", len(battles))
	}
	if len(battles[0].Factions) != 3 {
		t.Errorf("expected 3 participants, got %v", battles[0].Factions)
	}
}

func TestIdentifyBattles_Idempotent(t *testing.T) {
	gs := testState(Atreides, Harkonnen)
	addForces(gs, Atreides, ImperialBasin, 9, 5, 0)
	addForces(gs, Harkonnen, ImperialBasin, 10, 4, 0)
	addForces(gs, Atreides, WindPass, 14, 1, 0)
	addForces(gs, Harkonnen, WindPass, 15, 1, 0)

	first, _ := IdentifyBattles(gs, StandardBoard())
	second, _ := IdentifyBattles(gs, StandardBoard())
	if !reflect.DeepEqual(first, second) {
		t.Error("identification against an unchanged state should be identical")
	}
}

func TestFlipLoneAdvisors_Flips(t *testing.T) {
	gs := testState(Atreides, BeneGesserit)
	gs.AdvancedRules = true
	addAdvisors(gs, ImperialBasin, 9, 3)
	addForces(gs, Atreides, ImperialBasin, 9, 5, 0)

	events := FlipLoneAdvisors(gs, StandardBoard())
	if countEvents(events, EventAdvisorsFlipped) != 1 {
		t.Fatal("expected one advisors_flipped event")
	}
	reg, _ := gs.FightersIn(BeneGesserit, ImperialBasin, nil)
	if reg != 3 {
		t.Errorf("expected 3 fighters after flip, got %d", reg)
	}
}

func TestFlipLoneAdvisors_BlockedByAllyPeacetime(t *testing.T) {
	gs := testState(Atreides, BeneGesserit)
	gs.AdvancedRules = true
	gs.Alliances = map[Faction]Faction{BeneGesserit: Atreides, Atreides: BeneGesserit}
	addAdvisors(gs, ImperialBasin, 9, 3)
	addForces(gs, Atreides, ImperialBasin, 9, 5, 0)

	if events := FlipLoneAdvisors(gs, StandardBoard()); len(events) != 0 {
		t.Error("advisors beside an ally should not flip")
	}
}

func TestFlipLoneAdvisors_BlockedByStorm(t *testing.T) {
	gs := testState(Atreides, BeneGesserit)
	gs.AdvancedRules = true
	gs.StormSector = 9
	addAdvisors(gs, ImperialBasin, 9, 3)

	if events := FlipLoneAdvisors(gs, StandardBoard()); len(events) != 0 {
		t.Error("advisors in the storm sector should not flip")
	}
}

func TestFlipLoneAdvisors_BasicRulesNoop(t *testing.T) {
	gs := testState(Atreides, BeneGesserit)
	addAdvisors(gs, ImperialBasin, 9, 3)

	if events := FlipLoneAdvisors(gs, StandardBoard()); len(events) != 0 {
		t.Error("flip pass should only run under advanced rules")
	}
}
