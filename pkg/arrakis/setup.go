package arrakis

import "sort"

// stormStartSector is where the storm marker begins the game.
const stormStartSector = 0

// startingSpice holds each faction's opening spice bank.
var startingSpice = map[Faction]int{
	Atreides:     10,
	Harkonnen:    10,
	Emperor:      10,
	Fremen:       3,
	Guild:        5,
	BeneGesserit: 5,
}

// startingForce is one faction's opening deployment.
type startingForce struct {
	territory TerritoryID
	sector    int
	regular   int
	advisors  int
}

var startingForces = map[Faction][]startingForce{
	Atreides:  {{territory: Arrakeen, sector: 9, regular: 10}},
	Harkonnen: {{territory: Carthag, sector: 10, regular: 10}},
	Guild:     {{territory: TueksSietch, sector: 4, regular: 5}},
	Fremen: {
		{territory: SietchTabr, sector: 13, regular: 3},
		{territory: FalseWallSouth, sector: 4, regular: 3},
		{territory: FalseWallWest, sector: 17, regular: 4},
	},
	// The lone Bene Gesserit troop starts in the Polar Sink; under advanced
	// rules it is an advisor.
	BeneGesserit: {{territory: PolarSink, regular: 1}},
	// The Emperor starts with all forces in reserve.
	Emperor: {},
}

// NewGameState builds the opening snapshot for the seated factions: starting
// deployments, leader pools, spice banks, and the storm order computed from
// evenly spaced seats around the ring. Traitor cards are dealt by the setup
// phase and start empty here.
func NewGameState(seated []Faction, advanced bool) *GameState {
	gs := &GameState{
		StormSector:   stormStartSector,
		AdvancedRules: advanced,
		Spice:         make(map[Faction]int, len(seated)),
		Hands:         make(map[Faction][]CardID, len(seated)),
		Traitors:      make(map[Faction][]TraitorCard, len(seated)),
	}

	seats := make(map[Faction]int, len(seated))
	spacing := SectorCount / len(seated)
	if spacing == 0 {
		spacing = 1
	}
	for i, f := range seated {
		seats[f] = (i * spacing) % SectorCount
	}
	gs.Seats = seats
	gs.StormOrder = ComputeStormOrder(gs.StormSector, seats)

	for _, f := range seated {
		gs.Spice[f] = startingSpice[f]
		gs.Hands[f] = nil
		gs.Traitors[f] = nil

		for _, sf := range startingForces[f] {
			stack := ForceStack{
				Faction:   f,
				Territory: sf.territory,
				Sector:    sf.sector,
				Regular:   sf.regular,
			}
			if f == BeneGesserit && advanced {
				stack.Advisors = stack.Regular
				stack.Regular = 0
			}
			gs.Forces = append(gs.Forces, stack)
		}

		defs := LeadersOf(f)
		sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
		for _, def := range defs {
			gs.Leaders = append(gs.Leaders, LeaderRecord{
				ID:       def.ID,
				Owner:    f,
				HeldBy:   f,
				Location: LeaderInPool,
			})
		}
	}

	// KHAvailable stays false until the Atreides have lost enough forces in
	// battle; the caller flips it when that threshold is crossed.
	return gs
}

// NextTurn rolls a snapshot over to the next turn: committed leaders return
// to their pools, the storm advances by the dial, and the storm order is
// recomputed from the seats. The input snapshot is not mutated.
func NextTurn(gs *GameState, stormDial int) *GameState {
	next := gs.Clone()
	for i := range next.Leaders {
		if next.Leaders[i].Location == LeaderActive {
			next.Leaders[i].Location = LeaderInPool
			next.Leaders[i].Territory = ""
		}
	}
	next.StormSector = AdvanceStorm(next.StormSector, stormDial)
	if len(next.Seats) > 0 {
		next.StormOrder = ComputeStormOrder(next.StormSector, next.Seats)
	}
	return next
}
