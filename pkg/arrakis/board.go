package arrakis

// SectorCount is the number of storm sectors on the board ring.
const SectorCount = 18

// TerritoryID identifies a territory on the board.
type TerritoryID string

// Territory represents a single territory on the board.
type Territory struct {
	ID          TerritoryID
	Name        string
	Sectors     []int // storm sectors the territory spans, in ring order
	Stronghold  bool
	NeutralZone bool // the Polar Sink: storm-free, never produces battles
}

// Board holds the full territory catalogue.
type Board struct {
	Territories map[TerritoryID]*Territory
}

// Standard territory IDs referenced throughout the engine.
const (
	Arrakeen        TerritoryID = "arrakeen"
	Carthag         TerritoryID = "carthag"
	SietchTabr      TerritoryID = "sietch_tabr"
	HabbanyaSietch  TerritoryID = "habbanya_sietch"
	TueksSietch     TerritoryID = "tueks_sietch"
	PolarSink       TerritoryID = "polar_sink"
	ImperialBasin   TerritoryID = "imperial_basin"
	HaggaBasin      TerritoryID = "hagga_basin"
	CielagoNorth    TerritoryID = "cielago_north"
	CielagoSouth    TerritoryID = "cielago_south"
	FalseWallSouth  TerritoryID = "false_wall_south"
	FalseWallWest   TerritoryID = "false_wall_west"
	WindPass        TerritoryID = "wind_pass"
	TheGreatFlat    TerritoryID = "the_great_flat"
	FuneralPlain    TerritoryID = "funeral_plain"
	HabbanyaErg     TerritoryID = "habbanya_erg"
	RockOutcroppings TerritoryID = "rock_outcroppings"
	BrokenLand      TerritoryID = "broken_land"
	OldGap          TerritoryID = "old_gap"
	SihayaRidge     TerritoryID = "sihaya_ridge"
)

var standardBoard *Board

// StandardBoard returns the standard board catalogue. The catalogue is
// immutable and shared; callers must not mutate it.
func StandardBoard() *Board {
	if standardBoard != nil {
		return standardBoard
	}
	territories := []*Territory{
		{ID: Arrakeen, Name: "Arrakeen", Sectors: []int{9}, Stronghold: true},
		{ID: Carthag, Name: "Carthag", Sectors: []int{10}, Stronghold: true},
		{ID: SietchTabr, Name: "Sietch Tabr", Sectors: []int{13}, Stronghold: true},
		{ID: HabbanyaSietch, Name: "Habbanya Sietch", Sectors: []int{16}, Stronghold: true},
		{ID: TueksSietch, Name: "Tuek's Sietch", Sectors: []int{4}, Stronghold: true},
		{ID: PolarSink, Name: "Polar Sink", NeutralZone: true},
		{ID: ImperialBasin, Name: "Imperial Basin", Sectors: []int{8, 9, 10}},
		{ID: HaggaBasin, Name: "Hagga Basin", Sectors: []int{11, 12}},
		{ID: CielagoNorth, Name: "Cielago North", Sectors: []int{0, 1, 2}},
		{ID: CielagoSouth, Name: "Cielago South", Sectors: []int{1, 2}},
		{ID: FalseWallSouth, Name: "False Wall South", Sectors: []int{3, 4}},
		{ID: FalseWallWest, Name: "False Wall West", Sectors: []int{15, 16, 17}},
		{ID: WindPass, Name: "Wind Pass", Sectors: []int{13, 14, 15, 16}},
		{ID: TheGreatFlat, Name: "The Great Flat", Sectors: []int{14}},
		{ID: FuneralPlain, Name: "Funeral Plain", Sectors: []int{14}},
		{ID: HabbanyaErg, Name: "Habbanya Erg", Sectors: []int{15, 16}},
		{ID: RockOutcroppings, Name: "Rock Outcroppings", Sectors: []int{12, 13}},
		{ID: BrokenLand, Name: "Broken Land", Sectors: []int{10, 11}},
		{ID: OldGap, Name: "Old Gap", Sectors: []int{16, 17, 0}},
		{ID: SihayaRidge, Name: "Sihaya Ridge", Sectors: []int{8}},
	}
	b := &Board{Territories: make(map[TerritoryID]*Territory, len(territories))}
	for _, t := range territories {
		b.Territories[t.ID] = t
	}
	standardBoard = b
	return b
}

// Territory returns the territory with the given ID, or nil.
func (b *Board) Territory(id TerritoryID) *Territory {
	return b.Territories[id]
}

// StormArcs partitions a territory's sector span into arcs separated by the
// storm sector. Stacks in different arcs do not interact; the storm sector
// itself belongs to no arc. A territory outside the storm (or the neutral
// zone) yields a single arc.
func (b *Board) StormArcs(id TerritoryID, stormSector int) [][]int {
	t := b.Territories[id]
	if t == nil {
		return nil
	}
	if t.NeutralZone {
		return [][]int{nil}
	}

	inStorm := false
	for _, s := range t.Sectors {
		if s == stormSector {
			inStorm = true
			break
		}
	}
	if !inStorm {
		return [][]int{t.Sectors}
	}

	// A territory's sector list is a contiguous run on the ring, so removing
	// the storm sector leaves at most two runs.
	var arcs [][]int
	var current []int
	for _, s := range t.Sectors {
		if s == stormSector {
			if len(current) > 0 {
				arcs = append(arcs, current)
				current = nil
			}
			continue
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		arcs = append(arcs, current)
	}
	return arcs
}

// SectorInArc reports whether the sector belongs to the given arc. A nil arc
// (neutral zone) contains every sector.
func SectorInArc(sector int, arc []int) bool {
	if arc == nil {
		return true
	}
	for _, s := range arc {
		if s == sector {
			return true
		}
	}
	return false
}
