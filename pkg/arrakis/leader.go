package arrakis

// LeaderID identifies a leader definition.
type LeaderID string

// LeaderLocation tracks where a leader currently is.
type LeaderLocation string

const (
	LeaderInPool        LeaderLocation = "pool"
	LeaderActive        LeaderLocation = "active" // committed to a battle territory this phase
	LeaderTanksFaceUp   LeaderLocation = "tanks_face_up"
	LeaderTanksFaceDown LeaderLocation = "tanks_face_down"
)

// LeaderDef is a leader's immutable definition.
type LeaderDef struct {
	ID       LeaderID
	Name     string
	Faction  Faction
	Strength int
}

// LeaderRecord is a leader's mutable game state. Owner never changes;
// HeldBy differs from Owner only while the leader is captured.
type LeaderRecord struct {
	ID         LeaderID       `json:"id"`
	Owner      Faction        `json:"owner"`
	HeldBy     Faction        `json:"held_by"`
	Location   LeaderLocation `json:"location"`
	Territory  TerritoryID    `json:"territory,omitempty"` // set while Location == active
	OnceKilled bool           `json:"once_killed,omitempty"`
}

// Captured reports whether the leader is currently held by a capturer.
func (l *LeaderRecord) Captured() bool {
	return l.HeldBy != l.Owner
}

// Alive reports whether the leader is not in the tanks.
func (l *LeaderRecord) Alive() bool {
	return l.Location == LeaderInPool || l.Location == LeaderActive
}

var leaderTable = map[LeaderID]*LeaderDef{
	// Atreides
	"thufir_hawat":    {ID: "thufir_hawat", Name: "Thufir Hawat", Faction: Atreides, Strength: 5},
	"lady_jessica":    {ID: "lady_jessica", Name: "Lady Jessica", Faction: Atreides, Strength: 5},
	"gurney_halleck":  {ID: "gurney_halleck", Name: "Gurney Halleck", Faction: Atreides, Strength: 4},
	"duncan_idaho":    {ID: "duncan_idaho", Name: "Duncan Idaho", Faction: Atreides, Strength: 2},
	"dr_yueh":         {ID: "dr_yueh", Name: "Dr. Wellington Yueh", Faction: Atreides, Strength: 1},
	// Harkonnen
	"feyd_rautha":     {ID: "feyd_rautha", Name: "Feyd-Rautha", Faction: Harkonnen, Strength: 6},
	"beast_rabban":    {ID: "beast_rabban", Name: "Beast Rabban", Faction: Harkonnen, Strength: 4},
	"piter_de_vries":  {ID: "piter_de_vries", Name: "Piter de Vries", Faction: Harkonnen, Strength: 3},
	"captain_iakin":   {ID: "captain_iakin", Name: "Captain Iakin Nefud", Faction: Harkonnen, Strength: 2},
	"umman_kudu":      {ID: "umman_kudu", Name: "Umman Kudu", Faction: Harkonnen, Strength: 1},
	// Emperor
	"hasimir_fenring": {ID: "hasimir_fenring", Name: "Hasimir Fenring", Faction: Emperor, Strength: 6},
	"captain_aramsham": {ID: "captain_aramsham", Name: "Captain Aramsham", Faction: Emperor, Strength: 5},
	"caid":            {ID: "caid", Name: "Caid", Faction: Emperor, Strength: 3},
	"burseg":          {ID: "burseg", Name: "Burseg", Faction: Emperor, Strength: 3},
	"bashar":          {ID: "bashar", Name: "Bashar", Faction: Emperor, Strength: 2},
	// Fremen
	"stilgar":         {ID: "stilgar", Name: "Stilgar", Faction: Fremen, Strength: 7},
	"chani":           {ID: "chani", Name: "Chani", Faction: Fremen, Strength: 6},
	"otheym":          {ID: "otheym", Name: "Otheym", Faction: Fremen, Strength: 5},
	"shadout_mapes":   {ID: "shadout_mapes", Name: "Shadout Mapes", Faction: Fremen, Strength: 3},
	"jamis":           {ID: "jamis", Name: "Jamis", Faction: Fremen, Strength: 2},
	// Guild
	"staban_tuek":     {ID: "staban_tuek", Name: "Staban Tuek", Faction: Guild, Strength: 5},
	"master_bewt":     {ID: "master_bewt", Name: "Master Bewt", Faction: Guild, Strength: 3},
	"esmar_tuek":      {ID: "esmar_tuek", Name: "Esmar Tuek", Faction: Guild, Strength: 3},
	"soo_soo_sook":    {ID: "soo_soo_sook", Name: "Soo-Soo Sook", Faction: Guild, Strength: 2},
	"guild_rep":       {ID: "guild_rep", Name: "Guild Rep", Faction: Guild, Strength: 1},
	// Bene Gesserit
	"alia":            {ID: "alia", Name: "Alia", Faction: BeneGesserit, Strength: 5},
	"margot_fenring":  {ID: "margot_fenring", Name: "Margot Lady Fenring", Faction: BeneGesserit, Strength: 5},
	"mother_ramallo":  {ID: "mother_ramallo", Name: "Mother Ramallo", Faction: BeneGesserit, Strength: 5},
	"princess_irulan": {ID: "princess_irulan", Name: "Princess Irulan", Faction: BeneGesserit, Strength: 5},
	"wanna_yueh":      {ID: "wanna_yueh", Name: "Wanna Marcus", Faction: BeneGesserit, Strength: 5},
}

// LeaderByID returns the leader definition for an ID, or nil if unknown.
func LeaderByID(id LeaderID) *LeaderDef {
	return leaderTable[id]
}

// LeaderStrength returns the printed strength of a leader, or 0 if unknown.
func LeaderStrength(id LeaderID) int {
	if def := leaderTable[id]; def != nil {
		return def.Strength
	}
	return 0
}

// LeadersOf returns the leader definitions belonging to a faction.
func LeadersOf(f Faction) []*LeaderDef {
	var defs []*LeaderDef
	for _, def := range leaderTable {
		if def.Faction == f {
			defs = append(defs, def)
		}
	}
	return defs
}

// TraitorCard is a secretly held card matching one enemy leader.
// It is consumed when revealed.
type TraitorCard struct {
	Leader        LeaderID `json:"leader"`
	LeaderFaction Faction  `json:"leader_faction"`
	Holder        Faction  `json:"holder"`
}
