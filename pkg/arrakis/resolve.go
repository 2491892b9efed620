package arrakis

import "fmt"

// Strength totals are tracked in half points so that the advanced half
// strength rule stays in integer arithmetic. A displayed total of 8.5 is 17
// half points.

// BattleResult is the outcome of one resolved battle.
type BattleResult struct {
	Territory        TerritoryID `json:"territory"`
	Aggressor        Faction     `json:"aggressor"`
	Defender         Faction     `json:"defender"`
	Winner           Faction     `json:"winner,omitempty"`
	Loser            Faction     `json:"loser,omitempty"`
	AggressorTotal   int         `json:"aggressor_total_half"`
	DefenderTotal    int         `json:"defender_total_half"`
	Explosion        bool        `json:"explosion,omitempty"`
	TraitorWin       Faction     `json:"traitor_win,omitempty"`
	DoubleTraitor    bool        `json:"double_traitor,omitempty"`
	WinnerForcesLost int         `json:"winner_forces_lost"`
	LoserForcesLost  int         `json:"loser_forces_lost"`
	LeadersKilled    []LeaderID  `json:"leaders_killed,omitempty"`
}

func strengthString(half int) string {
	if half%2 == 0 {
		return fmt.Sprintf("%d", half/2)
	}
	return fmt.Sprintf("%d.5", half/2)
}

// effectiveForcesHalf computes the fighting value of a side's dialed forces
// in half points. Elites count double except Sardaukar facing Fremen. Under
// advanced rules, forces not backed by dialed spice fight at half strength;
// spice backs elites first. The Fremen fight at full strength regardless.
func effectiveForcesHalf(gs *GameState, f, opponent Faction, plan *BattlePlan) int {
	eliteHalf := 4
	if f == Emperor && opponent == Fremen {
		eliteHalf = 2 // Sardaukar lose their edge against the desert
	}
	const regularHalf = 2

	if !gs.AdvancedRules || AbilitiesOf(f).BattleHardened {
		return plan.EliteDialed*eliteHalf + plan.RegularDialed*regularHalf
	}

	spice := plan.SpiceDialed
	backedElite := min(plan.EliteDialed, spice)
	spice -= backedElite
	backedRegular := min(plan.RegularDialed, spice)

	total := backedElite * eliteHalf
	total += (plan.EliteDialed - backedElite) * eliteHalf / 2
	total += backedRegular * regularHalf
	total += (plan.RegularDialed - backedRegular) * regularHalf / 2
	return total
}

// weaponKillsLeader reports whether the opponent's weapon gets through the
// side's defense.
func weaponKillsLeader(side, opponent *BattlePlan) bool {
	if opponent.Weapon == "" {
		return false
	}
	if side.Defense != "" && Defends(side.Defense, opponent.Weapon) {
		return false
	}
	return true
}

// sideTotalHalf computes a side's full battle total in half points.
func sideTotalHalf(gs *GameState, f, opponent Faction, plan *BattlePlan, leaderDead bool) int {
	total := effectiveForcesHalf(gs, f, opponent, plan)
	if plan.Leader != "" && !leaderDead {
		total += LeaderStrength(plan.Leader) * 2
	}
	if plan.KwisatzHaderach {
		total += 4
	}
	return total
}

// killLeader sends a fielded leader to the tanks and returns it to its
// original owner's tank pile.
func killLeader(gs *GameState, id LeaderID, territory TerritoryID, cause string) Event {
	rec := gs.Leader(id)
	owner := NoFaction
	if rec != nil {
		owner = rec.Owner
		rec.HeldBy = rec.Owner
		rec.Location = LeaderTanksFaceUp
		rec.Territory = ""
		rec.OnceKilled = true
	}
	return newEvent(EventLeaderKilled, owner, territory, map[string]any{
		"leader": string(id),
		"cause":  cause,
	})
}

// commitSurvivor marks a side's surviving leader as dedicated to the battle
// territory for the rest of the phase.
func commitSurvivor(gs *GameState, dedicated map[LeaderID]TerritoryID, plan *BattlePlan, territory TerritoryID, dead bool) {
	if plan.Leader == "" || dead {
		return
	}
	if rec := gs.Leader(plan.Leader); rec != nil {
		rec.Location = LeaderActive
		rec.Territory = territory
	}
	dedicated[plan.Leader] = territory
}

// discardPlayedCards moves every card the plan played to the discard pile.
func discardPlayedCards(gs *GameState, plan *BattlePlan, territory TerritoryID) []Event {
	var events []Event
	for _, id := range plan.PlayedCards() {
		gs.DiscardCard(plan.Faction, id)
		events = append(events, newEvent(EventCardDiscarded, plan.Faction, territory, map[string]any{
			"card": string(id),
		}))
	}
	return events
}

// paySpiceDials pays both sides' dialed spice to the bank.
func paySpiceDials(gs *GameState, territory TerritoryID, plans ...*BattlePlan) []Event {
	var events []Event
	for _, p := range plans {
		if p.SpiceDialed <= 0 {
			continue
		}
		gs.Spice[p.Faction] -= p.SpiceDialed
		events = append(events, newEvent(EventSpicePaid, p.Faction, territory, map[string]any{
			"amount": p.SpiceDialed,
		}))
	}
	return events
}

// resolveBattle adjudicates a battle whose plans are revealed and whose
// traitor window has closed. It mutates gs (losses, deaths, spice, discards)
// and returns the result with the transcript of what happened.
func resolveBattle(gs *GameState, btl *Battle, dedicated map[LeaderID]TerritoryID) (*BattleResult, []Event, error) {
	agg, def := btl.AggressorPlan, btl.DefenderPlan
	if agg == nil || def == nil {
		return nil, nil, invariantf("battle in %s resolved without both plans", btl.Territory)
	}

	var callers []Faction
	for _, f := range []Faction{btl.Aggressor, btl.Defender} {
		if btl.TraitorCalls[f] {
			callers = append(callers, f)
		}
	}
	switch len(callers) {
	case 1:
		return resolveSingleTraitor(gs, btl, dedicated, callers[0])
	case 2:
		return resolveDoubleTraitor(gs, btl)
	}

	res := &BattleResult{
		Territory: btl.Territory,
		Aggressor: btl.Aggressor,
		Defender:  btl.Defender,
	}
	events := paySpiceDials(gs, btl.Territory, agg, def)

	if crossfire(agg, def) {
		return resolveExplosion(gs, btl, res, events)
	}

	aggDead := weaponKillsLeader(agg, def)
	defDead := weaponKillsLeader(def, agg)
	res.AggressorTotal = sideTotalHalf(gs, btl.Aggressor, btl.Defender, agg, aggDead)
	res.DefenderTotal = sideTotalHalf(gs, btl.Defender, btl.Aggressor, def, defDead)

	// Aggressor wins ties.
	winPlan, losePlan := agg, def
	if res.DefenderTotal > res.AggressorTotal {
		winPlan, losePlan = def, agg
	}
	res.Winner, res.Loser = winPlan.Faction, losePlan.Faction

	if aggDead && agg.Leader != "" {
		events = append(events, killLeader(gs, agg.Leader, btl.Territory, "weapon"))
		res.LeadersKilled = append(res.LeadersKilled, agg.Leader)
	}
	if defDead && def.Leader != "" {
		events = append(events, killLeader(gs, def.Leader, btl.Territory, "weapon"))
		res.LeadersKilled = append(res.LeadersKilled, def.Leader)
	}

	// Winner is paid for opponent leaders felled by a weapon, not for the
	// loser merely losing the battle.
	loserDead := (losePlan == agg && aggDead) || (losePlan == def && defDead)
	if loserDead && losePlan.Leader != "" {
		award := LeaderStrength(losePlan.Leader)
		gs.Spice[res.Winner] += award
		events = append(events, newEvent(EventSpiceAwarded, res.Winner, btl.Territory, map[string]any{
			"amount": award,
			"leader": string(losePlan.Leader),
		}))
	}

	removedReg, removedElite := gs.RemoveForces(res.Winner, btl.Territory, btl.Sectors, winPlan.RegularDialed, winPlan.EliteDialed)
	res.WinnerForcesLost = removedReg + removedElite
	if res.WinnerForcesLost != winPlan.ForcesDialed() {
		return nil, nil, invariantf("winner %s dialed %d forces but only %d were present to remove",
			res.Winner, winPlan.ForcesDialed(), res.WinnerForcesLost)
	}
	if res.WinnerForcesLost > 0 {
		events = append(events, newEvent(EventForcesLost, res.Winner, btl.Territory, map[string]any{
			"count": res.WinnerForcesLost,
		}))
	}
	res.LoserForcesLost = gs.RemoveAllForces(res.Loser, btl.Territory, btl.Sectors)
	if res.LoserForcesLost > 0 {
		events = append(events, newEvent(EventForcesLost, res.Loser, btl.Territory, map[string]any{
			"count": res.LoserForcesLost,
		}))
	}

	// The loser's cards always go to the discard pile; the winner's card
	// retention is settled by the post-resolution discard choice.
	events = append(events, discardPlayedCards(gs, losePlan, btl.Territory)...)

	commitSurvivor(gs, dedicated, agg, btl.Territory, aggDead)
	commitSurvivor(gs, dedicated, def, btl.Territory, defDead)

	events = append(events, newEvent(EventBattleResolved, res.Winner, btl.Territory, map[string]any{
		"aggressor_total": strengthString(res.AggressorTotal),
		"defender_total":  strengthString(res.DefenderTotal),
		"winner":          string(res.Winner),
		"loser":           string(res.Loser),
	}))
	return res, events, nil
}

// crossfire reports the lasgun-shield pairing: one side's lasgun against the
// other side's shield.
func crossfire(a, b *BattlePlan) bool {
	return (playsKind(a.Weapon, KindLasgun) && playsKind(b.Defense, KindProjectileDefense)) ||
		(playsKind(b.Weapon, KindLasgun) && playsKind(a.Defense, KindProjectileDefense))
}

func playsKind(id CardID, kind CardKind) bool {
	if id == "" {
		return false
	}
	c := CardByID(id)
	return c != nil && c.Kind == kind
}

// resolveExplosion destroys both sides outright. All forces present, both
// leaders (the Kwisatz Haderach included), and every played card are lost.
// No spice changes hands beyond the dials already paid.
func resolveExplosion(gs *GameState, btl *Battle, res *BattleResult, events []Event) (*BattleResult, []Event, error) {
	res.Explosion = true
	events = append(events, newEvent(EventLasgunShieldExplosion, NoFaction, btl.Territory, nil))

	for _, plan := range []*BattlePlan{btl.AggressorPlan, btl.DefenderPlan} {
		if plan.Leader != "" {
			events = append(events, killLeader(gs, plan.Leader, btl.Territory, "explosion"))
			res.LeadersKilled = append(res.LeadersKilled, plan.Leader)
		}
		if plan.KwisatzHaderach {
			gs.KHDead = true
			events = append(events, newEvent(EventLeaderKilled, plan.Faction, btl.Territory, map[string]any{
				"kwisatz_haderach": true,
				"cause":            "explosion",
			}))
		}
		lost := gs.RemoveAllForces(plan.Faction, btl.Territory, btl.Sectors)
		if lost > 0 {
			events = append(events, newEvent(EventForcesLost, plan.Faction, btl.Territory, map[string]any{
				"count": lost,
			}))
		}
		events = append(events, discardPlayedCards(gs, plan, btl.Territory)...)
	}
	events = append(events, newEvent(EventBattleResolved, NoFaction, btl.Territory, map[string]any{
		"explosion": true,
	}))
	return res, events, nil
}

// resolveSingleTraitor settles the battle when exactly one side revealed a
// traitor. The caller wins outright and loses nothing, keeps its dialed
// spice, and is paid the traitor's strength from the bank; the betrayed side
// loses its leader and every force present.
func resolveSingleTraitor(gs *GameState, btl *Battle, dedicated map[LeaderID]TerritoryID, caller Faction) (*BattleResult, []Event, error) {
	victim := btl.Aggressor
	if caller == btl.Aggressor {
		victim = btl.Defender
	}
	victimPlan := btl.PlanOf(victim)
	callerPlan := btl.PlanOf(caller)
	if victimPlan == nil || callerPlan == nil || victimPlan.Leader == "" {
		return nil, nil, invariantf("traitor called in %s without a betrayable plan", btl.Territory)
	}

	res := &BattleResult{
		Territory:  btl.Territory,
		Aggressor:  btl.Aggressor,
		Defender:   btl.Defender,
		Winner:     caller,
		Loser:      victim,
		TraitorWin: caller,
	}

	traitor := victimPlan.Leader
	consumeTraitor(gs, caller, traitor)
	events := []Event{newEvent(EventTraitorRevealed, caller, btl.Territory, map[string]any{
		"leader": string(traitor),
	})}

	events = append(events, killLeader(gs, traitor, btl.Territory, "traitor"))
	res.LeadersKilled = append(res.LeadersKilled, traitor)

	award := LeaderStrength(traitor)
	gs.Spice[caller] += award
	events = append(events, newEvent(EventSpiceAwarded, caller, btl.Territory, map[string]any{
		"amount": award,
		"leader": string(traitor),
	}))

	res.LoserForcesLost = gs.RemoveAllForces(victim, btl.Territory, btl.Sectors)
	if res.LoserForcesLost > 0 {
		events = append(events, newEvent(EventForcesLost, victim, btl.Territory, map[string]any{
			"count": res.LoserForcesLost,
		}))
	}
	events = append(events, discardPlayedCards(gs, victimPlan, btl.Territory)...)

	commitSurvivor(gs, dedicated, callerPlan, btl.Territory, false)

	events = append(events, newEvent(EventBattleResolved, caller, btl.Territory, map[string]any{
		"winner":  string(caller),
		"loser":   string(victim),
		"traitor": string(traitor),
	}))
	return res, events, nil
}

// resolveDoubleTraitor settles the two-traitors case: both sides lose every
// force present, every played card, and both leaders. Nobody is paid; the
// dialed spice is still owed to the bank.
func resolveDoubleTraitor(gs *GameState, btl *Battle) (*BattleResult, []Event, error) {
	agg, def := btl.AggressorPlan, btl.DefenderPlan
	res := &BattleResult{
		Territory:     btl.Territory,
		Aggressor:     btl.Aggressor,
		Defender:      btl.Defender,
		DoubleTraitor: true,
	}
	events := paySpiceDials(gs, btl.Territory, agg, def)

	for _, pair := range []struct {
		caller Faction
		victim *BattlePlan
	}{
		{btl.Aggressor, def},
		{btl.Defender, agg},
	} {
		consumeTraitor(gs, pair.caller, pair.victim.Leader)
		events = append(events, newEvent(EventTraitorRevealed, pair.caller, btl.Territory, map[string]any{
			"leader": string(pair.victim.Leader),
		}))
	}
	for _, plan := range []*BattlePlan{agg, def} {
		if plan.Leader != "" {
			events = append(events, killLeader(gs, plan.Leader, btl.Territory, "traitor"))
			res.LeadersKilled = append(res.LeadersKilled, plan.Leader)
		}
		lost := gs.RemoveAllForces(plan.Faction, btl.Territory, btl.Sectors)
		if lost > 0 {
			events = append(events, newEvent(EventForcesLost, plan.Faction, btl.Territory, map[string]any{
				"count": lost,
			}))
		}
		events = append(events, discardPlayedCards(gs, plan, btl.Territory)...)
	}
	events = append(events, newEvent(EventBattleResolved, NoFaction, btl.Territory, map[string]any{
		"double_traitor": true,
	}))
	return res, events, nil
}
