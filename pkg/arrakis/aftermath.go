package arrakis

// keepableCards returns the winner's played cards eligible for the keep or
// discard choice. Cards marked discard-after-use bypass the choice.
func keepableCards(plan *BattlePlan) []CardID {
	var keep []CardID
	for _, id := range plan.PlayedCards() {
		if def := CardByID(id); def != nil && !def.DiscardAfterUse {
			keep = append(keep, id)
		}
	}
	return keep
}

// autoDiscards discards the winner's played cards that may not be kept and
// returns the events.
func autoDiscards(gs *GameState, plan *BattlePlan, territory TerritoryID) []Event {
	var events []Event
	for _, id := range plan.PlayedCards() {
		if def := CardByID(id); def != nil && def.DiscardAfterUse {
			gs.DiscardCard(plan.Faction, id)
			events = append(events, newEvent(EventCardDiscarded, plan.Faction, territory, map[string]any{
				"card": string(id),
			}))
		}
	}
	return events
}

// validateDiscardChoice checks that every chosen card is among the winner's
// keepable played cards.
func validateDiscardChoice(f Faction, keepable []CardID, chosen []CardID) *Rejection {
	for _, id := range chosen {
		found := false
		for _, k := range keepable {
			if k == id {
				found = true
				break
			}
		}
		if !found {
			return reject(f, CodeInvalidChoice, "card was not played in this battle", "choose among the cards you played")
		}
	}
	return nil
}

// applyDiscardChoice discards the chosen cards.
func applyDiscardChoice(gs *GameState, f Faction, territory TerritoryID, chosen []CardID) []Event {
	var events []Event
	for _, id := range chosen {
		gs.DiscardCard(f, id)
		events = append(events, newEvent(EventCardDiscarded, f, territory, map[string]any{
			"card": string(id),
		}))
	}
	return events
}

// captureCandidate returns the loser's surviving fielded leader when the
// winner has the capture ability, or "".
func captureCandidate(gs *GameState, res *BattleResult, loserPlan *BattlePlan) LeaderID {
	if res.Winner == NoFaction || !AbilitiesOf(res.Winner).CaptureLeaders {
		return ""
	}
	if loserPlan == nil || loserPlan.Leader == "" {
		return ""
	}
	rec := gs.Leader(loserPlan.Leader)
	if rec == nil || !rec.Alive() {
		return ""
	}
	return loserPlan.Leader
}

// applyCapture takes the loser's leader prisoner. The captive serves the
// capturer until a prison break returns it home.
func applyCapture(gs *GameState, capturer Faction, id LeaderID, territory TerritoryID) Event {
	if rec := gs.Leader(id); rec != nil {
		rec.HeldBy = capturer
		rec.Location = LeaderInPool
		rec.Territory = ""
	}
	return newEvent(EventLeaderCaptured, capturer, territory, map[string]any{
		"leader": string(id),
	})
}

// captureKillReward is the bank payment for executing a prisoner instead of
// keeping one.
const captureKillReward = 2

// applyCaptureKill executes the leader instead of capturing it.
func applyCaptureKill(gs *GameState, capturer Faction, id LeaderID, territory TerritoryID) []Event {
	events := []Event{killLeader(gs, id, territory, "executed")}
	gs.Spice[capturer] += captureKillReward
	events = append(events, newEvent(EventSpiceAwarded, capturer, territory, map[string]any{
		"amount": captureKillReward,
	}))
	return events
}

// checkPrisonBreak returns captured leaders to their original owners when a
// capturer's own last living leader dies, or when an owner is left with no
// living leader of its own in hand. Runs after every leader death and once
// more at phase cleanup.
func checkPrisonBreak(gs *GameState) []Event {
	var events []Event
	for _, f := range gs.StormOrder {
		captives := capturedHeldBy(gs, f)
		if len(captives) == 0 {
			continue
		}
		if livingOwnLeaders(gs, f) == 0 {
			events = append(events, releaseCaptives(gs, f, captives))
		}
	}
	for _, f := range gs.StormOrder {
		if livingOwnLeaders(gs, f) > 0 {
			continue
		}
		var abroad []*LeaderRecord
		for i := range gs.Leaders {
			rec := &gs.Leaders[i]
			if rec.Owner == f && rec.Captured() && rec.Alive() {
				abroad = append(abroad, rec)
			}
		}
		if len(abroad) > 0 {
			events = append(events, releaseOwned(gs, f, abroad))
		}
	}
	return events
}

func capturedHeldBy(gs *GameState, f Faction) []*LeaderRecord {
	var out []*LeaderRecord
	for i := range gs.Leaders {
		rec := &gs.Leaders[i]
		if rec.HeldBy == f && rec.Captured() && rec.Alive() {
			out = append(out, rec)
		}
	}
	return out
}

// livingOwnLeaders counts a faction's own leaders that are alive and in its
// own hands.
func livingOwnLeaders(gs *GameState, f Faction) int {
	n := 0
	for i := range gs.Leaders {
		rec := &gs.Leaders[i]
		if rec.Owner == f && rec.HeldBy == f && rec.Alive() {
			n++
		}
	}
	return n
}

func releaseCaptives(gs *GameState, capturer Faction, captives []*LeaderRecord) Event {
	names := make([]string, 0, len(captives))
	for _, rec := range captives {
		rec.HeldBy = rec.Owner
		rec.Location = LeaderInPool
		rec.Territory = ""
		names = append(names, string(rec.ID))
	}
	return newEvent(EventPrisonBreak, capturer, "", map[string]any{
		"released": names,
	})
}

func releaseOwned(gs *GameState, owner Faction, abroad []*LeaderRecord) Event {
	names := make([]string, 0, len(abroad))
	for _, rec := range abroad {
		rec.HeldBy = rec.Owner
		rec.Location = LeaderInPool
		rec.Territory = ""
		names = append(names, string(rec.ID))
	}
	return newEvent(EventPrisonBreak, owner, "", map[string]any{
		"released": names,
	})
}
