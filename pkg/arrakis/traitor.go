package arrakis

// traitorFor returns the traitor card the caller holds against the given
// leader, or nil.
func traitorFor(gs *GameState, caller Faction, leader LeaderID) *TraitorCard {
	for i := range gs.Traitors[caller] {
		if gs.Traitors[caller][i].Leader == leader {
			return &gs.Traitors[caller][i]
		}
	}
	return nil
}

// traitorOffer decides whether a side gets a call-traitor request against the
// opponent's revealed plan. A leader accompanied by the Kwisatz Haderach
// cannot be called even when the matching card is held; the offer is
// suppressed and a blocked event emitted instead.
func traitorOffer(gs *GameState, caller Faction, opponent *BattlePlan) (offer bool, blocked *Event) {
	if opponent.Leader == "" {
		return false, nil
	}
	card := traitorFor(gs, caller, opponent.Leader)
	if card == nil {
		return false, nil
	}
	if opponent.KwisatzHaderach {
		ev := newEvent(EventTraitorBlocked, caller, "", map[string]any{
			"leader": string(opponent.Leader),
		})
		return false, &ev
	}
	return true, nil
}

// consumeTraitor removes the caller's traitor card for the leader from their
// hidden holdings. Traitor cards are spent on reveal.
func consumeTraitor(gs *GameState, caller Faction, leader LeaderID) {
	cards := gs.Traitors[caller]
	for i, c := range cards {
		if c.Leader == leader {
			gs.Traitors[caller] = append(cards[:i:i], cards[i+1:]...)
			return
		}
	}
}

// validateTraitorCall checks an affirmative call against the caller's
// holdings and the opponent's plan.
func validateTraitorCall(gs *GameState, caller Faction, opponent *BattlePlan) *Rejection {
	if opponent.Leader == "" {
		return reject(caller, CodeTraitorNotHeld, "opponent fielded no leader to betray", "decline the call")
	}
	if traitorFor(gs, caller, opponent.Leader) == nil {
		return reject(caller, CodeTraitorNotHeld, "no traitor card for the opponent's leader", "decline the call")
	}
	if opponent.KwisatzHaderach {
		return reject(caller, CodeTraitorNotHeld, "the Kwisatz Haderach shields the leader from betrayal", "decline the call")
	}
	return nil
}
