package arrakis

import "fmt"

// leaderUsable reports whether a faction can field the leader in the given
// territory. Dedicated leaders may fight repeated battles in the territory
// they are committed to, but nowhere else this phase.
func leaderUsable(gs *GameState, dedicated map[LeaderID]TerritoryID, f Faction, id LeaderID, territory TerritoryID) *Rejection {
	rec := gs.Leader(id)
	if rec == nil || LeaderByID(id) == nil {
		return reject(f, CodeInvalidLeader, fmt.Sprintf("unknown leader %q", id), "name a leader you hold")
	}
	if rec.HeldBy != f {
		return reject(f, CodeInvalidLeader, fmt.Sprintf("%s does not serve %s", id, f), "name a leader you hold")
	}
	if !rec.Alive() {
		return reject(f, CodeInvalidLeader, fmt.Sprintf("%s is in the tanks", id), "name a living leader or fight without one")
	}
	if t, ok := dedicated[id]; ok && t != territory {
		return reject(f, CodeLeaderCommitted,
			fmt.Sprintf("%s already fought in %s this phase", id, t),
			"name an uncommitted leader or fight without one")
	}
	return nil
}

// validatePlan checks a submitted plan against the live snapshot and returns
// the sealed BattlePlan. Rejections mutate nothing; the suspension point
// stays open for a corrected submission.
func validatePlan(gs *GameState, btl *Battle, dedicated map[LeaderID]TerritoryID, f Faction, in *PlanInput) (*BattlePlan, *Rejection) {
	if in == nil {
		return nil, reject(f, CodeMalformedResponse, "battle plan missing", "submit a plan payload")
	}
	if in.RegularDialed < 0 || in.EliteDialed < 0 {
		return nil, reject(f, CodeMalformedResponse, "dialed forces cannot be negative", "dial zero or more")
	}
	regular, elite := gs.FightersIn(f, btl.Territory, btl.Sectors)
	if in.RegularDialed > regular || in.EliteDialed > elite {
		return nil, reject(f, CodeInsufficientForces,
			fmt.Sprintf("dialed %d/%d but only %d regular and %d elite present", in.RegularDialed, in.EliteDialed, regular, elite),
			"dial no more than the forces you have in the contested sectors")
	}

	slots := 0
	if in.Leader != "" {
		slots++
	}
	if in.CheapHero {
		slots++
	}
	if in.NoLeader {
		slots++
	}
	if slots > 1 {
		return nil, reject(f, CodeMalformedResponse, "leader, cheap hero, and no-leader are mutually exclusive", "pick exactly one")
	}
	if slots == 0 {
		return nil, reject(f, CodeMalformedResponse, "plan must name a leader, a cheap hero, or announce no leader", "pick one")
	}
	if in.Leader != "" {
		if rej := leaderUsable(gs, dedicated, f, in.Leader, btl.Territory); rej != nil {
			return nil, rej
		}
	}
	if in.CheapHero && !gs.HoldsCardOfKind(f, KindCheapHero) {
		return nil, reject(f, CodeCardNotHeld, "no cheap hero card in hand", "name a leader or announce no leader")
	}

	hasSlot := in.Leader != "" || in.CheapHero
	if in.Weapon != "" {
		if !hasSlot {
			return nil, reject(f, CodeNoLeaderForCards, "treachery cards require a leader or cheap hero", "add a leader slot or drop the weapon")
		}
		if !gs.HoldsCard(f, in.Weapon) {
			return nil, reject(f, CodeCardNotHeld, fmt.Sprintf("weapon %s not in hand", in.Weapon), "play a card you hold")
		}
		if !IsWeapon(in.Weapon) {
			return nil, reject(f, CodeMalformedResponse, fmt.Sprintf("%s is not a weapon", in.Weapon), "play a weapon in the weapon slot")
		}
	}
	if in.Defense != "" {
		if !hasSlot {
			return nil, reject(f, CodeNoLeaderForCards, "treachery cards require a leader or cheap hero", "add a leader slot or drop the defense")
		}
		if !gs.HoldsCard(f, in.Defense) {
			return nil, reject(f, CodeCardNotHeld, fmt.Sprintf("defense %s not in hand", in.Defense), "play a card you hold")
		}
		if !IsDefense(in.Defense) {
			return nil, reject(f, CodeMalformedResponse, fmt.Sprintf("%s is not a defense", in.Defense), "play a defense in the defense slot")
		}
	}

	if in.KwisatzHaderach {
		if !AbilitiesOf(f).KwisatzHaderach {
			return nil, reject(f, CodeKHUnavailable, "faction has no Kwisatz Haderach", "drop the flag")
		}
		if !gs.KHAvailable || gs.KHDead {
			return nil, reject(f, CodeKHUnavailable, "the Kwisatz Haderach is not available", "drop the flag")
		}
		if !hasSlot {
			return nil, reject(f, CodeKHUnavailable, "the Kwisatz Haderach accompanies a leader", "add a leader slot")
		}
	}

	if in.SpiceDialed != 0 {
		if !gs.AdvancedRules {
			return nil, reject(f, CodeMalformedResponse, "spice dialing is an advanced rule", "drop the spice dial")
		}
		if in.SpiceDialed < 0 {
			return nil, reject(f, CodeMalformedResponse, "spice dialed cannot be negative", "dial zero or more spice")
		}
		if in.SpiceDialed > gs.SpiceOf(f) {
			return nil, reject(f, CodeInsufficientSpice,
				fmt.Sprintf("dialed %d spice but hold %d", in.SpiceDialed, gs.SpiceOf(f)),
				"dial no more spice than you hold")
		}
		if in.SpiceDialed > in.RegularDialed+in.EliteDialed {
			return nil, reject(f, CodeInsufficientSpice, "spice dialed exceeds forces dialed", "one spice backs at most one force")
		}
	}

	return &BattlePlan{
		Faction:         f,
		RegularDialed:   in.RegularDialed,
		EliteDialed:     in.EliteDialed,
		Leader:          in.Leader,
		CheapHero:       in.CheapHero,
		NoLeader:        in.NoLeader,
		Weapon:          in.Weapon,
		Defense:         in.Defense,
		KwisatzHaderach: in.KwisatzHaderach,
		SpiceDialed:     in.SpiceDialed,
	}, nil
}

// defaultPlan substitutes a deterministic plan for a non-responding side:
// the strongest leader usable in this territory at zero dialed forces, or no
// leader at all.
func defaultPlan(gs *GameState, btl *Battle, dedicated map[LeaderID]TerritoryID, f Faction) *BattlePlan {
	plan := &BattlePlan{Faction: f, NoLeader: true}
	for _, rec := range gs.LeadersHeldBy(f) {
		if !rec.Alive() {
			continue
		}
		if t, ok := dedicated[rec.ID]; ok && t != btl.Territory {
			continue
		}
		plan.Leader = rec.ID
		plan.NoLeader = false
		break
	}
	return plan
}
