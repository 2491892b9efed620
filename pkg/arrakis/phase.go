package arrakis

// StepResult is what one orchestrator step hands back to the driver.
// Rejections report refused submissions; the matching suspension points stay
// open and reappear in Pending.
type StepResult struct {
	Pending    []PendingRequest `json:"pending,omitempty"`
	Rejections []Rejection      `json:"rejections,omitempty"`
	Events     []Event          `json:"events,omitempty"`
	Complete   bool             `json:"complete"`
}

// PhaseState is the battle phase state machine. It is single-threaded and
// cooperative: every suspension point returns control to an external driver,
// which supplies AgentResponses before invoking the next Step. The driver
// substitutes a Default response for a side that will not answer.
type PhaseState struct {
	Game    *GameState
	Board   *Board
	Battles []Battle
	Current *Battle
	Results []BattleResult
	Events  []Event

	Pending  []PendingRequest
	Complete bool

	aggressorIndex int
	dedicated      map[LeaderID]TerritoryID

	// simultaneous-pair collection
	plans map[Faction]*BattlePlan
	calls map[Faction]*bool

	// post-resolution bookkeeping for the active battle
	lastResult      *BattleResult
	awaitingCapture LeaderID

	stepEvents []Event
}

// NewBattlePhase clones the snapshot, runs the advisor flip pass and battle
// identification, and returns a phase ready for its first Step. The caller's
// snapshot is never mutated.
func NewBattlePhase(gs *GameState, b *Board) *PhaseState {
	ps := &PhaseState{
		Game:      gs.Clone(),
		Board:     b,
		dedicated: make(map[LeaderID]TerritoryID),
	}
	ps.record(FlipLoneAdvisors(ps.Game, b)...)
	battles, events := IdentifyBattles(ps.Game, b)
	ps.Battles = battles
	ps.record(events...)
	return ps
}

func (ps *PhaseState) record(events ...Event) {
	ps.stepEvents = append(ps.stepEvents, events...)
	ps.Events = append(ps.Events, events...)
}

// Step applies the supplied responses and advances the machine until it
// either needs input again or the phase is complete. Unanswered pending
// requests stay open. Errors are invariant violations and abort the phase.
func (ps *PhaseState) Step(responses []AgentResponse) (*StepResult, error) {
	ps.stepEvents = nil
	var rejections []Rejection

	for i := range responses {
		if rej := ps.apply(&responses[i]); rej != nil {
			rejections = append(rejections, *rej)
		}
	}
	if err := ps.advance(); err != nil {
		return nil, err
	}
	return &StepResult{
		Pending:    ps.Pending,
		Rejections: rejections,
		Events:     ps.stepEvents,
		Complete:   ps.Complete,
	}, nil
}

// pendingFor finds the outstanding request index for a response, or a
// rejection explaining the mismatch.
func (ps *PhaseState) pendingFor(r *AgentResponse) (int, *Rejection) {
	if len(ps.Pending) == 0 {
		return -1, reject(r.Faction, CodeNoPendingRequest, "no request is outstanding", "wait for the next suspension point")
	}
	for i := range ps.Pending {
		if ps.Pending[i].Faction == r.Faction {
			if ps.Pending[i].Type != r.Type {
				return -1, reject(r.Faction, CodeWrongRequestType,
					"response type does not match the outstanding request",
					"answer the "+string(ps.Pending[i].Type)+" request")
			}
			return i, nil
		}
	}
	return -1, reject(r.Faction, CodeWrongFaction, "no request is outstanding for this faction", "wait for your own request")
}

func (ps *PhaseState) closePending(idx int) {
	ps.Pending = append(ps.Pending[:idx:idx], ps.Pending[idx+1:]...)
}

func (ps *PhaseState) apply(r *AgentResponse) *Rejection {
	idx, rej := ps.pendingFor(r)
	if rej != nil {
		return rej
	}
	switch r.Type {
	case RequestChooseBattle:
		rej = ps.applyChooseBattle(r)
	case RequestVoice:
		rej = ps.applyVoice(r)
	case RequestPrescience:
		rej = ps.applyPrescience(r)
	case RequestPrescienceReveal:
		rej = ps.applyPrescienceReveal(r)
	case RequestBattlePlan:
		rej = ps.applyBattlePlan(r)
	case RequestCallTraitor:
		rej = ps.applyCallTraitor(r)
	case RequestDiscardChoice:
		rej = ps.applyDiscardChoice(r)
	case RequestCaptureChoice:
		rej = ps.applyCaptureChoice(r)
	default:
		rej = reject(r.Faction, CodeMalformedResponse, "unknown request type", "")
	}
	if rej != nil {
		return rej
	}
	ps.closePending(idx)
	return nil
}

// advance drives the machine forward until it needs input or finishes.
func (ps *PhaseState) advance() error {
	for !ps.Complete && len(ps.Pending) == 0 {
		if ps.Current == nil {
			if done := ps.selectAggressor(); done {
				return nil
			}
			continue
		}
		if err := ps.advanceBattle(); err != nil {
			return err
		}
	}
	return nil
}

// selectAggressor picks the next fighting faction in storm order and issues
// its battle choice, or ends the phase. Returns true when the machine
// suspended or completed.
func (ps *PhaseState) selectAggressor() bool {
	if len(ps.Battles) == 0 && len(ps.Results) == 0 {
		ps.finish(EventNoBattles)
		return true
	}
	f, idx := nextAggressor(ps.Game, ps.Battles, ps.aggressorIndex)
	if f == NoFaction {
		ps.finish(EventBattlesComplete)
		return true
	}
	ps.aggressorIndex = idx
	ps.Pending = []PendingRequest{{
		Faction: f,
		Type:    RequestChooseBattle,
		Context: map[string]any{"battles": ps.choiceContext(f)},
	}}
	return true
}

func (ps *PhaseState) finish(t EventType) {
	ps.record(checkPrisonBreak(ps.Game)...)
	ps.record(newEvent(t, NoFaction, "", nil))
	ps.Complete = true
	ps.Pending = nil
}

func (ps *PhaseState) choiceContext(f Faction) []map[string]any {
	var out []map[string]any
	for _, i := range battlesFor(ps.Game, ps.Battles, f) {
		b := &ps.Battles[i]
		opponents := make([]string, 0, len(b.Factions)-1)
		for _, p := range b.Opponents(f) {
			opponents = append(opponents, string(p))
		}
		out = append(out, map[string]any{
			"territory": string(b.Territory),
			"opponents": opponents,
		})
	}
	return out
}

func (ps *PhaseState) applyChooseBattle(r *AgentResponse) *Rejection {
	f := r.Faction
	options := battlesFor(ps.Game, ps.Battles, f)
	if len(options) == 0 {
		return reject(f, CodeInvalidChoice, "no battle left to fight", "")
	}

	choice := r.BattleChoice
	if r.Default || choice == nil && r.Decline {
		b := &ps.Battles[options[0]]
		choice = &BattleChoice{Territory: b.Territory, Opponent: b.Opponents(f)[0]}
	}
	if choice == nil {
		return reject(f, CodeMalformedResponse, "battle choice missing", "name a territory and opponent")
	}

	for _, i := range options {
		b := &ps.Battles[i]
		if b.Territory != choice.Territory || !b.Includes(choice.Opponent) || choice.Opponent == f {
			continue
		}
		ps.startBattle(i, f, choice.Opponent)
		return nil
	}
	return reject(f, CodeInvalidChoice, "no such pending battle", "choose a territory and opponent from your pending battles")
}

// startBattle pulls a pending battle out of the queue and opens its
// sub-phase sequence against the chosen opponent.
func (ps *PhaseState) startBattle(idx int, aggressor, defender Faction) {
	b := ps.Battles[idx]
	ps.Battles = append(ps.Battles[:idx:idx], ps.Battles[idx+1:]...)

	b.Aggressor = aggressor
	b.Defender = defender
	b.SubPhase = SubPhaseVoice
	b.TraitorCalls = make(map[Faction]bool)
	ps.Current = &b
	ps.plans = make(map[Faction]*BattlePlan)
	ps.calls = nil
	ps.lastResult = nil
	ps.awaitingCapture = ""

	ps.record(newEvent(EventBattleStarted, aggressor, b.Territory, map[string]any{
		"aggressor": string(aggressor),
		"defender":  string(defender),
		"sectors":   b.Sectors,
	}))
}

// abilityHolder resolves which faction, if any, wields the ability in this
// battle: the combatant itself or the ability's faction fighting through its
// ally. The opponent is the constrained side.
func (ps *PhaseState) abilityHolder(has func(Abilities) bool) (holder, opponent Faction) {
	b := ps.Current
	sides := [2]Faction{b.Aggressor, b.Defender}
	for i, c := range sides {
		other := sides[1-i]
		if has(AbilitiesOf(c)) {
			return c, other
		}
		if ally := ps.Game.AllyOf(c); ally != NoFaction && has(AbilitiesOf(ally)) {
			return ally, other
		}
	}
	return NoFaction, NoFaction
}

func (ps *PhaseState) advanceBattle() error {
	b := ps.Current
	switch b.SubPhase {
	case SubPhaseVoice:
		holder, opponent := ps.abilityHolder(func(a Abilities) bool { return a.Voice })
		if holder == NoFaction {
			b.SubPhase = SubPhasePrescience
			return nil
		}
		b.VoiceTarget = opponent
		ps.Pending = []PendingRequest{{
			Faction: holder,
			Type:    RequestVoice,
			Context: map[string]any{"territory": string(b.Territory), "opponent": string(opponent)},
		}}
	case SubPhasePrescience:
		holder, opponent := ps.abilityHolder(func(a Abilities) bool { return a.Prescience })
		if holder == NoFaction || b.PrescienceUsed {
			b.SubPhase = SubPhasePlans
			return nil
		}
		b.PrescienceTarget = opponent
		ps.Pending = []PendingRequest{{
			Faction: holder,
			Type:    RequestPrescience,
			Context: map[string]any{"territory": string(b.Territory), "opponent": string(opponent)},
		}}
	case SubPhasePrescienceReveal:
		ps.Pending = []PendingRequest{{
			Faction: b.PrescienceTarget,
			Type:    RequestPrescienceReveal,
			Context: map[string]any{"element": string(b.Prescience.Element)},
		}}
	case SubPhasePlans:
		ps.Pending = ps.planRequests()
	case SubPhaseTraitors:
		return ps.openTraitorWindow()
	case SubPhaseResolution:
		return ps.resolveCurrent()
	case SubPhaseDiscard:
		// request already issued by resolveCurrent
		return invariantf("discard sub-phase entered without a pending choice")
	case SubPhaseCapture:
		return invariantf("capture sub-phase entered without a pending choice")
	case SubPhaseDone:
		ps.retireCurrent()
	default:
		return invariantf("battle in %s has unknown sub-phase %q", b.Territory, b.SubPhase)
	}
	return nil
}

func (ps *PhaseState) planRequests() []PendingRequest {
	b := ps.Current
	var reqs []PendingRequest
	for _, f := range []Faction{b.Aggressor, b.Defender} {
		if _, done := ps.plans[f]; done {
			continue
		}
		reg, elite := ps.Game.FightersIn(f, b.Territory, b.Sectors)
		reqs = append(reqs, PendingRequest{
			Faction: f,
			Type:    RequestBattlePlan,
			Context: map[string]any{
				"territory": string(b.Territory),
				"regular":   reg,
				"elite":     elite,
			},
		})
	}
	return reqs
}

func (ps *PhaseState) applyVoice(r *AgentResponse) *Rejection {
	b := ps.Current
	if r.Decline || r.Default {
		b.SubPhase = SubPhasePrescience
		return nil
	}
	if rej := validateVoice(r.Faction, r.Voice); rej != nil {
		return rej
	}
	b.Voice = r.Voice
	ps.record(newEvent(EventVoiceUsed, r.Faction, b.Territory, map[string]any{
		"directive": string(r.Voice.Directive),
		"kind":      r.Voice.Kind.String(),
		"target":    string(b.VoiceTarget),
	}))
	b.SubPhase = SubPhasePrescience
	return nil
}

func (ps *PhaseState) applyPrescience(r *AgentResponse) *Rejection {
	b := ps.Current
	if r.Decline || r.Default {
		b.SubPhase = SubPhasePlans
		return nil
	}
	if rej := validatePrescience(r.Faction, r.Prescience); rej != nil {
		return rej
	}
	b.Prescience = r.Prescience
	b.PrescienceUsed = true
	ps.record(newEvent(EventPrescienceUsed, r.Faction, b.Territory, map[string]any{
		"element": string(r.Prescience.Element),
		"target":  string(b.PrescienceTarget),
	}))
	b.SubPhase = SubPhasePrescienceReveal
	return nil
}

func (ps *PhaseState) applyPrescienceReveal(r *AgentResponse) *Rejection {
	b := ps.Current
	answer := r.Reveal
	if r.Default {
		answer = &PrescienceAnswer{NotPlaying: b.Prescience.Element != ElementDial}
	}
	if rej := validatePrescienceAnswer(r.Faction, b.Prescience, answer); rej != nil {
		return rej
	}
	b.PrescienceAnswer = answer
	ps.record(newEvent(EventPrescienceRevealed, r.Faction, b.Territory, map[string]any{
		"element":     string(b.Prescience.Element),
		"not_playing": answer.NotPlaying,
	}))
	b.SubPhase = SubPhasePlans
	return nil
}

func (ps *PhaseState) applyBattlePlan(r *AgentResponse) *Rejection {
	b := ps.Current
	var plan *BattlePlan
	if r.Default {
		plan = defaultPlan(ps.Game, b, ps.dedicated, r.Faction)
	} else {
		var rej *Rejection
		plan, rej = validatePlan(ps.Game, b, ps.dedicated, r.Faction, r.Plan)
		if rej != nil {
			return rej
		}
	}
	ps.plans[r.Faction] = plan
	ps.record(newEvent(EventBattlePlanCreated, r.Faction, b.Territory, nil))

	if len(ps.plans) == 2 {
		ps.revealPlans()
	}
	return nil
}

// revealPlans seals both plans onto the battle, publishes them, and checks
// the voice and prescience commitments. A violation is reported but the plan
// stands as declared.
func (ps *PhaseState) revealPlans() {
	b := ps.Current
	b.AggressorPlan = ps.plans[b.Aggressor]
	b.DefenderPlan = ps.plans[b.Defender]
	ps.record(newEvent(EventBattlePlansRevealed, NoFaction, b.Territory, map[string]any{
		"aggressor": b.AggressorPlan,
		"defender":  b.DefenderPlan,
	}))

	if v := voiceViolation(ps.Game, b.Voice, b.VoiceTarget, b.PlanOf(b.VoiceTarget)); v != "" {
		ps.record(newEvent(EventCommitmentViolation, b.VoiceTarget, b.Territory, map[string]any{
			"ability": "voice",
			"detail":  v,
		}))
	}
	if v := prescienceViolation(b.Prescience, b.PrescienceAnswer, b.PlanOf(b.PrescienceTarget)); v != "" {
		ps.record(newEvent(EventCommitmentViolation, b.PrescienceTarget, b.Territory, map[string]any{
			"ability": "prescience",
			"detail":  v,
		}))
	}
	b.SubPhase = SubPhaseTraitors
}

// openTraitorWindow offers simultaneous call-traitor requests to every side
// holding a matching card, or moves straight to resolution.
func (ps *PhaseState) openTraitorWindow() error {
	b := ps.Current
	if ps.calls == nil {
		ps.calls = make(map[Faction]*bool)
		for _, pair := range [2][2]Faction{{b.Aggressor, b.Defender}, {b.Defender, b.Aggressor}} {
			caller, victim := pair[0], pair[1]
			offer, blocked := traitorOffer(ps.Game, caller, b.PlanOf(victim))
			if blocked != nil {
				blocked.Territory = b.Territory
				ps.record(*blocked)
			}
			if offer {
				ps.calls[caller] = nil
			}
		}
	}

	var reqs []PendingRequest
	for _, f := range []Faction{b.Aggressor, b.Defender} {
		answer, offered := ps.calls[f]
		if offered && answer == nil {
			reqs = append(reqs, PendingRequest{
				Faction: f,
				Type:    RequestCallTraitor,
				Context: map[string]any{"territory": string(b.Territory)},
			})
		}
	}
	if len(reqs) > 0 {
		ps.Pending = reqs
		return nil
	}
	for f, answer := range ps.calls {
		if answer != nil && *answer {
			b.TraitorCalls[f] = true
		}
	}
	b.SubPhase = SubPhaseResolution
	return nil
}

func (ps *PhaseState) applyCallTraitor(r *AgentResponse) *Rejection {
	b := ps.Current
	no := false
	answer := r.CallTraitor
	if r.Default || r.Decline {
		answer = &no
	}
	if answer == nil {
		return reject(r.Faction, CodeMalformedResponse, "call decision missing", "answer true or false")
	}
	if *answer {
		victim := b.Aggressor
		if r.Faction == b.Aggressor {
			victim = b.Defender
		}
		if rej := validateTraitorCall(ps.Game, r.Faction, b.PlanOf(victim)); rej != nil {
			return rej
		}
		ps.record(newEvent(EventTraitorCalled, r.Faction, b.Territory, nil))
	}
	ps.calls[r.Faction] = answer
	return nil
}

// resolveCurrent adjudicates the battle and opens any post-resolution
// choices the winner is entitled to.
func (ps *PhaseState) resolveCurrent() error {
	b := ps.Current
	res, events, err := resolveBattle(ps.Game, b, ps.dedicated)
	if err != nil {
		return err
	}
	ps.record(events...)
	ps.record(checkPrisonBreak(ps.Game)...)
	ps.Results = append(ps.Results, *res)
	ps.lastResult = res

	// A traitor win forfeits nothing: the caller keeps every card played.
	if res.Winner != NoFaction && res.TraitorWin == NoFaction && !res.Explosion && !res.DoubleTraitor {
		winPlan := b.PlanOf(res.Winner)
		ps.record(autoDiscards(ps.Game, winPlan, b.Territory)...)
		if keepable := keepableCards(winPlan); len(keepable) > 0 {
			ps.record(newEvent(EventDiscardChoiceRequested, res.Winner, b.Territory, map[string]any{
				"cards": cardStrings(keepable),
			}))
			b.SubPhase = SubPhaseDiscard
			ps.Pending = []PendingRequest{{
				Faction: res.Winner,
				Type:    RequestDiscardChoice,
				Context: map[string]any{"cards": cardStrings(keepable)},
			}}
			return nil
		}
	}
	ps.openCaptureOrFinish()
	return nil
}

func (ps *PhaseState) openCaptureOrFinish() {
	b := ps.Current
	res := ps.lastResult
	if res != nil && res.TraitorWin == NoFaction {
		if id := captureCandidate(ps.Game, res, b.PlanOf(res.Loser)); id != "" {
			ps.awaitingCapture = id
			ps.record(newEvent(EventCaptureChoiceRequested, res.Winner, b.Territory, map[string]any{
				"leader": string(id),
			}))
			b.SubPhase = SubPhaseCapture
			ps.Pending = []PendingRequest{{
				Faction: res.Winner,
				Type:    RequestCaptureChoice,
				Context: map[string]any{"leader": string(id)},
			}}
			return
		}
	}
	b.SubPhase = SubPhaseDone
}

func (ps *PhaseState) applyDiscardChoice(r *AgentResponse) *Rejection {
	b := ps.Current
	keepable := keepableCards(b.PlanOf(r.Faction))
	chosen := r.DiscardCards
	if r.Default || r.Decline {
		chosen = nil // keep everything
	}
	if rej := validateDiscardChoice(r.Faction, keepable, chosen); rej != nil {
		return rej
	}
	ps.record(applyDiscardChoice(ps.Game, r.Faction, b.Territory, chosen)...)
	ps.openCaptureOrFinish()
	return nil
}

func (ps *PhaseState) applyCaptureChoice(r *AgentResponse) *Rejection {
	b := ps.Current
	capture := r.Capture
	yes, no := true, false
	if r.Default {
		capture = &yes
	}
	if r.Decline {
		capture = &no
	}
	if capture == nil {
		return reject(r.Faction, CodeMalformedResponse, "capture decision missing", "choose capture or kill")
	}
	if *capture {
		ps.record(applyCapture(ps.Game, r.Faction, ps.awaitingCapture, b.Territory))
	} else {
		ps.record(applyCaptureKill(ps.Game, r.Faction, ps.awaitingCapture, b.Territory)...)
		ps.record(checkPrisonBreak(ps.Game)...)
	}
	delete(ps.dedicated, ps.awaitingCapture)
	ps.awaitingCapture = ""
	b.SubPhase = SubPhaseDone
	return nil
}

// retireCurrent closes the active battle. A multi-party territory fight
// returns to the queue while two or more factions still have forces in the
// contested sectors.
func (ps *PhaseState) retireCurrent() {
	b := ps.Current
	var remaining []Faction
	for _, f := range b.Factions {
		if reg, elite := ps.Game.FightersIn(f, b.Territory, b.Sectors); reg+elite > 0 {
			remaining = append(remaining, f)
		}
	}
	if len(remaining) >= 2 {
		ps.Battles = append(ps.Battles, Battle{
			Territory: b.Territory,
			Sectors:   b.Sectors,
			Factions:  remaining,
		})
	}
	ps.Current = nil
	ps.plans = nil
	ps.calls = nil
	ps.lastResult = nil
}

func cardStrings(ids []CardID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
