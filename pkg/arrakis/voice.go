package arrakis

import "fmt"

// VoiceDirective says whether the opponent must or must not play a card of
// the named class.
type VoiceDirective string

const (
	VoicePlay   VoiceDirective = "play"
	VoiceForbid VoiceDirective = "forbid"
)

// VoiceCommand is a Bene Gesserit constraint on the opponent's upcoming
// plan. It is stored on the battle and checked at reveal time.
type VoiceCommand struct {
	Directive VoiceDirective `json:"directive"`
	Kind      CardKind       `json:"kind"`
}

func (v *VoiceCommand) String() string {
	return fmt.Sprintf("%s %s", v.Directive, v.Kind)
}

// validateVoice checks a submitted voice command.
func validateVoice(f Faction, v *VoiceCommand) *Rejection {
	if v == nil {
		return reject(f, CodeMalformedResponse, "voice command missing", "supply a directive and card kind, or decline")
	}
	if v.Directive != VoicePlay && v.Directive != VoiceForbid {
		return reject(f, CodeMalformedResponse, "unknown voice directive", `use "play" or "forbid"`)
	}
	switch v.Kind {
	case KindProjectileWeapon, KindPoisonWeapon, KindProjectileDefense, KindPoisonDefense, KindLasgun, KindCheapHero, KindWorthless:
		return nil
	}
	return reject(f, CodeMalformedResponse, "unknown card kind for voice", "name a weapon, defense, lasgun, cheap hero, or worthless class")
}

// voiceViolation reports how the revealed plan breaks the stored command,
// or "" when compliant. A "play" directive is only violated when the
// constrained faction actually held a card of the demanded class: the voice
// cannot conjure cards.
func voiceViolation(gs *GameState, v *VoiceCommand, constrained Faction, plan *BattlePlan) string {
	if v == nil {
		return ""
	}
	played := false
	for _, id := range plan.PlayedCards() {
		if def := CardByID(id); def != nil && def.Kind == v.Kind {
			played = true
			break
		}
	}
	switch v.Directive {
	case VoicePlay:
		if !played && gs.HoldsCardOfKind(constrained, v.Kind) {
			return fmt.Sprintf("voice demanded a %s and %s holds one", v.Kind, constrained)
		}
	case VoiceForbid:
		if played {
			return fmt.Sprintf("voice forbade a %s", v.Kind)
		}
	}
	return ""
}
