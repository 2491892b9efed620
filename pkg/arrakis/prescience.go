package arrakis

import "fmt"

// PlanElement names the part of a plan a prescience question inspects.
type PlanElement string

const (
	ElementLeader  PlanElement = "leader"
	ElementWeapon  PlanElement = "weapon"
	ElementDefense PlanElement = "defense"
	ElementDial    PlanElement = "dial"
)

// PrescienceQuestion is the Atreides side's request to inspect one element
// of the opponent's plan before it is built.
type PrescienceQuestion struct {
	Element PlanElement `json:"element"`
}

// PrescienceAnswer is the opponent's pre-commitment to the inspected
// element. NotPlaying commits to leaving the element empty; once given, the
// asking side cannot ask about a different element in the same battle.
type PrescienceAnswer struct {
	NotPlaying bool     `json:"not_playing,omitempty"`
	Leader     LeaderID `json:"leader,omitempty"`
	CheapHero  bool     `json:"cheap_hero,omitempty"`
	Card       CardID   `json:"card,omitempty"`
	Dial       int      `json:"dial,omitempty"`
}

func validatePrescience(f Faction, q *PrescienceQuestion) *Rejection {
	if q == nil {
		return reject(f, CodeMalformedResponse, "prescience question missing", "name a plan element, or decline")
	}
	switch q.Element {
	case ElementLeader, ElementWeapon, ElementDefense, ElementDial:
		return nil
	}
	return reject(f, CodeMalformedResponse, "unknown plan element", "ask about leader, weapon, defense, or dial")
}

func validatePrescienceAnswer(f Faction, q *PrescienceQuestion, a *PrescienceAnswer) *Rejection {
	if a == nil {
		return reject(f, CodeMalformedResponse, "prescience reveal missing", "commit to the asked element")
	}
	if a.NotPlaying {
		if q.Element == ElementDial {
			return reject(f, CodeMalformedResponse, "a dial cannot be declined", "commit to a number of forces")
		}
		return nil
	}
	switch q.Element {
	case ElementLeader:
		if a.Leader == "" && !a.CheapHero {
			return reject(f, CodeMalformedResponse, "leader commitment missing", "name a leader, a cheap hero, or not playing")
		}
	case ElementWeapon, ElementDefense:
		if a.Card == "" {
			return reject(f, CodeMalformedResponse, "card commitment missing", "name a card or not playing")
		}
	case ElementDial:
		if a.Dial < 0 {
			return reject(f, CodeMalformedResponse, "dial cannot be negative", "commit to zero or more forces")
		}
	}
	return nil
}

// prescienceViolation reports how the revealed plan breaks the
// pre-committed answer, or "" when compliant.
func prescienceViolation(q *PrescienceQuestion, a *PrescienceAnswer, plan *BattlePlan) string {
	if q == nil || a == nil {
		return ""
	}
	switch q.Element {
	case ElementLeader:
		if a.NotPlaying {
			if plan.Leader != "" || plan.CheapHero {
				return "committed to no leader but played one"
			}
			return ""
		}
		if a.CheapHero && !plan.CheapHero {
			return "committed to a cheap hero but played none"
		}
		if a.Leader != "" && plan.Leader != a.Leader {
			return fmt.Sprintf("committed to leader %s but played %s", a.Leader, plan.Leader)
		}
	case ElementWeapon:
		if a.NotPlaying {
			if plan.Weapon != "" {
				return "committed to no weapon but played one"
			}
			return ""
		}
		if plan.Weapon != a.Card {
			return fmt.Sprintf("committed to weapon %s but played %s", a.Card, plan.Weapon)
		}
	case ElementDefense:
		if a.NotPlaying {
			if plan.Defense != "" {
				return "committed to no defense but played one"
			}
			return ""
		}
		if plan.Defense != a.Card {
			return fmt.Sprintf("committed to defense %s but played %s", a.Card, plan.Defense)
		}
	case ElementDial:
		if plan.RegularDialed+plan.EliteDialed != a.Dial {
			return fmt.Sprintf("committed to dialing %d but dialed %d", a.Dial, plan.RegularDialed+plan.EliteDialed)
		}
	}
	return ""
}
