package arrakis

// CardID identifies a treachery card definition.
type CardID string

// CardKind classifies a treachery card for battle resolution.
type CardKind int

const (
	KindWorthless CardKind = iota
	KindProjectileWeapon
	KindPoisonWeapon
	KindProjectileDefense // shield
	KindPoisonDefense     // snooper
	KindLasgun
	KindCheapHero
)

func (k CardKind) String() string {
	switch k {
	case KindProjectileWeapon:
		return "projectile_weapon"
	case KindPoisonWeapon:
		return "poison_weapon"
	case KindProjectileDefense:
		return "projectile_defense"
	case KindPoisonDefense:
		return "poison_defense"
	case KindLasgun:
		return "lasgun"
	case KindCheapHero:
		return "cheap_hero"
	default:
		return "worthless"
	}
}

// Card represents a treachery card definition.
type Card struct {
	ID   CardID
	Name string
	Kind CardKind
	// DiscardAfterUse marks cards the winner may not keep after playing.
	DiscardAfterUse bool
	// ShieldOnlyDefense marks a poison weapon that, unlike other poisons,
	// is stopped by a shield rather than a snooper.
	ShieldOnlyDefense bool
}

// Standard card IDs.
const (
	CardCrysknife   CardID = "crysknife"
	CardMaulaPistol CardID = "maula_pistol"
	CardSlipTip     CardID = "slip_tip"
	CardStunner     CardID = "stunner"
	CardChaumas     CardID = "chaumas"
	CardChaumurky   CardID = "chaumurky"
	CardEllacaDrug  CardID = "ellaca_drug"
	CardGomJabbar   CardID = "gom_jabbar"
	CardPoisonBlade CardID = "poison_blade"
	CardLasgun      CardID = "lasgun"
	CardShield      CardID = "shield"
	CardSnooper     CardID = "snooper"
	CardCheapHero   CardID = "cheap_hero"
	CardBaliset     CardID = "baliset"
	CardJubbaCloak  CardID = "jubba_cloak"
	CardKulon       CardID = "kulon"
	CardLaLaLa      CardID = "la_la_la"
	CardTripGamont  CardID = "trip_to_gamont"
)

var cardTable = map[CardID]*Card{
	CardCrysknife:   {ID: CardCrysknife, Name: "Crysknife", Kind: KindProjectileWeapon},
	CardMaulaPistol: {ID: CardMaulaPistol, Name: "Maula Pistol", Kind: KindProjectileWeapon},
	CardSlipTip:     {ID: CardSlipTip, Name: "Slip Tip", Kind: KindProjectileWeapon},
	CardStunner:     {ID: CardStunner, Name: "Stunner", Kind: KindProjectileWeapon},
	CardChaumas:     {ID: CardChaumas, Name: "Chaumas", Kind: KindPoisonWeapon},
	CardChaumurky:   {ID: CardChaumurky, Name: "Chaumurky", Kind: KindPoisonWeapon},
	CardEllacaDrug:  {ID: CardEllacaDrug, Name: "Ellaca Drug", Kind: KindPoisonWeapon},
	CardGomJabbar:   {ID: CardGomJabbar, Name: "Gom Jabbar", Kind: KindPoisonWeapon},
	CardPoisonBlade: {ID: CardPoisonBlade, Name: "Poison Blade", Kind: KindPoisonWeapon, ShieldOnlyDefense: true, DiscardAfterUse: true},
	CardLasgun:      {ID: CardLasgun, Name: "Lasgun", Kind: KindLasgun},
	CardShield:      {ID: CardShield, Name: "Shield", Kind: KindProjectileDefense},
	CardSnooper:     {ID: CardSnooper, Name: "Snooper", Kind: KindPoisonDefense},
	CardCheapHero:   {ID: CardCheapHero, Name: "Cheap Hero", Kind: KindCheapHero, DiscardAfterUse: true},
	CardBaliset:     {ID: CardBaliset, Name: "Baliset", Kind: KindWorthless},
	CardJubbaCloak:  {ID: CardJubbaCloak, Name: "Jubba Cloak", Kind: KindWorthless},
	CardKulon:       {ID: CardKulon, Name: "Kulon", Kind: KindWorthless},
	CardLaLaLa:      {ID: CardLaLaLa, Name: "La, La, La", Kind: KindWorthless},
	CardTripGamont:  {ID: CardTripGamont, Name: "Trip to Gamont", Kind: KindWorthless},
}

// CardByID returns the card definition for an ID, or nil if unknown.
func CardByID(id CardID) *Card {
	return cardTable[id]
}

// IsWeapon reports whether the card is playable in a plan's weapon slot.
func IsWeapon(id CardID) bool {
	c := cardTable[id]
	if c == nil {
		return false
	}
	return c.Kind == KindProjectileWeapon || c.Kind == KindPoisonWeapon || c.Kind == KindLasgun
}

// IsDefense reports whether the card is playable in a plan's defense slot.
func IsDefense(id CardID) bool {
	c := cardTable[id]
	if c == nil {
		return false
	}
	return c.Kind == KindProjectileDefense || c.Kind == KindPoisonDefense
}

// Defends reports whether the defense card stops the weapon card.
// Poison weapons are stopped by a snooper, projectile weapons by a shield,
// the poison blade only by a shield, and a lasgun by nothing.
func Defends(defense, weapon CardID) bool {
	d := cardTable[defense]
	w := cardTable[weapon]
	if d == nil || w == nil {
		return false
	}
	switch w.Kind {
	case KindLasgun:
		return false
	case KindProjectileWeapon:
		return d.Kind == KindProjectileDefense
	case KindPoisonWeapon:
		if w.ShieldOnlyDefense {
			return d.Kind == KindProjectileDefense
		}
		return d.Kind == KindPoisonDefense
	}
	return false
}
