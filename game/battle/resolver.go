package battle

// Reason explains why a resolved command changed nothing.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonActorDead
	ReasonTargetDead
	ReasonNoItems
	ReasonAlreadyReflecting
	ReasonInsufficientSP
	ReasonNoReflect
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonActorDead:
		return "actor_dead"
	case ReasonTargetDead:
		return "target_dead"
	case ReasonNoItems:
		return "no_items"
	case ReasonAlreadyReflecting:
		return "already_reflecting"
	case ReasonInsufficientSP:
		return "insufficient_sp"
	case ReasonNoReflect:
		return "no_reflect"
	default:
		return "unknown"
	}
}

func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// Outcome describes what a single command did. Applied is false for no-ops,
// with Reason saying why.
type Outcome struct {
	Kind           CommandType `json:"kind"`
	Actor          CombatantID `json:"actor"`
	Target         CombatantID `json:"target"`
	Applied        bool        `json:"applied"`
	Reason         Reason      `json:"reason"`
	Amount         int         `json:"amount"`
	Reflected      bool        `json:"reflected"`
	TargetDefeated bool        `json:"target_defeated"`
	ActorDefeated  bool        `json:"actor_defeated"`
}

// ItemPouch is the healing-item budget shared by the whole player party.
type ItemPouch struct {
	healAmount int
	max        int
	left       int
}

// NewItemPouch returns a full pouch.
func NewItemPouch(healAmount, maxCount int) *ItemPouch {
	if maxCount < 0 {
		maxCount = 0
	}
	return &ItemPouch{healAmount: healAmount, max: maxCount, left: maxCount}
}

func (p *ItemPouch) Left() int { return p.left }
func (p *ItemPouch) Max() int { return p.max }
func (p *ItemPouch) HealAmount() int { return p.healAmount }
func (p *ItemPouch) Used() int { return p.max - p.left }

// Take removes one item. It returns false when the pouch is empty.
func (p *ItemPouch) Take() bool {
	if p.left <= 0 {
		return false
	}
	p.left--
	return true
}

// Attack resolves attacker hitting target for the attacker's fixed damage.
// A reflected hit is returned to the attacker as direct damage.
func Attack(attacker, target *Combatant) Outcome {
	out := Outcome{Kind: CommandAttack, Actor: attacker.ID(), Target: target.ID()}
	if target.IsDead() {
		out.Reason = ReasonTargetDead
		return out
	}
	dmg := attacker.Profile().AttackDamage
	out.Applied = true
	out.Amount = dmg
	if target.ApplyDamage(dmg) {
		out.Reflected = true
		attacker.takeReflected(dmg)
	}
	out.TargetDefeated = target.IsDead()
	out.ActorDefeated = attacker.IsDead()
	return out
}

// UseItem spends one item from pouch to heal target.
func UseItem(user, target *Combatant, pouch *ItemPouch) Outcome {
	out := Outcome{Kind: CommandItem, Actor: user.ID(), Target: target.ID()}
	if target.IsDead() {
		out.Reason = ReasonTargetDead
		return out
	}
	if !pouch.Take() {
		out.Reason = ReasonNoItems
		return out
	}
	target.Heal(pouch.HealAmount())
	out.Applied = true
	out.Amount = pouch.HealAmount()
	return out
}

// UseReflectSkill pays the SP cost and arms the caster's reflect. A caster
// whose profile has no reflect charges pays nothing.
func UseReflectSkill(caster *Combatant) Outcome {
	out := Outcome{Kind: CommandSkill, Actor: caster.ID(), Target: caster.ID()}
	if caster.reflectActive() {
		out.Reason = ReasonAlreadyReflecting
		return out
	}
	if caster.Profile().ReflectMaxCount <= 0 {
		out.Reason = ReasonNoReflect
		return out
	}
	cost := caster.Profile().ReflectSkillSPCost
	if !caster.SpendSP(cost) {
		out.Reason = ReasonInsufficientSP
		return out
	}
	caster.ActivateReflect()
	out.Applied = true
	out.Amount = cost
	return out
}
