package battle

import "fmt"

// Side identifies which roster a combatant belongs to.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideEnemy:
		return "enemy"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "player":
		*s = SidePlayer
	case "enemy":
		*s = SideEnemy
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// CombatantID is a roster slot: side plus position. Slots never move during a battle.
type CombatantID struct {
	Side  Side `json:"side"`
	Index int  `json:"index"`
}

func (id CombatantID) String() string {
	return fmt.Sprintf("%s_%d", id.Side, id.Index)
}

// Observer receives HP/SP changes in the order they happen.
type Observer interface {
	HPChanged(id CombatantID, hp, maxHP int)
	SPChanged(id CombatantID, sp, maxSP int)
}

// Combatant is one fighter's mutable battle state.
//
// Invariants: 0 <= hp <= MaxHP, 0 <= sp <= MaxSP, and reflecting implies
// reflectLeft > 0 (both are cleared together).
type Combatant struct {
	id      CombatantID
	name    string
	profile Profile

	hp, sp      int
	reflecting  bool
	reflectLeft int

	rng      Source
	observer Observer
}

// NewCombatant creates a combatant at full HP and SP.
// rng is used for reflect rolls; observer may be nil.
func NewCombatant(id CombatantID, name string, profile Profile, rng Source, observer Observer) *Combatant {
	return &Combatant{
		id:       id,
		name:     name,
		profile:  profile,
		hp:       profile.MaxHP,
		sp:       profile.MaxSP,
		rng:      rng,
		observer: observer,
	}
}

func (c *Combatant) ID() CombatantID { return c.id }
func (c *Combatant) Name() string { return c.name }
func (c *Combatant) Profile() Profile { return c.profile }
func (c *Combatant) HP() int { return c.hp }
func (c *Combatant) MaxHP() int { return c.profile.MaxHP }
func (c *Combatant) SP() int { return c.sp }
func (c *Combatant) MaxSP() int { return c.profile.MaxSP }
func (c *Combatant) IsReflecting() bool { return c.reflecting }
func (c *Combatant) ReflectChargesLeft() int { return c.reflectLeft }

// IsDead reports whether HP has reached zero. Dead combatants stay in their slot.
func (c *Combatant) IsDead() bool { return c.hp <= 0 }

// reflectActive is the guard shared by damage, activation and the skill resolver.
func (c *Combatant) reflectActive() bool {
	return c.reflecting && c.reflectLeft > 0
}

// ApplyDamage takes an incoming hit. While reflecting, every hit consumes one
// charge and rolls [0,100) against ReflectSuccessRate; a successful roll
// negates the hit and returns true. Otherwise HP drops by amount, floored at 0.
func (c *Combatant) ApplyDamage(amount int) bool {
	if c.reflectActive() {
		c.reflectLeft--
		roll := c.rng.Intn(100)
		success := roll < c.profile.ReflectSuccessRate
		if c.reflectLeft <= 0 {
			c.reflectLeft = 0
			c.reflecting = false
		}
		if success {
			return true
		}
	}
	c.loseHP(amount)
	return false
}

// takeReflected applies returned damage. It never triggers the receiver's own reflect.
func (c *Combatant) takeReflected(amount int) {
	c.loseHP(amount)
}

func (c *Combatant) loseHP(amount int) {
	if amount < 0 {
		amount = 0
	}
	c.hp -= amount
	if c.hp < 0 {
		c.hp = 0
	}
	c.notifyHP()
}

// Heal raises HP by amount, capped at MaxHP.
func (c *Combatant) Heal(amount int) {
	if amount < 0 {
		amount = 0
	}
	c.hp += amount
	if c.hp > c.profile.MaxHP {
		c.hp = c.profile.MaxHP
	}
	c.notifyHP()
}

// SpendSP deducts amount if the combatant can afford it. On failure nothing changes.
func (c *Combatant) SpendSP(amount int) bool {
	if amount < 0 {
		amount = 0
	}
	if c.sp < amount {
		return false
	}
	c.sp -= amount
	c.notifySP()
	return true
}

// RestoreSP raises SP by amount, capped at MaxSP.
func (c *Combatant) RestoreSP(amount int) {
	if amount < 0 {
		amount = 0
	}
	c.sp += amount
	if c.sp > c.profile.MaxSP {
		c.sp = c.profile.MaxSP
	}
	c.notifySP()
}

// ActivateReflect arms ReflectMaxCount charges. It is a no-op while charges
// remain, so an active window is never reset or extended.
func (c *Combatant) ActivateReflect() {
	if c.reflectActive() {
		return
	}
	if c.profile.ReflectMaxCount <= 0 {
		return
	}
	c.reflecting = true
	c.reflectLeft = c.profile.ReflectMaxCount
}

func (c *Combatant) notifyHP() {
	if c.observer != nil {
		c.observer.HPChanged(c.id, c.hp, c.profile.MaxHP)
	}
}

func (c *Combatant) notifySP() {
	if c.observer != nil {
		c.observer.SPChanged(c.id, c.sp, c.profile.MaxSP)
	}
}

// CombatantSnapshot is a read-only copy of a combatant's state.
type CombatantSnapshot struct {
	ID                 CombatantID `json:"id"`
	Name               string      `json:"name"`
	HP                 int         `json:"hp"`
	MaxHP              int         `json:"max_hp"`
	SP                 int         `json:"sp"`
	MaxSP              int         `json:"max_sp"`
	Reflecting         bool        `json:"reflecting"`
	ReflectChargesLeft int         `json:"reflect_charges_left"`
	Dead               bool        `json:"dead"`
}

// Snapshot copies the current state.
func (c *Combatant) Snapshot() CombatantSnapshot {
	return CombatantSnapshot{
		ID:                 c.id,
		Name:               c.name,
		HP:                 c.hp,
		MaxHP:              c.profile.MaxHP,
		SP:                 c.sp,
		MaxSP:              c.profile.MaxSP,
		Reflecting:         c.reflecting,
		ReflectChargesLeft: c.reflectLeft,
		Dead:               c.IsDead(),
	}
}
