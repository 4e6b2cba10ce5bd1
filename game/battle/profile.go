package battle

import (
	"fmt"
	"strings"
)

// Profile is the immutable stat block a combatant is created from.
type Profile struct {
	MaxHP              int `json:"max_hp" yaml:"max_hp"`
	MaxSP              int `json:"max_sp" yaml:"max_sp"`
	AttackDamage       int `json:"attack_damage" yaml:"attack_damage"`
	ReflectSkillSPCost int `json:"reflect_skill_sp_cost" yaml:"reflect_skill_sp_cost"`
	ReflectSuccessRate int `json:"reflect_success_rate" yaml:"reflect_success_rate"` // 0-100
	ReflectMaxCount    int `json:"reflect_max_count" yaml:"reflect_max_count"`
}

// DefaultProfile returns the stock stat block used when a roster leaves fields unset.
func DefaultProfile() Profile {
	return Profile{
		MaxHP:              100,
		MaxSP:              5,
		AttackDamage:       10,
		ReflectSkillSPCost: 1,
		ReflectSuccessRate: 80,
		ReflectMaxCount:    3,
	}
}

// Validate reports every field that cannot produce a well-formed combatant.
func (p Profile) Validate() error {
	var errs []string
	if p.MaxHP <= 0 {
		errs = append(errs, fmt.Sprintf("max_hp must be > 0, got %d", p.MaxHP))
	}
	if p.MaxSP < 0 {
		errs = append(errs, fmt.Sprintf("max_sp must be >= 0, got %d", p.MaxSP))
	}
	if p.AttackDamage < 0 {
		errs = append(errs, fmt.Sprintf("attack_damage must be >= 0, got %d", p.AttackDamage))
	}
	if p.ReflectSkillSPCost < 0 {
		errs = append(errs, fmt.Sprintf("reflect_skill_sp_cost must be >= 0, got %d", p.ReflectSkillSPCost))
	}
	if p.ReflectSuccessRate < 0 || p.ReflectSuccessRate > 100 {
		errs = append(errs, fmt.Sprintf("reflect_success_rate must be 0-100, got %d", p.ReflectSuccessRate))
	}
	if p.ReflectMaxCount < 0 {
		errs = append(errs, fmt.Sprintf("reflect_max_count must be >= 0, got %d", p.ReflectMaxCount))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
