package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, 100, p.MaxHP)
	assert.Equal(t, 5, p.MaxSP)
	assert.Equal(t, 10, p.AttackDamage)
	assert.Equal(t, 1, p.ReflectSkillSPCost)
	assert.Equal(t, 80, p.ReflectSuccessRate)
	assert.Equal(t, 3, p.ReflectMaxCount)
	require.NoError(t, p.Validate())
}

func TestProfileValidate_CollectsAll(t *testing.T) {
	p := Profile{MaxHP: 0, MaxSP: -1, AttackDamage: -2, ReflectSkillSPCost: -1, ReflectSuccessRate: 101, ReflectMaxCount: -1}
	err := p.Validate()
	require.Error(t, err)
	for _, field := range []string{"max_hp", "max_sp", "attack_damage", "reflect_skill_sp_cost", "reflect_success_rate", "reflect_max_count"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestProfileValidate_ZeroesAllowed(t *testing.T) {
	p := Profile{MaxHP: 1}
	assert.NoError(t, p.Validate())
}
