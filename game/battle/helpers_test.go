package battle

// scriptedSource returns the queued rolls in order, then zeros.
type scriptedSource struct {
	rolls []int
	calls int
}

func (s *scriptedSource) Intn(n int) int {
	s.calls++
	if len(s.rolls) == 0 {
		return 0
	}
	v := s.rolls[0]
	s.rolls = s.rolls[1:]
	return v % n
}

func profileWith(mut func(p *Profile)) Profile {
	p := DefaultProfile()
	if mut != nil {
		mut(&p)
	}
	return p
}

func newTestCombatant(side Side, idx int, p Profile, rng Source) *Combatant {
	if rng == nil {
		rng = &scriptedSource{}
	}
	return NewCombatant(CombatantID{Side: side, Index: idx}, "c", p, rng, nil)
}

func eventTypes(evs []BattleEvent) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.EventType()
	}
	return out
}
