// Package roster loads party and enemy line-ups from YAML.
//
//	party: heroes
//	profiles:
//	  knight: {max_hp: 120, attack_damage: 12}
//	players:
//	  - name: Alice
//	    profile: knight
//	  - name: Bob
//	    stats: {max_sp: 8}
//	enemies:
//	  - name: Slime
//	    stats: {max_hp: 30, reflect_max_count: 0}
//
// Named profiles and inline stats are layered over battle.DefaultProfile, so
// any field left out keeps its stock value.
package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kasuganosora/turnbattle/game/battle"
	"gopkg.in/yaml.v3"
)

// Entry is one combatant line in a roster file.
type Entry struct {
	Name    string     `yaml:"name"`
	Profile string     `yaml:"profile"`
	Stats   yaml.Node `yaml:"stats"`
}

type file struct {
	Party    string               `yaml:"party"`
	Profiles map[string]yaml.Node `yaml:"profiles"`
	Players  []Entry              `yaml:"players"`
	Enemies  []Entry              `yaml:"enemies"`
}

// Roster is a resolved line-up ready to hand to battle.New.
type Roster struct {
	Party   string
	Players []*battle.Member
	Enemies []*battle.Member
}

// Load reads and resolves the roster file at path.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse resolves a roster document. All problems are reported at once.
func Parse(data []byte) (*Roster, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	var problems []string
	profiles := make(map[string]battle.Profile, len(f.Profiles))
	for name, node := range f.Profiles {
		p := battle.DefaultProfile()
		if err := decodeStrict(&node, &p); err != nil {
			problems = append(problems, fmt.Sprintf("profile %q: %v", name, err))
			continue
		}
		profiles[name] = p
	}

	r := &Roster{Party: f.Party}
	if r.Party == "" {
		r.Party = "default"
	}
	var errs []string
	r.Players, errs = resolve("players", f.Players, profiles)
	problems = append(problems, errs...)
	r.Enemies, errs = resolve("enemies", f.Enemies, profiles)
	problems = append(problems, errs...)

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid roster: %s", strings.Join(problems, "; "))
	}
	return r, nil
}

func resolve(side string, entries []Entry, profiles map[string]battle.Profile) ([]*battle.Member, []string) {
	if len(entries) == 0 {
		return nil, []string{side + ": at least one entry is required"}
	}
	var problems []string
	members := make([]*battle.Member, 0, len(entries))
	for i, e := range entries {
		p := battle.DefaultProfile()
		if e.Profile != "" {
			named, ok := profiles[e.Profile]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s[%d]: unknown profile %q", side, i, e.Profile))
				continue
			}
			p = named
		}
		if e.Stats.Kind != 0 {
			if err := decodeStrict(&e.Stats, &p); err != nil {
				problems = append(problems, fmt.Sprintf("%s[%d]: stats: %v", side, i, err))
				continue
			}
		}
		if err := p.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("%s[%d]: %v", side, i, err))
			continue
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("%s %d", defaultNames[side], i+1)
		}
		members = append(members, &battle.Member{Name: name, Profile: p})
	}
	return members, problems
}

// decodeStrict decodes n into out, rejecting keys out does not declare.
// Node.Decode does not honour the outer decoder's KnownFields.
func decodeStrict(n *yaml.Node, out any) error {
	raw, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var defaultNames = map[string]string{"players": "Player", "enemies": "Enemy"}

// Default is the line-up used when no roster file is configured: two heroes
// with stock stats against two slimes.
func Default() *Roster {
	slime := battle.DefaultProfile()
	slime.MaxHP = 40
	slime.AttackDamage = 8
	return &Roster{
		Party: "default",
		Players: []*battle.Member{
			{Name: "Hero", Profile: battle.DefaultProfile()},
			{Name: "Mage", Profile: battle.DefaultProfile()},
		},
		Enemies: []*battle.Member{
			{Name: "Slime A", Profile: slime},
			{Name: "Slime B", Profile: slime},
		},
	}
}
