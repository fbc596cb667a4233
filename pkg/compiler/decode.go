package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/types"
)

// DecodeStructured parses the output of the json target back into a
// personality. The result is not validated.
func DecodeStructured(data []byte) (*types.Personality, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode personality document: %w", err)
	}
	return doc.Personality()
}

// Personality converts the document back to an AST.
func (doc Document) Personality() (*types.Personality, error) {
	p := types.CreatePersonality(doc.Name)

	for _, td := range doc.Traits {
		t := types.Trait{Name: td.Name, Strength: td.Strength}
		for _, s := range td.Modifiers {
			m, err := parser.ParseModifier(s)
			if err != nil {
				return nil, fmt.Errorf("trait %q: modifier %q: %w", td.Name, s, err)
			}
			t.Modifiers = append(t.Modifiers, m)
		}
		p.Traits = append(p.Traits, t)
	}

	for _, dd := range doc.Knowledge {
		d := types.KnowledgeDomain{Name: dd.Name}
		for _, t := range dd.Topics {
			level, ok := types.LookupKnowledgeLevel(t.Level)
			if !ok {
				return nil, fmt.Errorf("domain %q: topic %q: unknown level %q", dd.Name, t.Name, t.Level)
			}
			d.Topics = append(d.Topics, types.TopicLevel{Name: t.Name, Level: level})
		}
		for _, c := range dd.Connections {
			d.Connections = append(d.Connections, types.Connection{
				From: c.From, To: c.To, Strength: c.Strength, EvolutionRate: c.EvolutionRate,
			})
		}
		p.Knowledge = append(p.Knowledge, d)
	}

	for i, bd := range doc.Behaviors {
		cond, err := parser.ParseCondition(bd.Condition)
		if err != nil {
			return nil, fmt.Errorf("behavior %d: condition %q: %w", i, bd.Condition, err)
		}
		action, err := parser.ParseAction(bd.Action)
		if err != nil {
			return nil, fmt.Errorf("behavior %d: action %q: %w", i, bd.Action, err)
		}
		p.Behaviors = append(p.Behaviors, types.BehaviorRule{Condition: cond, Action: action})
	}

	for i, ed := range doc.Evolution {
		trigger, err := parser.ParseTrigger(ed.Trigger)
		if err != nil {
			return nil, fmt.Errorf("evolution rule %d: trigger %q: %w", i, ed.Trigger, err)
		}
		effect, err := parser.ParseEffect(ed.Effect)
		if err != nil {
			return nil, fmt.Errorf("evolution rule %d: effect %q: %w", i, ed.Effect, err)
		}
		p.Evolution = append(p.Evolution, types.EvolutionRule{Trigger: trigger, Effect: effect})
	}

	return &p, nil
}
