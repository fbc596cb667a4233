package compiler

import (
	"encoding/json"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Document is the json target's shape. Modifiers, conditions, actions,
// triggers and effects are canonical DSL text.
type Document struct {
	Name      string         `json:"name"`
	Traits    []TraitDoc     `json:"traits"`
	Knowledge []DomainDoc    `json:"knowledge"`
	Behaviors []BehaviorDoc  `json:"behaviors"`
	Evolution []EvolutionDoc `json:"evolution"`
}

type TraitDoc struct {
	Name      string   `json:"name"`
	Strength  float64  `json:"strength"`
	Modifiers []string `json:"modifiers"`
}

type DomainDoc struct {
	Name        string          `json:"name"`
	Topics      []TopicDoc      `json:"topics"`
	Connections []ConnectionDoc `json:"connections"`
}

type TopicDoc struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

type ConnectionDoc struct {
	From          string   `json:"from_domain"`
	To            string   `json:"to_domain"`
	Strength      float64  `json:"strength"`
	EvolutionRate *float64 `json:"evolution_rate,omitempty"`
}

type BehaviorDoc struct {
	Condition string `json:"condition"`
	Action    string `json:"action"`
}

type EvolutionDoc struct {
	Trigger string `json:"trigger"`
	Effect  string `json:"effect"`
}

// NewDocument converts p to its json target shape. Lists are never nil so
// that they encode as [] rather than null.
func NewDocument(p *types.Personality) Document {
	doc := Document{
		Name:      p.Name,
		Traits:    make([]TraitDoc, 0, len(p.Traits)),
		Knowledge: make([]DomainDoc, 0, len(p.Knowledge)),
		Behaviors: make([]BehaviorDoc, 0, len(p.Behaviors)),
		Evolution: make([]EvolutionDoc, 0, len(p.Evolution)),
	}

	for _, t := range p.Traits {
		mods := make([]string, len(t.Modifiers))
		for i, m := range t.Modifiers {
			mods[i] = types.FormatModifier(m)
		}
		doc.Traits = append(doc.Traits, TraitDoc{Name: t.Name, Strength: t.Strength, Modifiers: mods})
	}

	for _, d := range p.Knowledge {
		dd := DomainDoc{
			Name:        d.Name,
			Topics:      make([]TopicDoc, len(d.Topics)),
			Connections: make([]ConnectionDoc, len(d.Connections)),
		}
		for i, t := range d.Topics {
			dd.Topics[i] = TopicDoc{Name: t.Name, Level: t.Level.String()}
		}
		for i, c := range d.Connections {
			dd.Connections[i] = ConnectionDoc{From: c.From, To: c.To, Strength: c.Strength, EvolutionRate: c.EvolutionRate}
		}
		doc.Knowledge = append(doc.Knowledge, dd)
	}

	for _, r := range p.Behaviors {
		doc.Behaviors = append(doc.Behaviors, BehaviorDoc{
			Condition: types.FormatCondition(r.Condition),
			Action:    types.FormatAction(r.Action),
		})
	}
	for _, r := range p.Evolution {
		doc.Evolution = append(doc.Evolution, EvolutionDoc{
			Trigger: types.FormatTrigger(r.Trigger),
			Effect:  types.FormatEffect(r.Effect),
		})
	}
	return doc
}

// EmitJSON renders p as a JSON document. An empty indent gives compact output.
func EmitJSON(p *types.Personality, indent string) (string, error) {
	doc := NewDocument(p)
	var (
		data []byte
		err  error
	)
	if indent == "" {
		data, err = json.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", indent)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
