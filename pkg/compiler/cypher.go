package compiler

import (
	"fmt"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// EmitCypher renders p as a single Cypher CREATE query. The Personality
// root is linked to every trait, domain, behavior and evolution node.
//
// Node variables are positional: t0.., d0.., b0.., e0...
func EmitCypher(p *types.Personality, _ string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE (p:Personality {name: %s})\n", cypherString(p.Name))

	for i, t := range p.Traits {
		mods := make([]string, len(t.Modifiers))
		for j, m := range t.Modifiers {
			mods[j] = cypherString(types.FormatModifier(m))
		}
		fmt.Fprintf(&b, "CREATE (t%d:Trait {name: %s, strength: %s, modifiers: [%s]})\n",
			i, cypherString(t.Name), types.FormatNumber(t.Strength), strings.Join(mods, ", "))
		fmt.Fprintf(&b, "CREATE (p)-[:HAS_TRAIT]->(t%d)\n", i)
	}

	vars := make(map[string]string, len(p.Knowledge))
	for i, d := range p.Knowledge {
		v := fmt.Sprintf("d%d", i)
		vars[d.Name] = v
		props := []string{"name: " + cypherString(d.Name)}
		for _, t := range d.Topics {
			props = append(props, topicKey(t.Name)+": "+cypherString(t.Level.String()))
		}
		fmt.Fprintf(&b, "CREATE (%s:Domain {%s})\n", v, strings.Join(props, ", "))
		fmt.Fprintf(&b, "CREATE (p)-[:KNOWS]->(%s)\n", v)
	}

	for _, c := range p.Connections() {
		from, okFrom := vars[c.From]
		to, okTo := vars[c.To]
		if !okFrom || !okTo {
			return "", fmt.Errorf("connection %s -> %s: unknown domain", c.From, c.To)
		}
		props := "strength: " + types.FormatNumber(c.Strength)
		if c.EvolutionRate != nil {
			props += ", evolution_rate: " + types.FormatNumber(*c.EvolutionRate)
		}
		fmt.Fprintf(&b, "CREATE (%s)-[:CONNECTS_TO {%s}]->(%s)\n", from, props, to)
	}

	for i, r := range p.Behaviors {
		fmt.Fprintf(&b, "CREATE (b%d:Behavior {condition: %s, action: %s})\n",
			i, cypherString(types.FormatCondition(r.Condition)), cypherString(types.FormatAction(r.Action)))
		fmt.Fprintf(&b, "CREATE (p)-[:EXHIBITS]->(b%d)\n", i)
	}

	for i, r := range p.Evolution {
		fmt.Fprintf(&b, "CREATE (e%d:Evolution {trigger: %s, effect: %s})\n",
			i, cypherString(types.FormatTrigger(r.Trigger)), cypherString(types.FormatEffect(r.Effect)))
		fmt.Fprintf(&b, "CREATE (p)-[:EVOLVES_BY]->(e%d)\n", i)
	}

	out := strings.TrimSuffix(b.String(), "\n")
	return out + ";\n", nil
}

func cypherString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// topicKey returns the backtick-quoted property key of a topic. Every topic
// key carries the "topic." prefix, so none can collide with the domain's own
// name property.
func topicKey(topic string) string {
	return "`topic." + strings.ReplaceAll(topic, "`", "``") + "`"
}
