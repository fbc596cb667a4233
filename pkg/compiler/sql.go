package compiler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// sqlSchema creates one table per personality list. Rows are keyed by the
// personality name and the entry's position in its list.
var sqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS traits (
  personality TEXT NOT NULL,
  idx INTEGER NOT NULL,
  name TEXT NOT NULL,
  strength REAL NOT NULL,
  modifiers TEXT NOT NULL,
  PRIMARY KEY (personality, idx)
);`,
	`CREATE TABLE IF NOT EXISTS knowledge_topics (
  personality TEXT NOT NULL,
  idx INTEGER NOT NULL,
  domain TEXT NOT NULL,
  topic TEXT NOT NULL,
  level TEXT NOT NULL,
  PRIMARY KEY (personality, idx)
);`,
	`CREATE TABLE IF NOT EXISTS knowledge_connections (
  personality TEXT NOT NULL,
  idx INTEGER NOT NULL,
  from_domain TEXT NOT NULL,
  to_domain TEXT NOT NULL,
  strength REAL NOT NULL,
  evolution_rate REAL,
  PRIMARY KEY (personality, idx)
);`,
	`CREATE TABLE IF NOT EXISTS behaviors (
  personality TEXT NOT NULL,
  idx INTEGER NOT NULL,
  condition_text TEXT NOT NULL,
  action_text TEXT NOT NULL,
  PRIMARY KEY (personality, idx)
);`,
	`CREATE TABLE IF NOT EXISTS evolution_rules (
  personality TEXT NOT NULL,
  idx INTEGER NOT NULL,
  trigger_text TEXT NOT NULL,
  effect_text TEXT NOT NULL,
  PRIMARY KEY (personality, idx)
);`,
}

// EmitSQL renders p as CREATE TABLE and INSERT statements. Modifiers are
// stored as a JSON array of DSL strings; conditions, actions, triggers and
// effects as DSL text.
func EmitSQL(p *types.Personality, _ string) (string, error) {
	var b strings.Builder
	for _, stmt := range sqlSchema {
		b.WriteString(stmt)
		b.WriteString("\n\n")
	}

	name := sqlString(p.Name)
	for i, t := range p.Traits {
		mods := make([]string, len(t.Modifiers))
		for j, m := range t.Modifiers {
			mods[j] = types.FormatModifier(m)
		}
		payload, err := json.Marshal(mods)
		if err != nil {
			return "", fmt.Errorf("trait %q modifiers: %w", t.Name, err)
		}
		fmt.Fprintf(&b, "INSERT INTO traits (personality, idx, name, strength, modifiers) VALUES (%s, %d, %s, %s, %s);\n",
			name, i, sqlString(t.Name), types.FormatNumber(t.Strength), sqlString(string(payload)))
	}

	idx := 0
	for _, d := range p.Knowledge {
		for _, t := range d.Topics {
			fmt.Fprintf(&b, "INSERT INTO knowledge_topics (personality, idx, domain, topic, level) VALUES (%s, %d, %s, %s, %s);\n",
				name, idx, sqlString(d.Name), sqlString(t.Name), sqlString(t.Level.String()))
			idx++
		}
	}

	for i, c := range p.Connections() {
		rate := "NULL"
		if c.EvolutionRate != nil {
			rate = types.FormatNumber(*c.EvolutionRate)
		}
		fmt.Fprintf(&b, "INSERT INTO knowledge_connections (personality, idx, from_domain, to_domain, strength, evolution_rate) VALUES (%s, %d, %s, %s, %s, %s);\n",
			name, i, sqlString(c.From), sqlString(c.To), types.FormatNumber(c.Strength), rate)
	}

	for i, r := range p.Behaviors {
		fmt.Fprintf(&b, "INSERT INTO behaviors (personality, idx, condition_text, action_text) VALUES (%s, %d, %s, %s);\n",
			name, i, sqlString(types.FormatCondition(r.Condition)), sqlString(types.FormatAction(r.Action)))
	}

	for i, r := range p.Evolution {
		fmt.Fprintf(&b, "INSERT INTO evolution_rules (personality, idx, trigger_text, effect_text) VALUES (%s, %d, %s, %s);\n",
			name, i, sqlString(types.FormatTrigger(r.Trigger)), sqlString(types.FormatEffect(r.Effect)))
	}

	return b.String(), nil
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
