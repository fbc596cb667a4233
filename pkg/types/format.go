package types

import (
	"fmt"
	"strings"
	"unicode"
)

// reservedWords are lexed as keyword tokens and must be quoted when used as
// names by the printer. The parser still accepts them unquoted in name
// position.
var reservedWords = map[string]bool{
	"personality": true,
	"traits":      true,
	"knowledge":   true,
	"behaviors":   true,
	"evolution":   true,
	"with":        true,
	"domain":      true,
	"when":        true,
	"if":          true,
	"then":        true,
}

// FormatName prints a trait, domain or topic name, quoting it when it is not
// a plain identifier.
func FormatName(s string) string {
	if isIdentifier(s) && !reservedWords[s] {
		return s
	}
	return Quote(s)
}

// Quote wraps s in double quotes. DSL strings have no escapes.
func Quote(s string) string {
	return `"` + s + `"`
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r):
		case i > 0 && (unicode.IsDigit(r) || r == '_'):
		default:
			return false
		}
	}
	return true
}

// FormatModifier prints m in DSL syntax, e.g. decay(0.1/month).
func FormatModifier(m Modifier) string {
	switch x := m.(type) {
	case Decay:
		return fmt.Sprintf("decay(%s/%s)", FormatNumber(x.Rate), x.Unit)
	case When:
		return fmt.Sprintf("when(%s)", FormatContext(x.Context))
	case Unless:
		return fmt.Sprintf("unless(%s)", FormatContext(x.Context))
	case Amplifies:
		return fmt.Sprintf("amplifies(%s, %s)", FormatName(x.Target), FormatNumber(x.Factor))
	case TransformsTo:
		return fmt.Sprintf("transforms_to(%s, %s, %d)", FormatName(x.Target), FormatNumber(x.Factor), x.Count)
	default:
		panic(fmt.Sprintf("types: unhandled modifier %T", m))
	}
}

// FormatContext prints a When/Unless argument. Topics print as a bare string.
func FormatContext(c Context) string {
	switch x := c.(type) {
	case Topic:
		return Quote(string(x))
	case Situation:
		return "situation:" + Quote(string(x))
	case TimeOfDay:
		return "time:" + Quote(string(x))
	case EmotionalState:
		return "mood:" + Quote(string(x))
	default:
		panic(fmt.Sprintf("types: unhandled context %T", c))
	}
}

// FormatCondition prints a behavior condition.
func FormatCondition(c Condition) string {
	switch x := c.(type) {
	case Tired:
		return "tired"
	case Motivated:
		return "motivated"
	case ContextMatch:
		return fmt.Sprintf("context(%s)", Quote(x.Value))
	case TraitAbove:
		return fmt.Sprintf("%s > %s", FormatName(x.Trait), FormatNumber(x.Threshold))
	case TimeRange:
		return fmt.Sprintf("time(%s, %s)", Quote(x.Start), Quote(x.End))
	default:
		panic(fmt.Sprintf("types: unhandled condition %T", c))
	}
}

// FormatAction prints a behavior action.
func FormatAction(a Action) string {
	switch x := a.(type) {
	case Prefer:
		return "prefer " + Quote(x.Value)
	case Seek:
		return "seek " + Quote(x.Value)
	case Avoid:
		return "avoid " + Quote(x.Value)
	case SetStyle:
		return fmt.Sprintf("style(%s, %s)", FormatName(x.Key), Quote(x.Value))
	default:
		panic(fmt.Sprintf("types: unhandled action %T", a))
	}
}

// FormatBehavior prints a full behavior rule.
func FormatBehavior(r BehaviorRule) string {
	return fmt.Sprintf("when %s -> %s", FormatCondition(r.Condition), FormatAction(r.Action))
}

// FormatTrigger prints an evolution trigger.
func FormatTrigger(t Trigger) string {
	switch x := t.(type) {
	case Learns:
		return fmt.Sprintf("learns(%s)", Quote(x.Topic))
	case TimeInDomain:
		return fmt.Sprintf("time_in(%s, %d %ss)", FormatName(x.Domain), x.Count, x.Unit)
	case InteractionCount:
		return fmt.Sprintf("interactions(%d)", x.Count)
	case FeedbackScore:
		return fmt.Sprintf("feedback(%s)", FormatNumber(x.Score))
	default:
		panic(fmt.Sprintf("types: unhandled trigger %T", t))
	}
}

// FormatEffect prints an evolution effect.
func FormatEffect(e Effect) string {
	switch x := e.(type) {
	case TraitAdjust:
		if x.Delta < 0 {
			return fmt.Sprintf("%s -= %s", FormatName(x.Trait), FormatNumber(-x.Delta))
		}
		return fmt.Sprintf("%s += %s", FormatName(x.Trait), FormatNumber(x.Delta))
	case UnlockDomain:
		return fmt.Sprintf("unlock(%s)", FormatName(x.Domain))
	case AddConnection:
		return fmt.Sprintf("connect(%s, %s, %s)", FormatName(x.From), FormatName(x.To), FormatNumber(x.Strength))
	case NewBehavior:
		return fmt.Sprintf("new_behavior { %s }", FormatBehavior(x.Rule))
	default:
		panic(fmt.Sprintf("types: unhandled effect %T", e))
	}
}

// FormatEvolutionRule prints a full evolution rule.
func FormatEvolutionRule(r EvolutionRule) string {
	return fmt.Sprintf("if %s then %s", FormatTrigger(r.Trigger), FormatEffect(r.Effect))
}

// FormatConnection prints c as an entry of the domain named owner. Edges that
// leave owner use the short form "-> to(strength)".
func FormatConnection(owner string, c Connection) string {
	args := FormatNumber(c.Strength)
	if c.EvolutionRate != nil {
		args += ", " + FormatNumber(*c.EvolutionRate)
	}
	if c.From == owner {
		return fmt.Sprintf("-> %s(%s)", FormatName(c.To), args)
	}
	return fmt.Sprintf("%s -> %s(%s)", FormatName(c.From), FormatName(c.To), args)
}

// Format prints p as a canonical brace-dialect document. Parsing the output
// yields a personality equal to p.
func Format(p *Personality) string {
	var b strings.Builder
	fmt.Fprintf(&b, "personality %s {\n", Quote(p.Name))

	if len(p.Traits) > 0 {
		entries := make([]string, len(p.Traits))
		for i, t := range p.Traits {
			line := fmt.Sprintf("%s: %s", FormatName(t.Name), FormatNumber(t.Strength))
			if len(t.Modifiers) > 0 {
				mods := make([]string, len(t.Modifiers))
				for j, m := range t.Modifiers {
					mods[j] = FormatModifier(m)
				}
				line += " with " + strings.Join(mods, ", ")
			}
			entries[i] = line
		}
		writeSection(&b, "traits", entries, "    ")
	}

	if len(p.Knowledge) > 0 {
		b.WriteString("  knowledge {\n")
		for _, d := range p.Knowledge {
			var entries []string
			for _, t := range d.Topics {
				entries = append(entries, fmt.Sprintf("%s: %s", FormatName(t.Name), t.Level))
			}
			for _, c := range d.Connections {
				entries = append(entries, FormatConnection(d.Name, c))
			}
			fmt.Fprintf(&b, "    domain(%s) {", FormatName(d.Name))
			if len(entries) == 0 {
				b.WriteString("}\n")
				continue
			}
			b.WriteString("\n")
			b.WriteString("      " + strings.Join(entries, ";\n      "))
			b.WriteString("\n    }\n")
		}
		b.WriteString("  }\n")
	}

	if len(p.Behaviors) > 0 {
		entries := make([]string, len(p.Behaviors))
		for i, r := range p.Behaviors {
			entries[i] = FormatBehavior(r)
		}
		writeSection(&b, "behaviors", entries, "    ")
	}

	if len(p.Evolution) > 0 {
		entries := make([]string, len(p.Evolution))
		for i, r := range p.Evolution {
			entries[i] = FormatEvolutionRule(r)
		}
		writeSection(&b, "evolution", entries, "    ")
	}

	b.WriteString("}\n")
	return b.String()
}

func writeSection(b *strings.Builder, name string, entries []string, indent string) {
	fmt.Fprintf(b, "  %s {\n", name)
	b.WriteString(indent + strings.Join(entries, ";\n"+indent))
	b.WriteString("\n  }\n")
}
