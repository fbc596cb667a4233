package compiler

import (
	"fmt"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// DefaultContext closes a prompt compiled without a context hint.
const DefaultContext = "Adapt your responses to the conversation while staying consistent with this personality."

// EmitPrompt renders p as a system prompt. Sections are separated by a blank
// line; empty lists produce no section.
func EmitPrompt(p *types.Personality, contextHint string) (string, error) {
	sections := []string{
		fmt.Sprintf("You are %s. Embody the following personality in every response.", p.Name),
	}

	if len(p.Traits) > 0 {
		lines := []string{"## Personality Traits"}
		for _, t := range p.Traits {
			line := fmt.Sprintf("- %s: %s (%s)", t.Name, StrengthTier(t.Strength), types.FormatNumber(t.Strength))
			for _, m := range t.Modifiers {
				line += " (" + modifierClause(m) + ")"
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(p.Knowledge) > 0 {
		lines := []string{"## Knowledge Areas"}
		for _, d := range p.Knowledge {
			topics := make([]string, len(d.Topics))
			for i, t := range d.Topics {
				topics[i] = fmt.Sprintf("%s (%s)", t.Name, t.Level)
			}
			line := "- " + d.Name + ": "
			if len(topics) == 0 {
				line += "general familiarity"
			} else {
				line += strings.Join(topics, ", ")
			}
			for _, c := range d.Connections {
				other := c.To
				if other == d.Name {
					other = c.From
				}
				line += fmt.Sprintf(" [connects to %s (strength %s)]", other, types.FormatNumber(c.Strength))
			}
			lines = append(lines, line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(p.Behaviors) > 0 {
		lines := []string{"## Behavioral Guidelines"}
		for _, r := range p.Behaviors {
			lines = append(lines, "- "+behaviorPhrase(r))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(p.Evolution) > 0 {
		lines := []string{"## Evolution Awareness"}
		for _, r := range p.Evolution {
			lines = append(lines, fmt.Sprintf("- %s, %s.", triggerPhrase(r.Trigger), effectPhrase(r.Effect)))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	hint := strings.TrimSpace(contextHint)
	if hint == "" {
		hint = DefaultContext
	}
	sections = append(sections, "## Context\n"+hint)

	return strings.Join(sections, "\n\n") + "\n", nil
}

// StrengthTier names the band a trait strength falls in.
func StrengthTier(s float64) string {
	switch {
	case s >= 0.8:
		return "Very high"
	case s >= 0.6:
		return "High"
	case s >= 0.4:
		return "Moderate"
	default:
		return "Low"
	}
}

func modifierClause(m types.Modifier) string {
	switch x := m.(type) {
	case types.When:
		return "enhanced when " + contextPhrase(x.Context)
	case types.Unless:
		return "suppressed unless " + contextPhrase(x.Context)
	case types.Amplifies:
		return fmt.Sprintf("amplifies %s by %sx", x.Target, types.FormatNumber(x.Factor))
	case types.Decay:
		return fmt.Sprintf("naturally decays %s per %s", types.FormatNumber(x.Rate), x.Unit)
	case types.TransformsTo:
		return "can evolve into " + x.Target
	default:
		panic(fmt.Sprintf("compiler: unhandled modifier %T", m))
	}
}

func contextPhrase(c types.Context) string {
	switch x := c.(type) {
	case types.Topic:
		return string(x)
	case types.Situation:
		return "in a " + string(x) + " situation"
	case types.TimeOfDay:
		return "it is " + string(x)
	case types.EmotionalState:
		return "feeling " + string(x)
	default:
		panic(fmt.Sprintf("compiler: unhandled context %T", c))
	}
}

func behaviorPhrase(r types.BehaviorRule) string {
	return conditionPhrase(r.Condition) + ", " + actionPhrase(r.Action) + "."
}

func conditionPhrase(c types.Condition) string {
	switch x := c.(type) {
	case types.Tired:
		return "When you are tired"
	case types.Motivated:
		return "When you are motivated"
	case types.ContextMatch:
		return fmt.Sprintf("When the context involves %q", x.Value)
	case types.TraitAbove:
		return fmt.Sprintf("When your %s is above %s", x.Trait, types.FormatNumber(x.Threshold))
	case types.TimeRange:
		return fmt.Sprintf("Between %s and %s", x.Start, x.End)
	default:
		panic(fmt.Sprintf("compiler: unhandled condition %T", c))
	}
}

func actionPhrase(a types.Action) string {
	switch x := a.(type) {
	case types.Prefer:
		return "prefer " + x.Value
	case types.Seek:
		return "seek " + x.Value
	case types.Avoid:
		return "avoid " + x.Value
	case types.SetStyle:
		return fmt.Sprintf("set your %s to %s", x.Key, x.Value)
	default:
		panic(fmt.Sprintf("compiler: unhandled action %T", a))
	}
}

func triggerPhrase(t types.Trigger) string {
	switch x := t.(type) {
	case types.Learns:
		return "After learning about " + x.Topic
	case types.TimeInDomain:
		return fmt.Sprintf("After %s in %s", plural(x.Count, x.Unit.String()), x.Domain)
	case types.InteractionCount:
		return "After " + plural(x.Count, "interaction")
	case types.FeedbackScore:
		return "When feedback reaches " + types.FormatNumber(x.Score)
	default:
		panic(fmt.Sprintf("compiler: unhandled trigger %T", t))
	}
}

func effectPhrase(e types.Effect) string {
	switch x := e.(type) {
	case types.TraitAdjust:
		if x.Delta < 0 {
			return fmt.Sprintf("your %s will decrease by %s", x.Trait, types.FormatNumber(-x.Delta))
		}
		return fmt.Sprintf("your %s will increase by %s", x.Trait, types.FormatNumber(x.Delta))
	case types.UnlockDomain:
		return fmt.Sprintf("you will unlock knowledge of %s", x.Domain)
	case types.AddConnection:
		return fmt.Sprintf("you will connect %s to %s (strength %s)", x.From, x.To, types.FormatNumber(x.Strength))
	case types.NewBehavior:
		phrase := behaviorPhrase(x.Rule)
		return "you will adopt a new behavior: " + strings.ToLower(phrase[:1]) + strings.TrimSuffix(phrase[1:], ".")
	default:
		panic(fmt.Sprintf("compiler: unhandled effect %T", e))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
