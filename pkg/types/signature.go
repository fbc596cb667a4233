package types

import (
	"fmt"
	"strconv"
)

// Signature renders an AST variant in a compact constructor form such as
// Learns(x) or TraitAdjust(patience, 0.1). Diagnostics use it as payload text;
// two values with the same signature are structurally equal.
func Signature(v any) string {
	switch x := v.(type) {
	case Decay:
		return fmt.Sprintf("Decay(%s, %s)", FormatNumber(x.Rate), x.Unit)
	case When:
		return fmt.Sprintf("When(%s)", Signature(x.Context))
	case Unless:
		return fmt.Sprintf("Unless(%s)", Signature(x.Context))
	case Amplifies:
		return fmt.Sprintf("Amplifies(%s, %s)", x.Target, FormatNumber(x.Factor))
	case TransformsTo:
		return fmt.Sprintf("TransformsTo(%s, %s, %d)", x.Target, FormatNumber(x.Factor), x.Count)

	case Topic:
		return fmt.Sprintf("Topic(%s)", string(x))
	case Situation:
		return fmt.Sprintf("Situation(%s)", string(x))
	case TimeOfDay:
		return fmt.Sprintf("TimeOfDay(%s)", string(x))
	case EmotionalState:
		return fmt.Sprintf("EmotionalState(%s)", string(x))

	case Tired:
		return "Tired"
	case Motivated:
		return "Motivated"
	case ContextMatch:
		return fmt.Sprintf("ContextMatch(%s)", x.Value)
	case TraitAbove:
		return fmt.Sprintf("TraitAbove(%s, %s)", x.Trait, FormatNumber(x.Threshold))
	case TimeRange:
		return fmt.Sprintf("TimeRange(%s, %s)", x.Start, x.End)

	case Prefer:
		return fmt.Sprintf("Prefer(%s)", x.Value)
	case Seek:
		return fmt.Sprintf("Seek(%s)", x.Value)
	case Avoid:
		return fmt.Sprintf("Avoid(%s)", x.Value)
	case SetStyle:
		return fmt.Sprintf("SetStyle(%s, %s)", x.Key, x.Value)

	case Learns:
		return fmt.Sprintf("Learns(%s)", x.Topic)
	case TimeInDomain:
		return fmt.Sprintf("TimeInDomain(%s, %s, %d)", x.Domain, x.Unit, x.Count)
	case InteractionCount:
		return fmt.Sprintf("InteractionCount(%d)", x.Count)
	case FeedbackScore:
		return fmt.Sprintf("FeedbackScore(%s)", FormatNumber(x.Score))

	case TraitAdjust:
		return fmt.Sprintf("TraitAdjust(%s, %s)", x.Trait, FormatNumber(x.Delta))
	case UnlockDomain:
		return fmt.Sprintf("UnlockDomain(%s)", x.Domain)
	case AddConnection:
		return fmt.Sprintf("AddConnection(%s, %s, %s)", x.From, x.To, FormatNumber(x.Strength))
	case NewBehavior:
		return fmt.Sprintf("NewBehavior(%s -> %s)", Signature(x.Rule.Condition), Signature(x.Rule.Action))

	case BehaviorRule:
		return fmt.Sprintf("%s -> %s", Signature(x.Condition), Signature(x.Action))
	case EvolutionRule:
		return fmt.Sprintf("%s => %s", Signature(x.Trigger), Signature(x.Effect))
	default:
		return fmt.Sprintf("%T", v)
	}
}

// FormatNumber prints f without exponent so the result is a valid DSL literal
// (optionally preceded by a minus sign).
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
