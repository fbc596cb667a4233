package parser

import (
	"fmt"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Fragment parsers read the single-entry forms produced by the types.Format*
// printers. Structured targets store modifiers, rules and connections as
// these strings.

// ParseModifier parses a trait modifier such as "decay(0.1/month)".
func ParseModifier(text string) (types.Modifier, error) {
	return parseFragment(text, "modifier", (*Parser).parseModifier)
}

// ParseBehavior parses a behavior rule such as `when tired -> prefer "x"`.
func ParseBehavior(text string) (types.BehaviorRule, error) {
	return parseFragment(text, "behavior", (*Parser).parseBehavior)
}

// ParseEvolutionRule parses an evolution rule such as `if learns("x") then a += 0.1`.
func ParseEvolutionRule(text string) (types.EvolutionRule, error) {
	return parseFragment(text, "evolution rule", (*Parser).parseEvolutionRule)
}

// ParseCondition parses a behavior condition such as "curiosity > 0.5".
func ParseCondition(text string) (types.Condition, error) {
	return parseFragment(text, "condition", (*Parser).parseCondition)
}

// ParseAction parses a behavior action such as `seek "novelty"`.
func ParseAction(text string) (types.Action, error) {
	return parseFragment(text, "action", (*Parser).parseAction)
}

// ParseTrigger parses an evolution trigger such as "interactions(100)".
func ParseTrigger(text string) (types.Trigger, error) {
	return parseFragment(text, "trigger", (*Parser).parseTrigger)
}

// ParseEffect parses an evolution effect such as "unlock(physics)".
func ParseEffect(text string) (types.Effect, error) {
	return parseFragment(text, "effect", (*Parser).parseEffect)
}

// ParseConnection parses a connection entry of the domain named owner, in
// either "-> to(s)" or "from -> to(s, rate)" form. A "<->" entry yields two
// connections.
func ParseConnection(owner, text string) ([]types.Connection, error) {
	entry, err := parseFragment(text, "connection", func(p *Parser) (domainEntry, error) {
		return p.parseDomainEntry(owner)
	})
	if err != nil {
		return nil, err
	}
	if entry.topic != nil {
		return nil, types.NewParseError(types.ErrSyntaxError,
			fmt.Sprintf("expected connection but got topic %q", entry.topic.Name),
			NewSource("", text).Span(0, len(text)))
	}
	return entry.connections, nil
}

func parseFragment[T any](text, what string, parse func(*Parser) (T, error)) (T, error) {
	var zero T
	p := NewParser(text)
	tokens, err := Tokenize(text, "")
	if err != nil {
		return zero, err
	}
	p.tokens = tokens

	v, err := parse(p)
	if err != nil {
		return zero, err
	}
	if !p.check(TokenEOF) {
		return zero, p.error(types.ErrTrailingTokens,
			fmt.Sprintf("unexpected %s after %s", describe(p.current()), what))
	}
	return v, nil
}
