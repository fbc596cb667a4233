package parser

import (
	"fmt"
	"log/slog"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Parser implements a recursive descent parser for personality documents.
// It works over the complete token slice so that recovery can rescan
// from the start of a failed entry.
type Parser struct {
	input   string
	src     *Source
	tokens  []Token
	pos     int
	depth   int
	notices []*types.ParseError
	opts    CompileOptions
	logger  *slog.Logger
}

// NewParser creates a new parser for the given input string.
func NewParser(input string, opts ...CompileOption) *Parser {
	options := CompileOptions{
		MaxDepth: 100,
	}
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Parser{
		input:  input,
		src:    NewSource(options.Filename, input),
		opts:   options,
		logger: logger.With("component", "parser"),
	}
}

// Parse parses the entire document and returns the personality.
func (p *Parser) Parse() (*types.Personality, error) {
	tokens, err := Tokenize(p.input, p.opts.Filename)
	if err != nil {
		return nil, types.ParseErrors{err.(*types.ParseError)}
	}
	p.tokens = tokens
	p.pos = 0
	p.notices = nil

	personality, err := p.parsePersonality()
	if err != nil {
		list := types.ParseErrors{}
		if p.opts.Strict {
			list = append(list, p.notices...)
		}
		return nil, append(list, err.(*types.ParseError))
	}
	if p.opts.Strict && len(p.notices) > 0 {
		return nil, types.ParseErrors(p.notices)
	}
	return personality, nil
}

// Notices returns the entries skipped by error recovery during the last Parse.
func (p *Parser) Notices() []*types.ParseError {
	return p.notices
}

// Token navigation

func (p *Parser) current() Token {
	return p.peek(0)
}

// peek returns the token n positions ahead. Past the end it returns the
// final EOF token.
func (p *Parser) peek(n int) Token {
	i := p.pos + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) advance() Token {
	t := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt TokenType) bool {
	return p.current().Type == tt
}

// expect checks if the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) (Token, error) {
	if !p.check(tt) {
		code := types.ErrExpectedToken
		if p.check(TokenEOF) {
			code = types.ErrUnexpectedEnd
		}
		return Token{}, p.error(code, fmt.Sprintf("Expected %s but got %s", tt, describe(p.current())))
	}
	return p.advance(), nil
}

// error creates a syntax error located at the current token.
func (p *Parser) error(code types.ErrorCode, message string) error {
	return p.errorAt(p.current(), code, message)
}

func (p *Parser) errorAt(t Token, code types.ErrorCode, message string) error {
	return types.NewParseError(code, message, p.src.TokenLocation(t)).WithToken(t.Value)
}

// describe renders a token for error messages.
func describe(t Token) string {
	switch t.Type {
	case TokenString:
		return fmt.Sprintf("string %q", t.Value)
	case TokenNumber:
		return "number " + t.Value
	case TokenIdent:
		return "name " + t.Value
	default:
		return t.Type.String()
	}
}

// Recovery

// parseList parses '{' entry (';' entry)* ';'? '}'. A malformed entry is
// skipped up to the next ';' at its own nesting depth. When the block ends
// before such a separator is found the entry error is returned.
//
// With optionalSep set, entries may follow each other without a separator;
// knowledge domains are written that way.
func parseList[T any](p *Parser, what string, optionalSep bool, entry func() (T, error)) ([]T, error) {
	if _, err := p.expect(TokenBraceOpen); err != nil {
		return nil, err
	}

	var items []T
	for !p.check(TokenBraceClose) {
		if p.check(TokenEOF) {
			return nil, p.error(types.ErrUnexpectedEnd, fmt.Sprintf("unexpected end of input in %s", what))
		}

		start := p.pos
		item, err := entry()
		if err == nil {
			switch {
			case p.check(TokenSemicolon):
				p.advance()
			case p.check(TokenBraceClose), optionalSep:
			default:
				err = p.error(types.ErrExpectedToken,
					fmt.Sprintf("Expected ; or } after %s entry but got %s", what, describe(p.current())))
			}
		}
		if err != nil {
			if !p.recover(start) {
				return nil, err
			}
			p.skipped(what, err)
			continue
		}
		items = append(items, item)
	}
	p.advance()
	return items, nil
}

// recover moves past the next ';' at depth zero counted from the token at
// start. It reports false when the enclosing block closes first.
func (p *Parser) recover(start int) bool {
	depth := 0
	for i := start; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case TokenBraceOpen, TokenParenOpen:
			depth++
		case TokenParenClose:
			if depth > 0 {
				depth--
			}
		case TokenBraceClose:
			if depth == 0 {
				return false
			}
			depth--
		case TokenSemicolon:
			if depth == 0 {
				p.pos = i + 1
				return true
			}
		case TokenEOF:
			return false
		}
	}
	return false
}

func (p *Parser) skipped(what string, err error) {
	cause := err.(*types.ParseError)
	notice := &types.ParseError{
		Code:     types.ErrSkippedEntry,
		Kind:     types.KindSyntax,
		Message:  fmt.Sprintf("skipped malformed %s entry: %s", what, cause.Message),
		Location: cause.Location,
		Token:    cause.Token,
		Err:      cause,
	}
	p.notices = append(p.notices, notice)
	p.logger.Warn("skipping malformed entry",
		"section", what,
		"location", cause.Location.String(),
		"error", cause.Message)
}

// Document structure

type section uint8

const (
	sectionNone section = iota
	sectionTraits
	sectionKnowledge
	sectionBehaviors
	sectionEvolution
)

func sectionOf(tt TokenType) section {
	switch tt {
	case TokenTraits:
		return sectionTraits
	case TokenKnowledge:
		return sectionKnowledge
	case TokenBehaviors:
		return sectionBehaviors
	case TokenEvolution:
		return sectionEvolution
	default:
		return sectionNone
	}
}

// parsePersonality parses: 'personality' name '{' section* '}' EOF
func (p *Parser) parsePersonality() (*types.Personality, error) {
	if p.check(TokenEOF) {
		return nil, p.error(types.ErrEmptyPersonality, "empty document: expected personality declaration")
	}
	if _, err := p.expect(TokenPersonality); err != nil {
		return nil, err
	}

	// An empty name parses; the compiler rejects it.
	name, err := p.parseName("personality")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenBraceOpen); err != nil {
		return nil, err
	}

	result := types.CreatePersonality(name)
	last := sectionNone
	for {
		tok := p.current()
		sec := sectionOf(tok.Type)
		if sec == sectionNone {
			break
		}
		if sec <= last {
			return nil, p.errorAt(tok, types.ErrSectionOrder,
				fmt.Sprintf("section %s is repeated or out of order (expected traits, knowledge, behaviors, evolution)", tok.Type))
		}
		last = sec
		p.advance()

		switch sec {
		case sectionTraits:
			result.Traits, err = parseList(p, "traits", false, p.parseTrait)
		case sectionKnowledge:
			result.Knowledge, err = parseList(p, "knowledge", true, p.parseDomain)
		case sectionBehaviors:
			result.Behaviors, err = parseList(p, "behaviors", false, p.parseBehavior)
		case sectionEvolution:
			result.Evolution, err = parseList(p, "evolution", false, p.parseEvolutionRule)
		}
		if err != nil {
			return nil, err
		}
	}

	if !p.check(TokenBraceClose) {
		if p.check(TokenEOF) {
			return nil, p.error(types.ErrUnexpectedEnd, "Expected } but got (eof)")
		}
		return nil, p.error(types.ErrExpectedToken,
			fmt.Sprintf("Expected section or } but got %s", describe(p.current())))
	}
	p.advance()

	if !p.check(TokenEOF) {
		return nil, p.error(types.ErrTrailingTokens,
			fmt.Sprintf("unexpected %s after personality", describe(p.current())))
	}
	return &result, nil
}

// parseName accepts an identifier, a string, or a keyword used as a name.
func (p *Parser) parseName(what string) (string, error) {
	tok := p.current()
	switch {
	case tok.Type == TokenIdent, tok.Type == TokenString:
		p.advance()
		return tok.Value, nil
	case tok.Type.IsKeyword():
		return p.parseNameFromKeyword(), nil
	default:
		return "", p.error(types.ErrInvalidName, fmt.Sprintf("Expected %s name but got %s", what, describe(tok)))
	}
}

// parseNameFromKeyword treats a structural keyword as a plain name.
func (p *Parser) parseNameFromKeyword() string {
	return p.advance().Type.String()
}

// isName reports whether t can start a name.
func isName(t Token) bool {
	return t.Type == TokenIdent || t.Type == TokenString || t.Type.IsKeyword()
}

// Traits

// parseTrait parses: name ':' expr ('with' modifier (',' modifier)*)?
func (p *Parser) parseTrait() (types.Trait, error) {
	name, err := p.parseName("trait")
	if err != nil {
		return types.Trait{}, err
	}
	if _, err := p.expect(TokenColon); err != nil {
		return types.Trait{}, err
	}
	strength, err := p.parseNumber()
	if err != nil {
		return types.Trait{}, err
	}

	trait := types.Trait{Name: name, Strength: strength}
	if !p.check(TokenWith) {
		return trait, nil
	}
	p.advance()
	for {
		m, err := p.parseModifier()
		if err != nil {
			return types.Trait{}, err
		}
		trait.Modifiers = append(trait.Modifiers, m)
		if !p.check(TokenComma) {
			return trait, nil
		}
		p.advance()
	}
}

func (p *Parser) parseModifier() (types.Modifier, error) {
	tok := p.current()
	switch {
	case tok.Type == TokenWhen:
		p.advance()
		ctx, err := parenthesized(p, p.parseContext)
		if err != nil {
			return nil, err
		}
		return types.When{Context: ctx}, nil
	case tok.Type != TokenIdent:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected modifier but got %s", describe(tok)))
	}

	switch tok.Value {
	case "decay":
		p.advance()
		if _, err := p.expect(TokenParenOpen); err != nil {
			return nil, err
		}
		rate, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenDiv); err != nil {
			return nil, err
		}
		unit, err := p.parseTimeUnit()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.Decay{Rate: rate, Unit: unit}, nil

	case "unless":
		p.advance()
		ctx, err := parenthesized(p, p.parseContext)
		if err != nil {
			return nil, err
		}
		return types.Unless{Context: ctx}, nil

	case "amplifies":
		p.advance()
		if _, err := p.expect(TokenParenOpen); err != nil {
			return nil, err
		}
		target, err := p.parseName("trait")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		factor, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.Amplifies{Target: target, Factor: factor}, nil

	case "transforms_to":
		p.advance()
		if _, err := p.expect(TokenParenOpen); err != nil {
			return nil, err
		}
		target, err := p.parseName("trait")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		factor, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		count, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.TransformsTo{Target: target, Factor: factor, Count: count}, nil
	}

	return nil, p.error(types.ErrUnknownKeyword, fmt.Sprintf("unknown modifier %q", tok.Value))
}

// parseContext parses: STRING | ('topic'|'situation'|'time'|'mood') ':' STRING
func (p *Parser) parseContext() (types.Context, error) {
	tok := p.current()
	if tok.Type == TokenString {
		p.advance()
		return types.Topic(tok.Value), nil
	}
	if tok.Type != TokenIdent || p.peek(1).Type != TokenColon {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected context but got %s", describe(tok)))
	}

	p.advance()
	p.advance()
	value, err := p.expect(TokenString)
	if err != nil {
		return nil, err
	}
	switch tok.Value {
	case "topic":
		return types.Topic(value.Value), nil
	case "situation":
		return types.Situation(value.Value), nil
	case "time":
		return types.TimeOfDay(value.Value), nil
	case "mood", "emotion":
		return types.EmotionalState(value.Value), nil
	}
	return nil, p.errorAt(tok, types.ErrUnknownKeyword, fmt.Sprintf("unknown context kind %q", tok.Value))
}

func (p *Parser) parseTimeUnit() (types.TimeUnit, error) {
	tok := p.current()
	if tok.Type == TokenIdent {
		if unit, ok := types.LookupTimeUnit(tok.Value); ok {
			p.advance()
			return unit, nil
		}
	}
	return 0, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected time unit (day, week, month, year) but got %s", describe(tok)))
}

// parenthesized parses '(' inner ')'.
func parenthesized[T any](p *Parser, inner func() (T, error)) (T, error) {
	var zero T
	if _, err := p.expect(TokenParenOpen); err != nil {
		return zero, err
	}
	v, err := inner()
	if err != nil {
		return zero, err
	}
	if _, err := p.expect(TokenParenClose); err != nil {
		return zero, err
	}
	return v, nil
}

// Knowledge

// domainEntry is one ';'-separated item of a domain body: a topic or one
// or two connections.
type domainEntry struct {
	topic       *types.TopicLevel
	connections []types.Connection
}

// parseDomain parses: 'domain' '(' name ')' '{' entries '}'
func (p *Parser) parseDomain() (types.KnowledgeDomain, error) {
	if _, err := p.expect(TokenDomain); err != nil {
		return types.KnowledgeDomain{}, err
	}
	name, err := parenthesized(p, func() (string, error) { return p.parseName("domain") })
	if err != nil {
		return types.KnowledgeDomain{}, err
	}

	entries, err := parseList(p, "domain "+name, false, func() (domainEntry, error) {
		return p.parseDomainEntry(name)
	})
	if err != nil {
		return types.KnowledgeDomain{}, err
	}

	domain := types.KnowledgeDomain{Name: name}
	for _, e := range entries {
		if e.topic != nil {
			domain.Topics = append(domain.Topics, *e.topic)
		}
		domain.Connections = append(domain.Connections, e.connections...)
	}
	return domain, nil
}

// parseDomainEntry parses one of:
//
//	topic ':' level
//	('->' | '<->') name '(' expr (',' expr)? ')'
//	name ('->' | '<->') name '(' expr (',' expr)? ')'
func (p *Parser) parseDomainEntry(owner string) (domainEntry, error) {
	from := owner
	if !p.check(TokenArrow) && !p.check(TokenBiArrow) {
		nameTok := p.current()
		name, err := p.parseName("topic")
		if err != nil {
			return domainEntry{}, err
		}
		if p.check(TokenColon) {
			p.advance()
			level, err := p.parseKnowledgeLevel()
			if err != nil {
				return domainEntry{}, err
			}
			return domainEntry{topic: &types.TopicLevel{Name: name, Level: level}}, nil
		}
		if !p.check(TokenArrow) && !p.check(TokenBiArrow) {
			return domainEntry{}, p.errorAt(nameTok, types.ErrSyntaxError,
				fmt.Sprintf("Expected : or -> after %q but got %s", name, describe(p.current())))
		}
		from = name
	}

	bidirectional := p.advance().Type == TokenBiArrow
	to, err := p.parseName("domain")
	if err != nil {
		return domainEntry{}, err
	}
	if _, err := p.expect(TokenParenOpen); err != nil {
		return domainEntry{}, err
	}
	strength, err := p.parseNumber()
	if err != nil {
		return domainEntry{}, err
	}
	var rate *float64
	if p.check(TokenComma) {
		p.advance()
		r, err := p.parseNumber()
		if err != nil {
			return domainEntry{}, err
		}
		rate = &r
	}
	if _, err := p.expect(TokenParenClose); err != nil {
		return domainEntry{}, err
	}

	entry := domainEntry{connections: []types.Connection{
		{From: from, To: to, Strength: strength, EvolutionRate: rate},
	}}
	if bidirectional {
		entry.connections = append(entry.connections, types.Connection{
			From: to, To: from, Strength: strength, EvolutionRate: copyRate(rate),
		})
	}
	return entry, nil
}

func copyRate(r *float64) *float64 {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

func (p *Parser) parseKnowledgeLevel() (types.KnowledgeLevel, error) {
	tok := p.current()
	if tok.Type == TokenIdent || tok.Type == TokenString {
		if level, ok := types.LookupKnowledgeLevel(tok.Value); ok {
			p.advance()
			return level, nil
		}
	}
	return 0, p.error(types.ErrSyntaxError,
		fmt.Sprintf("Expected knowledge level (beginner, intermediate, advanced, expert) but got %s", describe(tok)))
}

// Behaviors

// parseBehavior parses: 'when' condition '->' action
func (p *Parser) parseBehavior() (types.BehaviorRule, error) {
	if _, err := p.expect(TokenWhen); err != nil {
		return types.BehaviorRule{}, err
	}
	cond, err := p.parseCondition()
	if err != nil {
		return types.BehaviorRule{}, err
	}
	if _, err := p.expect(TokenArrow); err != nil {
		return types.BehaviorRule{}, err
	}
	action, err := p.parseAction()
	if err != nil {
		return types.BehaviorRule{}, err
	}
	return types.BehaviorRule{Condition: cond, Action: action}, nil
}

func (p *Parser) parseCondition() (types.Condition, error) {
	tok := p.current()

	// name '>' expr is checked before keyword lookup so that a trait called
	// "tired" can still be compared.
	if isName(tok) && p.peek(1).Type == TokenGreater {
		name, err := p.parseName("trait")
		if err != nil {
			return nil, err
		}
		p.advance()
		threshold, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return types.TraitAbove{Trait: name, Threshold: threshold}, nil
	}

	switch tok.Type {
	case TokenString:
		p.advance()
		return types.ContextMatch{Value: tok.Value}, nil
	case TokenIdent:
	default:
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected condition but got %s", describe(tok)))
	}

	call := p.peek(1).Type == TokenParenOpen
	switch {
	case tok.Value == "tired" || tok.Value == "motivated":
		p.advance()
		if call {
			p.advance()
			if _, err := p.expect(TokenParenClose); err != nil {
				return nil, err
			}
		}
		if tok.Value == "tired" {
			return types.Tired{}, nil
		}
		return types.Motivated{}, nil

	case tok.Value == "context" && call:
		p.advance()
		value, err := parenthesized(p, p.parseString)
		if err != nil {
			return nil, err
		}
		return types.ContextMatch{Value: value}, nil

	case tok.Value == "time" && call:
		p.advance()
		p.advance()
		start, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		end, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.TimeRange{Start: start, End: end}, nil

	case call:
		// Unknown function-style condition: match on the function name.
		p.advance()
		p.advance()
		if p.check(TokenString) {
			p.advance()
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		p.logger.Debug("unknown condition treated as context match",
			"condition", tok.Value,
			"location", p.src.TokenLocation(tok).String())
		return types.ContextMatch{Value: tok.Value}, nil
	}

	p.advance()
	return types.ContextMatch{Value: tok.Value}, nil
}

func (p *Parser) parseString() (string, error) {
	tok, err := p.expect(TokenString)
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// parseAction parses: ('prefer'|'seek'|'avoid') STRING | 'style' '(' name ',' STRING ')'
func (p *Parser) parseAction() (types.Action, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected action but got %s", describe(tok)))
	}

	switch tok.Value {
	case "prefer", "seek", "avoid":
		p.advance()
		var value string
		var err error
		if p.check(TokenParenOpen) {
			value, err = parenthesized(p, p.parseString)
		} else {
			value, err = p.parseString()
		}
		if err != nil {
			return nil, err
		}
		switch tok.Value {
		case "prefer":
			return types.Prefer{Value: value}, nil
		case "seek":
			return types.Seek{Value: value}, nil
		default:
			return types.Avoid{Value: value}, nil
		}

	case "style", "set_style":
		p.advance()
		if _, err := p.expect(TokenParenOpen); err != nil {
			return nil, err
		}
		key, err := p.parseName("style")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		value, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.SetStyle{Key: key, Value: value}, nil
	}

	return nil, p.error(types.ErrUnknownKeyword, fmt.Sprintf("unknown action %q", tok.Value))
}

// Evolution

// parseEvolutionRule parses: 'if' trigger 'then' effect
func (p *Parser) parseEvolutionRule() (types.EvolutionRule, error) {
	if _, err := p.expect(TokenIf); err != nil {
		return types.EvolutionRule{}, err
	}
	trigger, err := p.parseTrigger()
	if err != nil {
		return types.EvolutionRule{}, err
	}
	if _, err := p.expect(TokenThen); err != nil {
		return types.EvolutionRule{}, err
	}
	effect, err := p.parseEffect()
	if err != nil {
		return types.EvolutionRule{}, err
	}
	return types.EvolutionRule{Trigger: trigger, Effect: effect}, nil
}

func (p *Parser) parseTrigger() (types.Trigger, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected trigger but got %s", describe(tok)))
	}

	switch tok.Value {
	case "learns":
		p.advance()
		topic, err := parenthesized(p, func() (string, error) { return p.parseName("topic") })
		if err != nil {
			return nil, err
		}
		return types.Learns{Topic: topic}, nil

	case "time_in":
		p.advance()
		if _, err := p.expect(TokenParenOpen); err != nil {
			return nil, err
		}
		domain, err := p.parseName("domain")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		count, err := p.parseCount()
		if err != nil {
			return nil, err
		}
		unit, err := p.parseTimeUnit()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.TimeInDomain{Domain: domain, Unit: unit, Count: count}, nil

	case "interactions":
		p.advance()
		var count int
		var err error
		if p.check(TokenGreater) {
			p.advance()
			count, err = p.parseCount()
		} else {
			count, err = parenthesized(p, p.parseCount)
		}
		if err != nil {
			return nil, err
		}
		return types.InteractionCount{Count: count}, nil

	case "feedback":
		p.advance()
		var score float64
		var err error
		if p.check(TokenGreater) {
			p.advance()
			score, err = p.parseNumber()
		} else {
			score, err = parenthesized(p, p.parseNumber)
		}
		if err != nil {
			return nil, err
		}
		return types.FeedbackScore{Score: score}, nil
	}

	if p.peek(1).Type == TokenParenOpen {
		// Unknown function-style trigger: keep its numeric argument as a
		// feedback score.
		p.advance()
		score, err := parenthesized(p, p.parseNumber)
		if err != nil {
			return nil, err
		}
		p.logger.Warn("unknown trigger treated as feedback score",
			"trigger", tok.Value,
			"location", p.src.TokenLocation(tok).String())
		return types.FeedbackScore{Score: score}, nil
	}

	return nil, p.error(types.ErrUnknownKeyword, fmt.Sprintf("unknown trigger %q", tok.Value))
}

func (p *Parser) parseEffect() (types.Effect, error) {
	tok := p.current()

	// name '+=' expr, name '-=' expr and name '->' name '(' expr ')' come
	// before keyword lookup, like trait comparisons in conditions.
	if isName(tok) {
		switch p.peek(1).Type {
		case TokenPlusAssign, TokenMinusAssign:
			trait, err := p.parseName("trait")
			if err != nil {
				return nil, err
			}
			negate := p.advance().Type == TokenMinusAssign
			delta, err := p.parseNumber()
			if err != nil {
				return nil, err
			}
			if negate {
				delta = -delta
			}
			return types.TraitAdjust{Trait: trait, Delta: delta}, nil

		case TokenArrow:
			from, err := p.parseName("domain")
			if err != nil {
				return nil, err
			}
			p.advance()
			to, err := p.parseName("domain")
			if err != nil {
				return nil, err
			}
			strength, err := parenthesized(p, p.parseNumber)
			if err != nil {
				return nil, err
			}
			return types.AddConnection{From: from, To: to, Strength: strength}, nil
		}
	}

	if tok.Type != TokenIdent {
		return nil, p.error(types.ErrSyntaxError, fmt.Sprintf("Expected effect but got %s", describe(tok)))
	}

	switch tok.Value {
	case "unlock":
		p.advance()
		domain, err := parenthesized(p, func() (string, error) { return p.parseName("domain") })
		if err != nil {
			return nil, err
		}
		return types.UnlockDomain{Domain: domain}, nil

	case "connect":
		p.advance()
		if _, err := p.expect(TokenParenOpen); err != nil {
			return nil, err
		}
		from, err := p.parseName("domain")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		to, err := p.parseName("domain")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenComma); err != nil {
			return nil, err
		}
		strength, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return types.AddConnection{From: from, To: to, Strength: strength}, nil

	case "new_behavior":
		p.advance()
		if err := p.enter(); err != nil {
			return nil, err
		}
		defer p.leave()
		if _, err := p.expect(TokenBraceOpen); err != nil {
			return nil, err
		}
		rule, err := p.parseBehavior()
		if err != nil {
			return nil, err
		}
		if p.check(TokenSemicolon) {
			p.advance()
		}
		if _, err := p.expect(TokenBraceClose); err != nil {
			return nil, err
		}
		return types.NewBehavior{Rule: rule}, nil
	}

	return nil, p.error(types.ErrUnknownKeyword, fmt.Sprintf("unknown effect %q", tok.Value))
}

// enter increments the nesting depth, failing past MaxDepth.
func (p *Parser) enter() error {
	p.depth++
	if p.opts.MaxDepth > 0 && p.depth > p.opts.MaxDepth {
		p.depth--
		return p.error(types.ErrTooDeep, fmt.Sprintf("nesting exceeds maximum depth %d", p.opts.MaxDepth))
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}
