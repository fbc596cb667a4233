package parser

import (
	"fmt"
	"math"
	"strconv"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// Binding powers of the arithmetic operators.
const (
	precAdditive       = 10
	precMultiplicative = 20
	precUnary          = 30
)

func (p *Parser) getPrecedence(tt TokenType) int {
	switch tt {
	case TokenPlus, TokenMinus:
		return precAdditive
	case TokenMult, TokenDiv:
		return precMultiplicative
	default:
		return 0
	}
}

// parseNumber parses an arithmetic expression and folds it to a constant.
// Results that overflow to an infinity are rejected.
func (p *Parser) parseNumber() (float64, error) {
	tok := p.current()
	v, err := p.parseExpression(0)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, p.errorAt(tok, types.ErrNumberOutOfRange, "number out of range")
	}
	return v, nil
}

// parseCount parses an expression that must fold to a whole number.
func (p *Parser) parseCount() (int, error) {
	tok := p.current()
	v, err := p.parseNumber()
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, p.errorAt(tok, types.ErrNotAnInteger, fmt.Sprintf("expected a whole number but got %s", types.FormatNumber(v)))
	}
	// float64(math.MaxInt) rounds up to 2^63 on 64-bit platforms.
	if v >= float64(math.MaxInt) || v < float64(math.MinInt) {
		return 0, p.errorAt(tok, types.ErrNumberOutOfRange, fmt.Sprintf("count %s out of range", types.FormatNumber(v)))
	}
	return int(v), nil
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (float64, error) {
	if err := p.enter(); err != nil {
		return 0, err
	}
	defer p.leave()

	left, err := p.parsePrefix()
	if err != nil {
		return 0, err
	}

	for rbp < p.getPrecedence(p.current().Type) {
		op := p.current()
		// "0.1/month" inside decay: the slash belongs to the modifier.
		if op.Type == TokenDiv && p.isTimeUnit(p.peek(1)) {
			break
		}
		p.advance()

		right, err := p.parseExpression(p.getPrecedence(op.Type))
		if err != nil {
			return 0, err
		}

		switch op.Type {
		case TokenPlus:
			left += right
		case TokenMinus:
			left -= right
		case TokenMult:
			left *= right
		case TokenDiv:
			if right == 0 {
				return 0, p.errorAt(op, types.ErrDivisionByZero, "division by zero")
			}
			left /= right
		}
	}
	return left, nil
}

func (p *Parser) parsePrefix() (float64, error) {
	tok := p.current()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return 0, p.errorAt(tok, types.ErrMalformedNumber, fmt.Sprintf("invalid number %s", tok.Value))
		}
		return v, nil

	case TokenMinus:
		p.advance()
		v, err := p.parseExpression(precUnary)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case TokenParenOpen:
		p.advance()
		v, err := p.parseExpression(0)
		if err != nil {
			return 0, err
		}
		if _, err := p.expect(TokenParenClose); err != nil {
			return 0, err
		}
		return v, nil
	}

	code := types.ErrSyntaxError
	if tok.Type == TokenEOF {
		code = types.ErrUnexpectedEnd
	}
	return 0, p.error(code, fmt.Sprintf("Expected number but got %s", describe(tok)))
}

func (p *Parser) isTimeUnit(t Token) bool {
	if t.Type != TokenIdent {
		return false
	}
	_, ok := types.LookupTimeUnit(t.Value)
	return ok
}
