package compiler

import (
	"fmt"
	"strings"

	"github.com/callosum-dsl/callosum/pkg/types"
)

// EmitLua renders p as a Lua 5.1 module that returns a table:
//
//	personality.traits    trait name -> strength
//	personality.knowledge domain name -> { topic -> level }
func EmitLua(p *types.Personality, _ string) (string, error) {
	var b strings.Builder
	b.WriteString("local personality = {}\n\n")
	fmt.Fprintf(&b, "personality.name = %s\n\n", luaString(p.Name))

	b.WriteString("personality.traits = {\n")
	for _, t := range p.Traits {
		fmt.Fprintf(&b, "  [%s] = %s,\n", luaString(t.Name), types.FormatNumber(t.Strength))
	}
	b.WriteString("}\n\n")

	b.WriteString("personality.knowledge = {\n")
	for _, d := range p.Knowledge {
		fmt.Fprintf(&b, "  [%s] = {\n", luaString(d.Name))
		for _, t := range d.Topics {
			fmt.Fprintf(&b, "    [%s] = %s,\n", luaString(t.Name), luaString(t.Level.String()))
		}
		b.WriteString("  },\n")
	}
	b.WriteString("}\n\n")

	b.WriteString("return personality\n")
	return b.String(), nil
}

// luaString quotes s as a Lua 5.1 string literal. Control bytes use the
// three-digit decimal escape so a following digit cannot extend it.
func luaString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&b, `\%03d`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
