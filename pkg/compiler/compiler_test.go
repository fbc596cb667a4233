package compiler_test

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	lua "github.com/yuin/gopher-lua"
	_ "modernc.org/sqlite"

	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/semantic"
	"github.com/callosum-dsl/callosum/pkg/types"
)

const document = `
personality "Ada" {
  traits {
    curiosity: 0.8 with decay(0.1/month), when("research");
    patience: 0.6 with amplifies(curiosity, 1.1), unless(mood:"rushed")
  }
  knowledge {
    domain(math) { algebra: expert; calculus: advanced; -> physics(0.7, 0.05) }
    domain(physics) { mechanics: intermediate }
  }
  behaviors {
    when tired -> prefer "short answers";
    when curiosity > 0.7 -> seek "depth"
  }
  evolution {
    if learns("topology") then curiosity += 0.1;
    if time_in(math, 3 months) then unlock(physics)
  }
}
`

func mustParse(t *testing.T, src string) *types.Personality {
	t.Helper()
	p, err := parser.Parse(src)
	require.NoError(t, err)
	return p
}

func newCompiler(opts ...compiler.CompileOption) *compiler.Compiler {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return compiler.New(append([]compiler.CompileOption{compiler.WithLogger(logger)}, opts...)...)
}

func compileErrors(t *testing.T, err error) types.CompileErrors {
	t.Helper()
	var errs types.CompileErrors
	require.True(t, errors.As(err, &errs), "expected CompileErrors, got %T: %v", err, err)
	return errs
}

// Validation

func TestInvalidStrengthProducesNoOutput(t *testing.T) {
	p := mustParse(t, `personality "X" { traits { bad: 1.5 } }`)

	out, err := compiler.Compile(p, compiler.TargetJSON, "")
	assert.Empty(t, out)
	errs := compileErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, types.CompileInvalidTraitStrength, errs[0].Kind)
	assert.Equal(t, "bad", errs[0].Name)
	assert.Equal(t, 1.5, errs[0].Value)
}

func TestStrengthBoundaries(t *testing.T) {
	tests := []struct {
		strength float64
		valid    bool
	}{
		{0, true},
		{1, true},
		{1.0000001, false},
		{-0.0000001, false},
	}
	for _, tt := range tests {
		p := types.AddTrait(types.CreatePersonality("X"), types.Trait{Name: "a", Strength: tt.strength})
		_, errs := compiler.Validate(&p)
		if tt.valid {
			assert.Empty(t, errs, "strength %v", tt.strength)
		} else {
			require.Len(t, errs, 1, "strength %v", tt.strength)
			assert.Equal(t, types.CompileInvalidTraitStrength, errs[0].Kind)
		}
	}
}

func TestValidationErrorsAccumulate(t *testing.T) {
	p := types.CreatePersonality("")
	p = types.AddTrait(p, types.Trait{Name: "a", Strength: 2})
	p = types.AddKnowledgeDomain(p, types.KnowledgeDomain{Name: "d"})
	p = types.AddKnowledgeDomain(p, types.KnowledgeDomain{Name: "d"})
	p = types.AddKnowledgeDomain(p, types.KnowledgeDomain{Name: "d"})

	_, errs := compiler.Validate(&p)
	var got []types.CompileErrorKind
	for _, e := range errs {
		got = append(got, e.Kind)
	}
	assert.Equal(t, []types.CompileErrorKind{
		types.CompileEmptyName,
		types.CompileInvalidTraitStrength,
		types.CompileDuplicateDomain,
	}, got)
}

func TestNilVariantsAreRejected(t *testing.T) {
	p := types.CreatePersonality("X")
	p = types.AddTrait(p, types.Trait{Name: "a", Strength: 0.5, Modifiers: []types.Modifier{nil, types.When{}}})
	p = types.AddBehavior(p, types.BehaviorRule{Condition: types.Tired{}})
	p = types.AddEvolutionRule(p, types.EvolutionRule{Effect: types.UnlockDomain{Domain: "d"}})
	p = types.AddEvolutionRule(p, types.EvolutionRule{
		Trigger: types.Learns{Topic: "x"},
		Effect:  types.NewBehavior{Rule: types.BehaviorRule{Action: types.Seek{Value: "y"}}},
	})
	p = types.AddEvolutionRule(p, types.EvolutionRule{Trigger: types.InteractionCount{Count: 1}})

	for _, target := range compiler.Targets {
		var res *compiler.Result
		var err error
		require.NotPanics(t, func() { res, err = newCompiler().Compile(&p, target, "") }, "target %s", target)
		assert.Nil(t, res)

		var names []string
		for _, e := range compileErrors(t, err) {
			assert.Equal(t, types.CompileIncompleteNode, e.Kind)
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{
			"trait a modifier 0",
			"trait a modifier 1 context",
			"behavior 0 action",
			"evolution 0 trigger",
			"evolution 1 new behavior condition",
			"evolution 2 effect",
		}, names)
	}

	analysis, errs := compiler.Validate(&p)
	assert.Len(t, errs, 6)
	assert.Empty(t, analysis.Errors)
	assert.Equal(t, "IncompleteNode(behavior 0 action): variant is nil", errs[2].Error())
}

func TestSemanticErrorsAreWrapped(t *testing.T) {
	p := mustParse(t, `personality "X" { behaviors {
		when tired -> prefer "concise";
		when motivated -> avoid "concise"
	} }`)

	for _, target := range compiler.Targets {
		res, err := newCompiler().Compile(p, target, "")
		assert.Nil(t, res)
		errs := compileErrors(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, types.CompileSemanticErrors, errs[0].Kind)

		var semErr *semantic.Error
		require.True(t, errors.As(err, &semErr))
		assert.Equal(t, semantic.ContradictoryBehavior, semErr.Kind)
	}
}

func TestWarningsAreReturned(t *testing.T) {
	p := mustParse(t, document)
	res, err := newCompiler().Compile(p, compiler.TargetJSON, "")
	require.NoError(t, err)

	var kinds []semantic.WarningKind
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Contains(t, kinds, semantic.UnusedDomain)
}

func TestParseTarget(t *testing.T) {
	target, err := compiler.ParseTarget(" Lua ")
	require.NoError(t, err)
	assert.Equal(t, compiler.TargetLua, target)

	_, err = compiler.ParseTarget("yaml")
	var ce *types.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, types.CompileUnknownTarget, ce.Kind)
}

func TestUnknownTarget(t *testing.T) {
	p := mustParse(t, document)
	_, err := newCompiler().Compile(p, compiler.Target("yaml"), "")
	errs := compileErrors(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "UnknownTarget(yaml)", errs[0].Error())
}

func TestCustomEmitter(t *testing.T) {
	names := compiler.EmitterFunc(func(p *types.Personality, hint string) (string, error) {
		return strings.Join(append([]string{hint}, traitNames(p)...), ","), nil
	})
	c := newCompiler(compiler.WithEmitter("names", names))

	res, err := c.Compile(mustParse(t, document), "names", "hint")
	require.NoError(t, err)
	assert.Equal(t, "hint,curiosity,patience", res.Output)

	_, err = c.Compile(mustParse(t, `personality "X" { traits { bad: 3 } }`), "names", "")
	assert.Error(t, err, "custom emitters are gated by validation")
}

func TestEmitterErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	c := newCompiler(compiler.WithEmitter(compiler.TargetLua, compiler.EmitterFunc(
		func(*types.Personality, string) (string, error) { return "", boom })))

	_, err := c.Compile(mustParse(t, document), compiler.TargetLua, "")
	assert.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "emit lua: boom")
}

func traitNames(p *types.Personality) []string {
	out := make([]string, len(p.Traits))
	for i, tr := range p.Traits {
		out[i] = tr.Name
	}
	return out
}

// Targets

func TestJSONTarget(t *testing.T) {
	out, err := compiler.Compile(mustParse(t, document), compiler.TargetJSON, "")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))

	tests := []struct {
		path string
		want string
	}{
		{"name", "Ada"},
		{"traits.#", "2"},
		{"traits.0.name", "curiosity"},
		{"traits.0.strength", "0.8"},
		{"traits.0.modifiers.0", "decay(0.1/month)"},
		{"traits.0.modifiers.1", `when("research")`},
		{"traits.1.modifiers.1", `unless(mood:"rushed")`},
		{"knowledge.0.topics.0.level", "expert"},
		{"knowledge.0.connections.0.from_domain", "math"},
		{"knowledge.0.connections.0.to_domain", "physics"},
		{"knowledge.0.connections.0.evolution_rate", "0.05"},
		{"knowledge.1.connections", "[]"},
		{"behaviors.0.condition", "tired"},
		{"behaviors.1.condition", "curiosity > 0.7"},
		{"behaviors.1.action", `seek "depth"`},
		{"evolution.1.trigger", "time_in(math, 3 months)"},
		{"evolution.1.effect", "unlock(physics)"},
	}
	for _, tt := range tests {
		res := gjson.Get(out, tt.path)
		got := res.String()
		if res.IsArray() {
			got = res.Raw
		}
		assert.Equal(t, tt.want, got, tt.path)
	}
	assert.False(t, gjson.Get(out, "knowledge.1.connections.0.evolution_rate").Exists())
}

func TestJSONEmptyListsAreArrays(t *testing.T) {
	out, err := compiler.Compile(mustParse(t, `personality "X" {}`), compiler.TargetJSON, "")
	require.NoError(t, err)
	for _, key := range []string{"traits", "knowledge", "behaviors", "evolution"} {
		assert.Equal(t, "[]", gjson.Get(out, key).Raw, key)
	}
}

func TestJSONCompact(t *testing.T) {
	c := newCompiler(compiler.WithJSONIndent(""))
	res, err := c.Compile(mustParse(t, `personality "X" { traits { a: 0.5 } }`), compiler.TargetJSON, "")
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":"X","traits":[{"name":"a","strength":0.5,"modifiers":[]}],"knowledge":[],"behaviors":[],"evolution":[]}`,
		res.Output)
}

func TestStructuredRoundTrip(t *testing.T) {
	p := mustParse(t, document)
	out, err := compiler.Compile(p, compiler.TargetJSON, "")
	require.NoError(t, err)

	back, err := compiler.DecodeStructured([]byte(out))
	require.NoError(t, err)
	if diff := cmp.Diff(p, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeStructuredErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{`, "decode personality document"},
		{"bad modifier", `{"name":"X","traits":[{"name":"a","strength":0.5,"modifiers":["sometimes(1)"]}]}`, `modifier "sometimes(1)"`},
		{"bad level", `{"name":"X","knowledge":[{"name":"d","topics":[{"name":"t","level":"guru"}]}]}`, `unknown level "guru"`},
		{"bad action", `{"name":"X","behaviors":[{"condition":"tired","action":"dance"}]}`, `action "dance"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.DecodeStructured([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLuaTarget(t *testing.T) {
	out, err := compiler.Compile(mustParse(t, document), compiler.TargetLua, "")
	require.NoError(t, err)

	L := lua.NewState()
	defer L.Close()
	require.NoError(t, L.DoString(out))

	tbl, ok := L.Get(-1).(*lua.LTable)
	require.True(t, ok, "module must return a table")
	assert.Equal(t, "Ada", tbl.RawGetString("name").String())

	traits := tbl.RawGetString("traits").(*lua.LTable)
	assert.Equal(t, lua.LNumber(0.8), traits.RawGetString("curiosity"))
	assert.Equal(t, lua.LNumber(0.6), traits.RawGetString("patience"))

	knowledge := tbl.RawGetString("knowledge").(*lua.LTable)
	math := knowledge.RawGetString("math").(*lua.LTable)
	assert.Equal(t, "expert", math.RawGetString("algebra").String())
	assert.Equal(t, "advanced", math.RawGetString("calculus").String())
	physics := knowledge.RawGetString("physics").(*lua.LTable)
	assert.Equal(t, "intermediate", physics.RawGetString("mechanics").String())
}

func TestLuaEscaping(t *testing.T) {
	name := "A \"quoted\"\\ name\nwith\x01control1"
	p := types.CreatePersonality(name)

	out, err := compiler.Compile(&p, compiler.TargetLua, "")
	require.NoError(t, err)

	L := lua.NewState()
	defer L.Close()
	require.NoError(t, L.DoString(out))
	tbl := L.Get(-1).(*lua.LTable)
	assert.Equal(t, name, tbl.RawGetString("name").String())
}

func TestSQLTarget(t *testing.T) {
	p := mustParse(t, strings.Replace(document, `"Ada"`, `"O'Brien"`, 1))
	out, err := compiler.Compile(p, compiler.TargetSQL, "")
	require.NoError(t, err)

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	_, err = db.Exec(out)
	require.NoError(t, err)

	counts := map[string]int{
		"traits":                2,
		"knowledge_topics":      3,
		"knowledge_connections": 1,
		"behaviors":             2,
		"evolution_rules":       2,
	}
	for table, want := range counts {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE personality = ?", "O'Brien").Scan(&n))
		assert.Equal(t, want, n, table)
	}

	var modifiers string
	require.NoError(t, db.QueryRow("SELECT modifiers FROM traits WHERE idx = 0").Scan(&modifiers))
	assert.Equal(t, `["decay(0.1/month)","when(\"research\")"]`, modifiers)

	var topic, level string
	require.NoError(t, db.QueryRow("SELECT topic, level FROM knowledge_topics WHERE idx = 2").Scan(&topic, &level))
	assert.Equal(t, "mechanics", topic)
	assert.Equal(t, "intermediate", level)

	var rate sql.NullFloat64
	require.NoError(t, db.QueryRow("SELECT evolution_rate FROM knowledge_connections WHERE idx = 0").Scan(&rate))
	assert.Equal(t, sql.NullFloat64{Float64: 0.05, Valid: true}, rate)

	var cond, action string
	require.NoError(t, db.QueryRow("SELECT condition_text, action_text FROM behaviors WHERE idx = 0").Scan(&cond, &action))
	assert.Equal(t, "tired", cond)
	assert.Equal(t, `prefer "short answers"`, action)

	// The schema is idempotent: a second personality can be loaded into the
	// same database.
	other, err := compiler.Compile(mustParse(t, `personality "Bo" { traits { a: 0.1 } }`), compiler.TargetSQL, "")
	require.NoError(t, err)
	_, err = db.Exec(other)
	require.NoError(t, err)
}

func TestCypherTarget(t *testing.T) {
	out, err := compiler.Compile(mustParse(t, document), compiler.TargetCypher, "")
	require.NoError(t, err)

	for _, want := range []string{
		"CREATE (p:Personality {name: 'Ada'})",
		"CREATE (t0:Trait {name: 'curiosity', strength: 0.8, modifiers: ['decay(0.1/month)', 'when(\"research\")']})",
		"CREATE (d0:Domain {name: 'math', `topic.algebra`: 'expert', `topic.calculus`: 'advanced'})",
		"CREATE (d0)-[:CONNECTS_TO {strength: 0.7, evolution_rate: 0.05}]->(d1)",
		"CREATE (b1:Behavior {condition: 'curiosity > 0.7', action: 'seek \"depth\"'})",
		"CREATE (e1:Evolution {trigger: 'time_in(math, 3 months)', effect: 'unlock(physics)'})",
	} {
		assert.Contains(t, out, want)
	}

	// Every node hangs off the root, not only the first of each kind.
	for _, link := range []string{
		"(p)-[:HAS_TRAIT]->(t1)",
		"(p)-[:KNOWS]->(d1)",
		"(p)-[:EXHIBITS]->(b1)",
		"(p)-[:EVOLVES_BY]->(e1)",
	} {
		assert.Contains(t, out, link)
	}
	assert.True(t, strings.HasSuffix(out, ";\n"))
}

func TestCypherQuoting(t *testing.T) {
	p := types.AddKnowledgeDomain(types.CreatePersonality(`It's`), types.KnowledgeDomain{
		Name:   "d",
		Topics: []types.TopicLevel{{Name: "odd`key", Level: types.Beginner}, {Name: "name", Level: types.Expert}, {Name: "topic_name", Level: types.Advanced}},
	})
	out, err := compiler.Compile(&p, compiler.TargetCypher, "")
	require.NoError(t, err)
	assert.Contains(t, out, `{name: 'It\'s'}`)
	assert.Contains(t, out, "CREATE (d0:Domain {name: 'd', `topic.odd``key`: 'beginner', `topic.name`: 'expert', `topic.topic_name`: 'advanced'})")
}

func TestPromptTarget(t *testing.T) {
	out, err := compiler.Compile(mustParse(t, document), compiler.TargetPrompt, "")
	require.NoError(t, err)

	sections := strings.Split(strings.TrimSuffix(out, "\n"), "\n\n")
	require.Len(t, sections, 6)
	assert.Equal(t, "You are Ada. Embody the following personality in every response.", sections[0])
	assert.Equal(t, `## Personality Traits
- curiosity: Very high (0.8) (naturally decays 0.1 per month) (enhanced when research)
- patience: High (0.6) (amplifies curiosity by 1.1x) (suppressed unless feeling rushed)`, sections[1])
	assert.Equal(t, `## Knowledge Areas
- math: algebra (expert), calculus (advanced) [connects to physics (strength 0.7)]
- physics: mechanics (intermediate)`, sections[2])
	assert.Equal(t, `## Behavioral Guidelines
- When you are tired, prefer short answers.
- When your curiosity is above 0.7, seek depth.`, sections[3])
	assert.Equal(t, `## Evolution Awareness
- After learning about topology, your curiosity will increase by 0.1.
- After 3 months in math, you will unlock knowledge of physics.`, sections[4])
	assert.Equal(t, "## Context\n"+compiler.DefaultContext, sections[5])
}

func TestPromptContextHint(t *testing.T) {
	p := mustParse(t, `personality "X" {}`)
	out, err := compiler.Compile(p, compiler.TargetPrompt, "  You are reviewing code.  ")
	require.NoError(t, err)
	assert.Equal(t, "You are X. Embody the following personality in every response.\n\n## Context\nYou are reviewing code.\n", out)
}

func TestPromptPhrases(t *testing.T) {
	p := mustParse(t, `personality "X" {
		traits { a: 0.2 with transforms_to(b, 0.5, 2), when(time:"morning"), when(situation:"crisis"); b: 0.4 }
		knowledge { domain(x) { t: beginner }; domain(y) { -> x(0.4) } }
		behaviors {
			when motivated -> avoid "small talk";
			when context("review") -> style(tone, "formal");
			when time("09:00", "17:00") -> seek "focus"
		}
		evolution {
			if interactions(1) then b -= 0.1;
			if feedback(0.9) then connect(x, y, 0.5);
			if time_in(x, 1 week) then new_behavior { when tired -> prefer "rest" }
		}
	}`)
	out, err := compiler.Compile(p, compiler.TargetPrompt, "")
	require.NoError(t, err)

	for _, want := range []string{
		"- a: Low (0.2) (can evolve into b) (enhanced when it is morning) (enhanced when in a crisis situation)",
		"- b: Moderate (0.4)",
		"- x: t (beginner)",
		"- y: general familiarity [connects to x (strength 0.4)]",
		"- When you are motivated, avoid small talk.",
		`- When the context involves "review", set your tone to formal.`,
		"- Between 09:00 and 17:00, seek focus.",
		"- After 1 interaction, your b will decrease by 0.1.",
		"- When feedback reaches 0.9, you will connect x to y (strength 0.5).",
		"- After 1 week in x, you will adopt a new behavior: when you are tired, prefer rest.",
	} {
		assert.Contains(t, out, want)
	}
}

func TestStrengthTier(t *testing.T) {
	tests := []struct {
		strength float64
		want     string
	}{
		{1, "Very high"},
		{0.8, "Very high"},
		{0.79, "High"},
		{0.6, "High"},
		{0.4, "Moderate"},
		{0.39, "Low"},
		{0, "Low"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compiler.StrengthTier(tt.strength), "strength %v", tt.strength)
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	p := mustParse(t, document)
	for _, target := range compiler.Targets {
		first, err := compiler.Compile(p, target, "hint")
		require.NoError(t, err)
		second, err := compiler.Compile(p, target, "hint")
		require.NoError(t, err)
		assert.Equal(t, first, second, target)
	}
}
