package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/callosum-dsl/callosum/pkg/cache"
	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/optimizer"
	"github.com/callosum-dsl/callosum/pkg/pipeline"
	"github.com/callosum-dsl/callosum/pkg/types"
)

const source = `personality "Ada" {
  traits {
    curiosity: 0.8 with decay(0/month), when("research");
    patience: 0.6
  }
}`

func newRunner(opts ...pipeline.RunOption) *pipeline.Runner {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return pipeline.New(append([]pipeline.RunOption{pipeline.WithLogger(logger)}, opts...)...)
}

func TestRun(t *testing.T) {
	resp, err := newRunner().Run(context.Background(), pipeline.Request{
		Source: source,
		Target: compiler.TargetJSON,
	})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.Stats)
	assert.Equal(t, "Ada", gjson.Get(resp.Output, "name").String())
	assert.Equal(t, int64(2), gjson.Get(resp.Output, "traits.0.modifiers.#").Int())
}

func TestRunOptimizes(t *testing.T) {
	resp, err := newRunner().Run(context.Background(), pipeline.Request{
		Source: source,
		Target: compiler.TargetJSON,
		Level:  optimizer.Basic,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Stats)
	assert.Equal(t, 1, resp.Stats.TraitsFolded)
	assert.Equal(t, int64(1), gjson.Get(resp.Output, "traits.0.modifiers.#").Int())
}

func TestRunCache(t *testing.T) {
	c := cache.New(8)
	r := newRunner(pipeline.WithCache(c))
	req := pipeline.Request{Source: source, Target: compiler.TargetLua}

	first, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Output, second.Output)
	assert.Same(t, c, r.Cache())

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	// A different hint is a different artifact.
	req.Context = "other"
	third, err := r.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, c.Len())
}

func TestRunWithoutCache(t *testing.T) {
	assert.Nil(t, newRunner().Cache())
	assert.NotNil(t, newRunner(pipeline.WithCaching(true)).Cache())
	assert.Equal(t, 3, newRunner(pipeline.WithCaching(true), pipeline.WithCacheSize(3)).Cache().Capacity())
}

func TestRunBatchIdenticalRequestsShareCache(t *testing.T) {
	r := newRunner(pipeline.WithCaching(true), pipeline.WithConcurrency(8))
	reqs := make([]pipeline.Request, 16)
	for i := range reqs {
		reqs[i] = pipeline.Request{Source: source, Target: compiler.TargetJSON}
	}

	responses, err := r.RunBatch(context.Background(), reqs)
	require.NoError(t, err)
	for _, resp := range responses {
		require.NoError(t, resp.Err)
		assert.Equal(t, responses[0].Output, resp.Output)
	}
	assert.Equal(t, 1, r.Cache().Len())
}

func TestRunParseError(t *testing.T) {
	_, err := newRunner().Run(context.Background(), pipeline.Request{
		Source:   `personality "X" { traits { a 0.5 } }`,
		Filename: "x.pdsl",
		Target:   compiler.TargetJSON,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse x.pdsl: ")

	var perrs types.ParseErrors
	require.True(t, errors.As(err, &perrs))
	assert.Equal(t, "x.pdsl", perrs[0].Location.Filename)
}

func TestRunCompileErrorIsNotCached(t *testing.T) {
	r := newRunner(pipeline.WithCaching(true))
	req := pipeline.Request{Source: `personality "X" { traits { a: 1.5 } }`, Target: compiler.TargetJSON}

	for range 2 {
		_, err := r.Run(context.Background(), req)
		var cerrs types.CompileErrors
		require.True(t, errors.As(err, &cerrs))
		assert.Equal(t, types.CompileInvalidTraitStrength, cerrs[0].Kind)
		assert.Contains(t, err.Error(), "compile <input>: ")
	}
	assert.Equal(t, 0, r.Cache().Len())
}

func TestRunStrict(t *testing.T) {
	src := `personality "X" { traits { a: 0.5 with sometimes(1); b: 0.5 } }`
	req := pipeline.Request{Source: src, Target: compiler.TargetJSON}

	resp, err := newRunner().Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "b", gjson.Get(resp.Output, "traits.0.name").String())

	_, err = newRunner(pipeline.WithStrict(true)).Run(context.Background(), req)
	var perrs types.ParseErrors
	require.True(t, errors.As(err, &perrs))
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner().Run(ctx, pipeline.Request{Source: source, Target: compiler.TargetJSON})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBatch(t *testing.T) {
	reqs := []pipeline.Request{
		{Source: source, Filename: "a.pdsl", Target: compiler.TargetJSON},
		{Source: `personality "X" {`, Filename: "b.pdsl", Target: compiler.TargetJSON},
		{Source: source, Filename: "c.pdsl", Target: compiler.TargetPrompt, Context: "Be brief."},
		{Source: `personality "Y" { traits { y: -1 } }`, Filename: "d.pdsl", Target: compiler.TargetSQL},
	}

	responses, err := newRunner(pipeline.WithConcurrency(2)).RunBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, responses, len(reqs))

	for i, resp := range responses {
		assert.Equal(t, reqs[i].Filename, resp.Filename)
		assert.Equal(t, reqs[i].Target, resp.Target)
	}
	assert.NoError(t, responses[0].Err)
	assert.Error(t, responses[1].Err)
	assert.NoError(t, responses[2].Err)
	assert.Contains(t, responses[2].Output, "## Context\nBe brief.")
	assert.Error(t, responses[3].Err)
	assert.Empty(t, responses[3].Output)
}

func TestRunBatchConcurrencyLimit(t *testing.T) {
	var active, peak atomic.Int32
	slow := compiler.EmitterFunc(func(p *types.Personality, _ string) (string, error) {
		n := active.Add(1)
		defer active.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		return p.Name, nil
	})

	r := newRunner(
		pipeline.WithConcurrency(1),
		pipeline.WithCompileOptions(compiler.WithEmitter("name", slow)),
	)
	reqs := make([]pipeline.Request, 8)
	for i := range reqs {
		reqs[i] = pipeline.Request{Source: fmt.Sprintf(`personality "P%d" {}`, i), Target: "name"}
	}

	responses, err := r.RunBatch(context.Background(), reqs)
	require.NoError(t, err)
	assert.Equal(t, int32(1), peak.Load())
	for i, resp := range responses {
		assert.Equal(t, fmt.Sprintf("P%d", i), resp.Output)
	}
}

func TestRunBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	responses, err := newRunner().RunBatch(ctx, []pipeline.Request{{Source: source, Target: compiler.TargetJSON}})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, responses, 1)
	assert.ErrorIs(t, responses[0].Err, context.Canceled)
}
