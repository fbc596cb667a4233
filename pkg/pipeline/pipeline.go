// Package pipeline runs source text through every stage: parse, optimize,
// validate and emit.
//
// A Runner is safe for concurrent use. Each request is independent; the only
// shared state is the optional output cache.
//
// # Example
//
//	r := pipeline.New(pipeline.WithCaching(true), pipeline.WithConcurrency(4))
//	responses, err := r.RunBatch(ctx, []pipeline.Request{
//	    {Source: src, Filename: "ada.pdsl", Target: compiler.TargetPrompt},
//	    {Source: src, Filename: "ada.pdsl", Target: compiler.TargetJSON},
//	})
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/callosum-dsl/callosum/pkg/cache"
	"github.com/callosum-dsl/callosum/pkg/compiler"
	"github.com/callosum-dsl/callosum/pkg/optimizer"
	"github.com/callosum-dsl/callosum/pkg/parser"
	"github.com/callosum-dsl/callosum/pkg/semantic"
)

// Request is a single compilation.
type Request struct {
	Source   string
	Filename string
	Target   compiler.Target
	// Context is passed to the emitter; only the prompt target uses it.
	Context string
	Level   optimizer.Level
}

// Response is the outcome of a request. Warnings and Stats are only filled
// when the output was not served from the cache.
type Response struct {
	Filename string
	Target   compiler.Target
	Output   string
	Warnings []semantic.Warning
	Stats    *optimizer.Stats
	Cached   bool
	Duration time.Duration
	Err      error
}

// Runner compiles requests.
type Runner struct {
	opts     RunOptions
	logger   *slog.Logger
	compiler *compiler.Compiler
	cache    *cache.Cache
}

// RunOptions configures a Runner.
type RunOptions struct {
	// Caching enables the output cache. The default cache holds 256 entries.
	Caching bool
	// CacheSize sets the capacity of the default cache.
	CacheSize int
	// Cache is a custom output cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// Concurrency bounds the number of requests RunBatch runs at once.
	Concurrency int
	// Timeout bounds a single request. Zero means no limit.
	Timeout time.Duration
	// Strict promotes skipped parser entries to errors.
	Strict bool
	// MaxDepth limits parser nesting. Zero keeps the parser default.
	MaxDepth int
	// Logger for structured logging.
	Logger *slog.Logger
	// CompileOptions are passed to the compiler.
	CompileOptions []compiler.CompileOption
}

// defaultConcurrency is the default RunOptions.Concurrency. It is lowered
// to 1 on WebAssembly targets by pipeline_wasm.go.
var defaultConcurrency = runtime.GOMAXPROCS(0)

// RunOption configures a Runner.
type RunOption func(*RunOptions)

// WithCaching enables or disables the output cache.
func WithCaching(enabled bool) RunOption {
	return func(opts *RunOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the capacity of the default cache.
func WithCacheSize(size int) RunOption {
	return func(opts *RunOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external output cache.
func WithCache(c *cache.Cache) RunOption {
	return func(opts *RunOptions) {
		opts.Cache = c
	}
}

// WithConcurrency bounds RunBatch parallelism. Values below 1 mean 1.
func WithConcurrency(n int) RunOption {
	return func(opts *RunOptions) {
		opts.Concurrency = n
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) RunOption {
	return func(opts *RunOptions) {
		opts.Timeout = timeout
	}
}

// WithStrict enables strict parsing.
func WithStrict(enabled bool) RunOption {
	return func(opts *RunOptions) {
		opts.Strict = enabled
	}
}

// WithMaxDepth sets the parser nesting limit.
func WithMaxDepth(depth int) RunOption {
	return func(opts *RunOptions) {
		opts.MaxDepth = depth
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) RunOption {
	return func(opts *RunOptions) {
		opts.Logger = logger
	}
}

// WithCompileOptions passes options to the compiler.
func WithCompileOptions(copts ...compiler.CompileOption) RunOption {
	return func(opts *RunOptions) {
		opts.CompileOptions = append(opts.CompileOptions, copts...)
	}
}

// New creates a Runner.
func New(opts ...RunOption) *Runner {
	options := RunOptions{
		Concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New(options.CacheSize)
	}

	copts := append([]compiler.CompileOption{compiler.WithLogger(options.Logger)}, options.CompileOptions...)
	r := &Runner{
		opts:     options,
		logger:   options.Logger.With("component", "pipeline"),
		compiler: compiler.New(copts...),
		cache:    c,
	}
	if c != nil {
		r.logger.Debug("output cache enabled", "capacity", c.Capacity())
	}
	return r
}

// Cache returns the output cache, or nil if caching is disabled.
func (r *Runner) Cache() *cache.Cache {
	return r.cache
}

// Run compiles a single request. Parse failures wrap types.ParseErrors and
// compile failures wrap types.CompileErrors.
func (r *Runner) Run(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp := &Response{Filename: req.Filename, Target: req.Target}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return resp, err
	}

	compiled := false
	build := func() (string, error) {
		compiled = true
		return r.compile(ctx, req, resp)
	}

	var (
		out string
		err error
	)
	if r.cache != nil {
		key := cache.Key(req.Source, string(req.Target), req.Context, req.Level.String(), fmt.Sprint(r.opts.Strict))
		out, err = r.cache.GetOrCompile(key, build)
	} else {
		out, err = build()
	}
	if err != nil {
		return resp, err
	}
	resp.Output = out
	resp.Cached = !compiled
	resp.Duration = time.Since(start)

	if resp.Cached {
		r.logger.Debug("cache hit", "file", req.Filename, "target", string(req.Target))
		return resp, nil
	}
	r.logger.Debug("compiled",
		"file", req.Filename,
		"target", string(req.Target),
		"level", req.Level.String(),
		"warnings", len(resp.Warnings),
		"duration", resp.Duration)
	return resp, nil
}

// compile runs every stage for req, recording stats and warnings in resp.
func (r *Runner) compile(ctx context.Context, req Request, resp *Response) (string, error) {
	popts := []parser.CompileOption{
		parser.WithFilename(req.Filename),
		parser.WithStrict(r.opts.Strict),
		parser.WithLogger(r.opts.Logger),
	}
	if r.opts.MaxDepth > 0 {
		popts = append(popts, parser.WithMaxDepth(r.opts.MaxDepth))
	}
	p, err := parser.Parse(req.Source, popts...)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", displayName(req.Filename), err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if req.Level != optimizer.None {
		p, resp.Stats = optimizer.Optimize(p, req.Level)
	}

	res, err := r.compiler.Compile(p, req.Target, req.Context)
	if err != nil {
		return "", fmt.Errorf("compile %s: %w", displayName(req.Filename), err)
	}
	resp.Warnings = res.Warnings
	return res.Output, nil
}

// RunBatch runs every request, at most Concurrency at a time. Failures are
// reported per response in Err and do not stop the other requests; the
// returned error is non-nil only when ctx is done.
func (r *Runner) RunBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	responses := make([]Response, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			resp, err := r.Run(gctx, req)
			resp.Err = err
			responses[i] = *resp
			return nil
		})
	}
	_ = g.Wait()

	var failed int
	for _, resp := range responses {
		if resp.Err != nil {
			failed++
		}
	}
	r.logger.Debug("batch done", "requests", len(reqs), "failed", failed)
	return responses, ctx.Err()
}

func displayName(filename string) string {
	if filename == "" {
		return "<input>"
	}
	return filename
}
