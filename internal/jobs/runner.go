package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/image"
)

var (
	jobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagegen_jobs_total",
			Help: "Generation runs by provider and terminal status.",
		},
		[]string{"provider", "status"},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagegen_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"stage"},
	)
)

// Enhancer is the first pipeline stage. It never fails; graceful degradation
// is its contract.
type Enhancer interface {
	Enhance(ctx context.Context, prompt, styleSuffix string) string
}

// Dispatcher resolves provider keys to image generators.
type Dispatcher interface {
	ForProvider(key string) (image.Generator, error)
}

// Runner drives the enhance-then-generate pipeline in the background and
// reports progress through the shared tracker.
type Runner struct {
	tracker  *Tracker
	enhancer Enhancer
	registry Dispatcher
	logger   zerolog.Logger
}

// NewRunner wires the pipeline stages together.
func NewRunner(tracker *Tracker, enhancer Enhancer, registry Dispatcher, logger zerolog.Logger) *Runner {
	return &Runner{tracker: tracker, enhancer: enhancer, registry: registry, logger: logger}
}

// Start resets the shared status and launches the pipeline in a fresh
// goroutine. It returns before any work happens; callers observe progress
// through the status endpoint. There is no cancellation handle and no
// backpressure: every call spawns a run that goes to completion or failure
// on its own, and concurrent runs race over the shared status record.
func (r *Runner) Start(prompt, styleKey, providerKey string) {
	r.tracker.Reset(prompt)
	go r.run(context.Background(), prompt, styleKey, providerKey)
}

func (r *Runner) run(ctx context.Context, prompt, styleKey, providerKey string) {
	started := time.Now()
	style := domain.StyleFor(styleKey)

	r.tracker.Advance(domain.StateEnhancing, 20, "enhancing prompt")
	enhanceStart := time.Now()
	enhanced := r.enhancer.Enhance(ctx, prompt, style.Suffix)
	stageDuration.WithLabelValues("enhance").Observe(time.Since(enhanceStart).Seconds())
	r.tracker.SetEnhancedPrompt(enhanced)
	r.tracker.Advance(domain.StateEnhancing, 40, "prompt enhanced")

	r.tracker.Advance(domain.StateGenerating, 60, "generating image via "+strings.ToUpper(providerKey))
	generator, err := r.registry.ForProvider(providerKey)
	if err != nil {
		r.fail(providerKey, err)
		return
	}
	generateStart := time.Now()
	path, err := generator.Generate(ctx, enhanced)
	stageDuration.WithLabelValues("generate").Observe(time.Since(generateStart).Seconds())
	if err != nil {
		r.fail(providerKey, err)
		return
	}

	r.tracker.Finish(path)
	jobsTotal.WithLabelValues(providerKey, "done").Inc()
	r.logger.Info().
		Str("provider", providerKey).
		Str("style", style.Key).
		Str("image_path", path).
		Dur("elapsed", time.Since(started)).
		Msg("generation finished")
}

func (r *Runner) fail(providerKey string, err error) {
	r.tracker.Fail(err)
	jobsTotal.WithLabelValues(providerKey, "error").Inc()
	r.logger.Error().Err(err).Str("provider", providerKey).Msg("generation failed")
}
