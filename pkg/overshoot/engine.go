package overshoot

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"stopsum/pkg/logger"
)

// Errors returned by the engine
var (
	ErrEmptyDrawSet      = errors.New("draw-value set is empty")
	ErrNonPositiveValue  = errors.New("draw values must be positive")
	ErrNegativeThreshold = errors.New("threshold must not be negative")
	ErrValueNotFound     = errors.New("value not found in draw-value set")
	ErrEmptyActiveSet    = errors.New("no draw values left after exclusion")
	ErrNotComputed       = errors.New("no distribution has been computed")
	ErrThresholdTooLarge = errors.New("threshold too large for exhaustive walk")
	ErrUnknownMethod     = errors.New("unknown evaluation method")
	ErrUnknownWeighting  = errors.New("unknown weighting")
	ErrZeroMass          = errors.New("distribution has no probability mass")
)

// Method selects how a distribution is evaluated
type Method string

const (
	// MethodMemo evaluates the recurrence bottom-up with a per-run cache
	MethodMemo Method = "memo"
	// MethodBreadth expands reachable partial sums one draw at a time
	MethodBreadth Method = "breadth"
	// MethodWalk enumerates every draw sequence depth-first
	MethodWalk Method = "walk"
)

// ParseMethod converts a method name to a Method
func ParseMethod(name string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(name))); m {
	case MethodMemo, MethodBreadth, MethodWalk:
		return m, nil
	case "":
		return MethodMemo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}

// Weighting selects the probability of each draw when values are excluded
type Weighting string

const (
	// WeightActive draws each remaining value with probability 1/len(active)
	WeightActive Weighting = "active"
	// WeightFull keeps 1/len(all values) per draw; drawing an excluded value
	// ends the path and its mass is dropped from the result
	WeightFull Weighting = "full"
)

// ParseWeighting converts a weighting name to a Weighting
func ParseWeighting(name string) (Weighting, error) {
	switch w := Weighting(strings.ToLower(strings.TrimSpace(name))); w {
	case WeightActive, WeightFull:
		return w, nil
	case "":
		return WeightActive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownWeighting, name)
	}
}

// DefaultWalkLimit is the largest threshold MethodWalk accepts by default
const DefaultWalkLimit = 25

// Engine computes overshoot distributions for one draw-value set and threshold
type Engine struct {
	values    []int
	threshold int
	maxValue  int
	walkLimit int
	logger    logger.Logger

	// cache maps a partial sum below the threshold to its overshoot vector.
	// It is rebuilt by every Calculate call and holds a sliding window of
	// sums during a memo pass.
	cache map[int][]float64
	dist  Distribution
}

// Option configures an Engine
type Option func(*Engine)

// WithWalkLimit overrides the largest threshold accepted by MethodWalk
func WithWalkLimit(limit int) Option {
	return func(e *Engine) {
		e.walkLimit = limit
	}
}

// WithLogger sets the logger used for calculation events
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.logger = log
		}
	}
}

// New creates an engine for the given draw values and stopping threshold
func New(values []int, threshold int, opts ...Option) (*Engine, error) {
	if len(values) == 0 {
		return nil, ErrEmptyDrawSet
	}
	for i, v := range values {
		if v <= 0 {
			return nil, fmt.Errorf("%w: value %d at position %d", ErrNonPositiveValue, v, i)
		}
	}
	if threshold < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeThreshold, threshold)
	}

	e := &Engine{
		values:    slices.Clone(values),
		threshold: threshold,
		maxValue:  slices.Max(values),
		walkLimit: DefaultWalkLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.GetLogger()
	}

	return e, nil
}

// Values returns a copy of the full draw-value set
func (e *Engine) Values() []int {
	return slices.Clone(e.values)
}

// Threshold returns the stopping threshold
func (e *Engine) Threshold() int {
	return e.threshold
}

// MaxValue returns the largest draw value, which is also the length of every
// distribution produced by the engine
func (e *Engine) MaxValue() int {
	return e.maxValue
}

type calcOptions struct {
	exclude   []int
	method    Method
	weighting Weighting
}

// CalcOption configures a single Calculate call
type CalcOption func(*calcOptions)

// Exclude removes one occurrence of each value from the draw-value set for
// this calculation only
func Exclude(values ...int) CalcOption {
	return func(o *calcOptions) {
		o.exclude = append(o.exclude, values...)
	}
}

// WithMethod selects the evaluation strategy
func WithMethod(m Method) CalcOption {
	return func(o *calcOptions) {
		o.method = m
	}
}

// WithWeighting selects the per-draw probability
func WithWeighting(w Weighting) CalcOption {
	return func(o *calcOptions) {
		o.weighting = w
	}
}

// Calculate computes the overshoot distribution from an empty sum.
// The result is stored on the engine and a copy is returned.
func (e *Engine) Calculate(opts ...CalcOption) (Distribution, error) {
	o := calcOptions{
		method:    MethodMemo,
		weighting: WeightActive,
	}
	for _, opt := range opts {
		opt(&o)
	}

	active, err := e.activeSet(o.exclude)
	if err != nil {
		return nil, err
	}

	var weight float64
	switch o.weighting {
	case WeightActive:
		if len(active) == 0 {
			return nil, ErrEmptyActiveSet
		}
		weight = 1 / float64(len(active))
	case WeightFull:
		weight = 1 / float64(len(e.values))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeighting, o.weighting)
	}

	e.cache = make(map[int][]float64)
	start := time.Now()

	var dist Distribution
	switch o.method {
	case MethodMemo:
		dist = e.memo(active, weight)
	case MethodBreadth:
		dist = e.breadth(active, weight)
	case MethodWalk:
		if e.threshold > e.walkLimit {
			return nil, fmt.Errorf("%w: %d > %d", ErrThresholdTooLarge, e.threshold, e.walkLimit)
		}
		dist = e.newDistribution()
		e.walk(active, weight, dist, 0, 1)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, o.method)
	}

	e.dist = dist
	logger.LogCalculation(e.logger, string(o.method), string(o.weighting), e.threshold, len(o.exclude), time.Since(start))

	return dist.Clone(), nil
}

// Distribution returns the most recently computed distribution
func (e *Engine) Distribution() (Distribution, bool) {
	if e.dist == nil {
		return nil, false
	}
	return e.dist.Clone(), true
}

// MeanSD returns the mean and standard deviation of the overshoot under the
// most recently computed distribution
func (e *Engine) MeanSD() (float64, float64, error) {
	if e.dist == nil {
		return 0, 0, ErrNotComputed
	}
	return e.dist.MeanSD()
}

// activeSet returns the draw values left after removing exclusions
func (e *Engine) activeSet(exclude []int) ([]int, error) {
	active := slices.Clone(e.values)
	for _, x := range exclude {
		i := slices.Index(active, x)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrValueNotFound, x)
		}
		active = slices.Delete(active, i, i+1)
	}
	return active, nil
}

func (e *Engine) newDistribution() Distribution {
	return make(Distribution, e.maxValue)
}
