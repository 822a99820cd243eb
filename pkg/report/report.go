package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"stopsum/internal/pool"
	"stopsum/pkg/config"
	"stopsum/pkg/logger"
	"stopsum/pkg/overshoot"
)

// ErrImpossibleCondition is returned when the condition card can never be
// drawn before the process stops
var ErrImpossibleCondition = errors.New("condition has zero probability")

// Scenario is one point of the report grid
type Scenario struct {
	Threshold int `yaml:"threshold" json:"threshold"`
	Baseline  int `yaml:"baseline" json:"baseline"`
}

// Event is the overshoot range [From, To)
type Event struct {
	From int `yaml:"from" json:"from"`
	To   int `yaml:"to" json:"to"`
}

// Summary holds the statistics of one scenario
type Summary struct {
	Scenario         `yaml:",inline"`
	Cards            []int    `yaml:"cards" json:"cards"`
	Mean             float64  `yaml:"mean" json:"mean"`
	StdDev           float64  `yaml:"std_dev" json:"std_dev"`
	EventProbability float64  `yaml:"event_probability" json:"event_probability"`
	Conditional      *float64 `yaml:"conditional,omitempty" json:"conditional,omitempty"`
}

// Report is the result of a Runner
type Report struct {
	Method         string    `yaml:"method" json:"method"`
	Event          Event     `yaml:"event" json:"event"`
	ConditionValue int       `yaml:"condition_value" json:"condition_value"`
	Summaries      []Summary `yaml:"summaries" json:"summaries"`
	GeneratedAt    time.Time `yaml:"generated_at" json:"generated_at"`
}

// Runner evaluates report scenarios with one engine per scenario
type Runner struct {
	cards     []int
	method    overshoot.Method
	walkLimit int
	logger    logger.Logger
}

// NewRunner creates a runner for the engine settings in cfg
func NewRunner(cfg config.EngineConfig, log logger.Logger) (*Runner, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	method, err := overshoot.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	cards := cfg.Cards
	if len(cards) == 0 {
		cards = overshoot.StandardCards
	}
	return &Runner{
		cards:     slices.Clone(cards),
		method:    method,
		walkLimit: cfg.WalkLimit,
		logger:    log,
	}, nil
}

// Scenarios returns the cartesian product of thresholds and baselines,
// thresholds outermost
func Scenarios(thresholds, baselines []int) []Scenario {
	scenarios := make([]Scenario, 0, len(thresholds)*len(baselines))
	for _, threshold := range thresholds {
		for _, baseline := range baselines {
			scenarios = append(scenarios, Scenario{Threshold: threshold, Baseline: baseline})
		}
	}
	return scenarios
}

// Run evaluates every scenario of cfg
func (r *Runner) Run(cfg config.ReportConfig) (*Report, error) {
	return r.RunContext(context.Background(), cfg)
}

// RunContext evaluates the scenarios of cfg on cfg.Workers workers, one
// engine per scenario. Summaries keep grid order. The first failing
// scenario in grid order is reported.
func (r *Runner) RunContext(ctx context.Context, cfg config.ReportConfig) (*Report, error) {
	if cfg.EventFrom >= cfg.EventTo {
		return nil, fmt.Errorf("event range [%d, %d) is empty", cfg.EventFrom, cfg.EventTo)
	}

	rep := &Report{
		Method:         string(r.method),
		Event:          Event{From: cfg.EventFrom, To: cfg.EventTo},
		ConditionValue: cfg.ConditionValue,
		GeneratedAt:    time.Now(),
	}

	started := time.Now()
	results := pool.Map(ctx, cfg.Workers, Scenarios(cfg.Thresholds, cfg.Baselines),
		func(ctx context.Context, sc Scenario) (*Summary, error) {
			return r.Evaluate(sc, rep.Event, cfg.ConditionValue)
		}, r.logger)

	for _, res := range results {
		if res.Err != nil {
			return nil, fmt.Errorf("scenario threshold=%d baseline=%d: %w", res.Job.Threshold, res.Job.Baseline, res.Err)
		}
		rep.Summaries = append(rep.Summaries, *res.Value)
	}

	r.logger.InfoWithFields("Report computed", map[string]interface{}{
		"scenarios": len(rep.Summaries),
		"method":    rep.Method,
		"workers":   cfg.Workers,
		"duration":  time.Since(started),
	})
	return rep, nil
}

// Evaluate computes the summary of one scenario. The conditional is left
// nil when conditionValue is not in the scenario's deck.
func (r *Runner) Evaluate(sc Scenario, event Event, conditionValue int) (*Summary, error) {
	cards := overshoot.Deck(r.cards, sc.Baseline)
	opts := []overshoot.Option{overshoot.WithLogger(r.logger)}
	if r.walkLimit > 0 {
		opts = append(opts, overshoot.WithWalkLimit(r.walkLimit))
	}

	eng, err := overshoot.New(cards, sc.Threshold, opts...)
	if err != nil {
		return nil, err
	}

	dist, err := eng.Calculate(overshoot.WithMethod(r.method))
	if err != nil {
		return nil, err
	}
	mean, sd, err := dist.MeanSD()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Scenario:         sc,
		Cards:            cards,
		Mean:             mean,
		StdDev:           sd,
		EventProbability: dist.Mass(event.From, event.To),
	}

	if slices.Contains(cards, conditionValue) {
		p, err := Conditional(eng, dist, event, conditionValue, r.method)
		if err != nil {
			return nil, err
		}
		summary.Conditional = &p
	}
	return summary, nil
}

// Conditional returns P(overshoot in event | value drawn at least once).
// base is the unconditioned distribution computed by eng. The engine's
// stored distribution is replaced by the exclusion run. Every copy of value
// in the deck is excluded.
func Conditional(eng *overshoot.Engine, base overshoot.Distribution, event Event, value int, method overshoot.Method) (float64, error) {
	var copies []int
	for _, v := range eng.Values() {
		if v == value {
			copies = append(copies, v)
		}
	}
	if len(copies) == 0 {
		return 0, fmt.Errorf("%w: %d", overshoot.ErrValueNotFound, value)
	}

	without, err := eng.Calculate(
		overshoot.Exclude(copies...),
		overshoot.WithWeighting(overshoot.WeightFull),
		overshoot.WithMethod(method),
	)
	if err != nil {
		return 0, err
	}

	pB := 1 - without.Sum()
	if pB <= 1e-12 {
		return 0, fmt.Errorf("%w: value %d", ErrImpossibleCondition, value)
	}
	pA := base.Mass(event.From, event.To)
	pANotB := without.Mass(event.From, event.To)
	return (pA - pANotB) / pB, nil
}
