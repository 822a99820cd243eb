package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"stopsum/pkg/config"
	"stopsum/pkg/logger"
	"stopsum/pkg/overshoot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const tolerance = 1e-9

func newTestRunner(t *testing.T, method string) *Runner {
	t.Helper()
	cfg := config.DefaultConfig().Engine
	cfg.Method = method
	r, err := NewRunner(cfg, logger.NewNopLogger())
	require.NoError(t, err)
	return r
}

func reportConfig(thresholds, baselines []int, condition int) config.ReportConfig {
	cfg := config.DefaultConfig().Report
	cfg.Thresholds = thresholds
	cfg.Baselines = baselines
	cfg.ConditionValue = condition
	return cfg
}

func TestScenarios(t *testing.T) {
	got := Scenarios([]int{21, 1000}, []int{1, 11})
	assert.Equal(t, []Scenario{
		{Threshold: 21, Baseline: 1},
		{Threshold: 21, Baseline: 11},
		{Threshold: 1000, Baseline: 1},
		{Threshold: 1000, Baseline: 11},
	}, got)

	assert.Empty(t, Scenarios(nil, []int{1}))
}

func TestRunDefaultGrid(t *testing.T) {
	r := newTestRunner(t, "memo")
	rep, err := r.Run(config.DefaultConfig().Report)
	require.NoError(t, err)
	require.Len(t, rep.Summaries, 4)

	for _, s := range rep.Summaries {
		assert.Greater(t, s.Mean, 0.0)
		assert.Greater(t, s.StdDev, 0.0)
		require.NotNil(t, s.Conditional, "8 is in every default deck")
		assert.GreaterOrEqual(t, *s.Conditional, 0.0)
		assert.LessOrEqual(t, *s.Conditional, 1.0+tolerance)
	}
	assert.Equal(t, []int{11, 2, 4, 8, 16, 32, 64}, rep.Summaries[1].Cards)
	assert.Equal(t, Event{From: 1, To: 5}, rep.Event)
	assert.Equal(t, "memo", rep.Method)
}

func TestEvaluateMatchesEngine(t *testing.T) {
	r := newTestRunner(t, "memo")
	summary, err := r.Evaluate(Scenario{Threshold: 21, Baseline: 1}, Event{From: 1, To: 5}, 8)
	require.NoError(t, err)

	eng, err := overshoot.New(overshoot.StandardDeck(1), 21, overshoot.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	_, err = eng.Calculate()
	require.NoError(t, err)
	mean, sd, err := eng.MeanSD()
	require.NoError(t, err)

	assert.InDelta(t, mean, summary.Mean, tolerance)
	assert.InDelta(t, sd, summary.StdDev, tolerance)
}

func TestConditionalThresholdOne(t *testing.T) {
	// with threshold 1 drawing 8 always overshoots by 7
	r := newTestRunner(t, "memo")
	summary, err := r.Evaluate(Scenario{Threshold: 1, Baseline: 1}, Event{From: 1, To: 5}, 8)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/7, summary.EventProbability, tolerance)
	require.NotNil(t, summary.Conditional)
	assert.InDelta(t, 0.0, *summary.Conditional, tolerance)
}

func TestConditionalThresholdTwo(t *testing.T) {
	// every path that draws a 4 overshoots by 2 or 3
	for _, method := range []string{"memo", "breadth", "walk"} {
		r := newTestRunner(t, method)
		summary, err := r.Evaluate(Scenario{Threshold: 2, Baseline: 1}, Event{From: 1, To: 5}, 4)
		require.NoError(t, err, method)

		p := 1.0 / 7
		assert.InDelta(t, p+2*p*p, summary.EventProbability, tolerance, method)
		require.NotNil(t, summary.Conditional)
		assert.InDelta(t, 1.0, *summary.Conditional, tolerance, method)
	}
}

func TestConditionalExcludesEveryCopy(t *testing.T) {
	cfg := config.DefaultConfig().Engine
	cfg.Cards = []int{1, 4, 4}
	r, err := NewRunner(cfg, logger.NewNopLogger())
	require.NoError(t, err)

	// P(overshoot 3 | a 4 is drawn) = (110/243) / (242/243)
	summary, err := r.Evaluate(Scenario{Threshold: 5, Baseline: 1}, Event{From: 3, To: 4}, 4)
	require.NoError(t, err)
	require.NotNil(t, summary.Conditional)
	assert.InDelta(t, 5.0/11, *summary.Conditional, tolerance)
}

func TestConditionalSkippedWhenValueMissing(t *testing.T) {
	r := newTestRunner(t, "memo")
	summary, err := r.Evaluate(Scenario{Threshold: 21, Baseline: 11}, Event{From: 1, To: 5}, 1)
	require.NoError(t, err)
	assert.Nil(t, summary.Conditional)
}

func TestConditionalImpossible(t *testing.T) {
	r := newTestRunner(t, "memo")
	_, err := r.Run(reportConfig([]int{0}, []int{1}, 8))
	assert.ErrorIs(t, err, ErrImpossibleCondition)
	assert.Contains(t, err.Error(), "threshold=0")
}

func TestRunValidation(t *testing.T) {
	r := newTestRunner(t, "memo")

	cfg := reportConfig([]int{21}, []int{1}, 8)
	cfg.EventFrom, cfg.EventTo = 5, 5
	_, err := r.Run(cfg)
	assert.Error(t, err)

	_, err = r.Run(reportConfig([]int{-1}, []int{1}, 8))
	assert.ErrorIs(t, err, overshoot.ErrNegativeThreshold)

	_, err = r.Run(reportConfig([]int{21}, []int{-3}, 8))
	assert.ErrorIs(t, err, overshoot.ErrNonPositiveValue)

	walker := newTestRunner(t, "walk")
	_, err = walker.Run(reportConfig([]int{1000}, []int{1}, 8))
	assert.ErrorIs(t, err, overshoot.ErrThresholdTooLarge)

	cfgEngine := config.DefaultConfig().Engine
	cfgEngine.Method = "dfs"
	_, err = NewRunner(cfgEngine, logger.NewNopLogger())
	assert.ErrorIs(t, err, overshoot.ErrUnknownMethod)
}

func TestRenderText(t *testing.T) {
	r := newTestRunner(t, "memo")
	rep, err := r.Run(config.DefaultConfig().Report)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep, "text"))

	out := buf.String()
	assert.Contains(t, out, "For N = 21\n")
	assert.Contains(t, out, "For N = 1000\n")
	assert.Equal(t, 2, strings.Count(out, "When A = 11"))
	assert.Equal(t, 4, strings.Count(out, "mean = "))
	assert.Contains(t, out, "P(1 <= overshoot < 5 | 8 drawn)")
}

func TestRenderStructured(t *testing.T) {
	r := newTestRunner(t, "memo")
	rep, err := r.Run(reportConfig([]int{21}, []int{1, 11}, 8))
	require.NoError(t, err)

	var yamlBuf bytes.Buffer
	require.NoError(t, Render(&yamlBuf, rep, "YAML"))
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML.Summaries, 2)
	assert.Equal(t, 11, fromYAML.Summaries[1].Baseline)
	assert.InDelta(t, rep.Summaries[0].Mean, fromYAML.Summaries[0].Mean, tolerance)
	assert.Contains(t, yamlBuf.String(), "threshold: 21")

	var jsonBuf bytes.Buffer
	require.NoError(t, Render(&jsonBuf, rep, "json"))
	var fromJSON map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	summaries := fromJSON["summaries"].([]interface{})
	first := summaries[0].(map[string]interface{})
	assert.Equal(t, 21.0, first["threshold"])
	assert.Contains(t, first, "conditional")

	assert.Error(t, Render(&bytes.Buffer{}, rep, "csv"))
}

func TestRunWorkersKeepGridOrder(t *testing.T) {
	r := newTestRunner(t, "memo")

	cfg := reportConfig([]int{200, 1, 50, 21}, []int{1, 11}, 8)
	cfg.Workers = 1
	serial, err := r.Run(cfg)
	require.NoError(t, err)

	cfg.Workers = 8
	parallel, err := r.Run(cfg)
	require.NoError(t, err)

	require.Len(t, parallel.Summaries, 8)
	assert.Equal(t, serial.Summaries, parallel.Summaries)
	assert.Equal(t, Scenario{Threshold: 200, Baseline: 1}, parallel.Summaries[0].Scenario)
	assert.Equal(t, Scenario{Threshold: 21, Baseline: 11}, parallel.Summaries[7].Scenario)
}

func TestRunContextCancelled(t *testing.T) {
	r := newTestRunner(t, "memo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunContext(ctx, reportConfig([]int{21, 1000}, []int{1, 11}, 8))
	assert.ErrorIs(t, err, context.Canceled)
}
