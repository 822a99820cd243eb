// Package report evaluates a grid of overshoot scenarios and renders the
// results.
//
// Each scenario pairs a threshold with a baseline card. For every scenario
// the runner computes the mean and standard deviation of the overshoot and,
// when the condition card is part of the deck, the probability that the
// overshoot falls in the event range given that the condition card is drawn
// at least once.
package report
