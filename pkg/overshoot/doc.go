// Package overshoot computes the overshoot distribution of a stopping sum.
//
// Cards are drawn independently and uniformly (with replacement) from a fixed
// draw-value set and added to a running sum. The process stops as soon as the
// sum meets or exceeds a threshold; the overshoot is the amount by which it
// does so. The engine returns the probability of every overshoot in
// 0..max(card)-1.
//
// Three evaluation strategies are available:
//   - MethodMemo: bottom-up dynamic programming over partial sums (default)
//   - MethodBreadth: layer-by-layer expansion of reachable partial sums
//   - MethodWalk: exhaustive depth-first walk, only for small thresholds
//
// Usage:
//
//	eng, err := overshoot.New(overshoot.StandardDeck(1), 21)
//	if err != nil {
//		return err
//	}
//	dist, err := eng.Calculate()
//	mean, sd, err := eng.MeanSD()
//
//	// Drop the 8 from this run only; excluded draws keep their weight
//	// and end the path, so dist.Sum() is P(8 never drawn).
//	dist, err = eng.Calculate(
//		overshoot.Exclude(8),
//		overshoot.WithWeighting(overshoot.WeightFull),
//	)
//
// An Engine caches partial results between the steps of one calculation and
// is not safe for concurrent use.
package overshoot
