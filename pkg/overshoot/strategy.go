package overshoot

import "slices"

// memo evaluates f(sum) for every sum from threshold-1 down to 0.
// Each f(sum) only depends on f(sum+v) for v >= 1, which is either already
// cached or at/above the threshold and therefore a unit spike. Only the last
// max(active) vectors can still be read, so the cache never holds more.
func (e *Engine) memo(active []int, weight float64) Distribution {
	if e.threshold == 0 {
		dist := e.newDistribution()
		dist[0] = 1
		return dist
	}

	window := 0
	if len(active) > 0 {
		window = slices.Max(active)
	}

	for sum := e.threshold - 1; sum >= 0; sum-- {
		vec := e.newDistribution()
		for _, v := range active {
			next := sum + v
			if next >= e.threshold {
				vec[next-e.threshold] += weight
				continue
			}
			for i, p := range e.cache[next] {
				vec[i] += weight * p
			}
		}
		e.cache[sum] = vec
		if window > 0 {
			delete(e.cache, sum+window)
		}
	}

	return Distribution(e.cache[0]).Clone()
}

// breadth pushes probability mass forward one draw at a time. Layer k holds
// the mass of every partial sum reachable in exactly k draws that is still
// below the threshold. Mass is merged per sum within a layer, but nothing is
// reused across layers.
func (e *Engine) breadth(active []int, weight float64) Distribution {
	dist := e.newDistribution()
	if e.threshold == 0 {
		dist[0] = 1
		return dist
	}

	layer := make([]float64, e.threshold)
	layer[0] = 1
	for live := true; live; {
		live = false
		next := make([]float64, e.threshold)
		for sum, p := range layer {
			if p == 0 {
				continue
			}
			for _, v := range active {
				s := sum + v
				if s >= e.threshold {
					dist[s-e.threshold] += p * weight
					continue
				}
				next[s] += p * weight
				live = true
			}
		}
		layer = next
	}

	return dist
}

// walk visits every draw sequence, adding the path probability p to dist
// once the running sum reaches the threshold.
func (e *Engine) walk(active []int, weight float64, dist Distribution, sum int, p float64) {
	if sum >= e.threshold {
		dist[sum-e.threshold] += p
		return
	}
	for _, v := range active {
		e.walk(active, weight, dist, sum+v, p*weight)
	}
}
