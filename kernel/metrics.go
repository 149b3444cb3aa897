package kernel

import "sync"

// Metrics tracks live scheduler statistics: the ready-queue depth
// distribution and a tick counter. It is grounded on the event loop's
// metrics package, which pairs a P-Square streaming quantile estimator
// with a sync.RWMutex-guarded struct rather than retaining full sample
// history; the same tradeoff applies here, since a long-running kernel
// may dispatch far more often than anyone wants to keep samples for.
type Metrics struct {
	mu            sync.RWMutex
	readyDepthP50 pSquareQuantile
	readyDepthP99 pSquareQuantile
	ticks         uint64
}

// MetricsSnapshot is a point-in-time, lock-free copy of Metrics, safe to
// read after Snapshot returns.
type MetricsSnapshot struct {
	Ticks             uint64
	ReadyDepthP50     float64
	ReadyDepthP99     float64
	ReadyDepthSamples int
}

func newMetrics() *Metrics {
	return &Metrics{
		readyDepthP50: newPSquareQuantile(0.5),
		readyDepthP99: newPSquareQuantile(0.99),
	}
}

func (m *Metrics) observeReadyDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyDepthP50.observe(float64(depth))
	m.readyDepthP99.observe(float64(depth))
}

func (m *Metrics) observeTick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks++
}

// Snapshot returns the current metrics. ReadyDepthP50 and ReadyDepthP99
// are tracked by two independent P-Square estimators fed the same sample
// stream, since the algorithm only ever tracks one quantile per marker
// set.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		Ticks:             m.ticks,
		ReadyDepthP50:     m.readyDepthP50.value(),
		ReadyDepthP99:     m.readyDepthP99.value(),
		ReadyDepthSamples: m.readyDepthP50.count,
	}
}

// pSquareQuantile implements the P² algorithm (Jain & Chlamtac, 1985) for
// estimating a single quantile from a data stream in O(1) space, the same
// algorithm the event loop's psquare.go uses for latency percentiles.
type pSquareQuantile struct {
	p         float64
	count     int
	markerPos [5]float64
	desired   [5]float64
	increment [5]float64
	height    [5]float64
	initial   [5]float64
	nInit     int
}

func newPSquareQuantile(p float64) pSquareQuantile {
	return pSquareQuantile{p: p}
}

func (q *pSquareQuantile) observe(x float64) {
	if q.nInit < 5 {
		q.initial[q.nInit] = x
		q.nInit++
		q.count++
		if q.nInit == 5 {
			q.bootstrap()
		}
		return
	}
	q.count++

	k := 0
	switch {
	case x < q.height[0]:
		q.height[0] = x
		k = 0
	case x >= q.height[4]:
		q.height[4] = x
		k = 3
	default:
		for i := 0; i < 4; i++ {
			if x < q.height[i+1] {
				k = i
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		q.markerPos[i]++
	}
	for i := 0; i < 5; i++ {
		q.desired[i] += q.increment[i]
	}

	for i := 1; i < 4; i++ {
		d := q.desired[i] - q.markerPos[i]
		if (d >= 1 && q.markerPos[i+1]-q.markerPos[i] > 1) ||
			(d <= -1 && q.markerPos[i-1]-q.markerPos[i] < -1) {
			sign := 1.0
			if d < 0 {
				sign = -1.0
			}
			q.height[i] = q.parabolic(i, sign)
			if !(q.height[i-1] < q.height[i] && q.height[i] < q.height[i+1]) {
				q.height[i] = q.linear(i, sign)
			}
			q.markerPos[i] += sign
		}
	}
}

func (q *pSquareQuantile) bootstrap() {
	h := q.initial
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			if h[j] < h[i] {
				h[i], h[j] = h[j], h[i]
			}
		}
	}
	q.height = h
	q.markerPos = [5]float64{1, 2, 3, 4, 5}
	q.desired = [5]float64{1, 1 + 2*q.p, 1 + 4*q.p, 3 + 2*q.p, 5}
	q.increment = [5]float64{0, q.p / 2, q.p, (1 + q.p) / 2, 1}
}

func (q *pSquareQuantile) parabolic(i int, d float64) float64 {
	n := q.markerPos
	h := q.height
	return h[i] + d/(n[i+1]-n[i-1])*
		((n[i]-n[i-1]+d)*(h[i+1]-h[i])/(n[i+1]-n[i])+
			(n[i+1]-n[i]-d)*(h[i]-h[i-1])/(n[i]-n[i-1]))
}

func (q *pSquareQuantile) linear(i int, d float64) float64 {
	n := q.markerPos
	h := q.height
	j := i + int(d)
	return h[i] + d*(h[j]-h[i])/(n[j]-n[i])
}

func (q *pSquareQuantile) value() float64 {
	if q.nInit < 5 {
		// Not enough samples yet for the marker estimator: fall back to
		// the exact median of what we have.
		sorted := append([]float64(nil), q.initial[:q.nInit]...)
		for i := range sorted {
			for j := i + 1; j < len(sorted); j++ {
				if sorted[j] < sorted[i] {
					sorted[i], sorted[j] = sorted[j], sorted[i]
				}
			}
		}
		if len(sorted) == 0 {
			return 0
		}
		return sorted[len(sorted)/2]
	}
	return q.height[2]
}
