package internal

import "sync"

var (
	binomMu    sync.Mutex
	binomCache = map[[2]int]float64{}
)

// Binomial returns the binomial coefficient C(n, k) as a float64,
// memoized across calls. Safe for concurrent use.
func Binomial(n, k int) float64 {
	if k == 0 {
		return 1
	}
	if n == 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}

	key := [2]int{n, k}

	binomMu.Lock()
	defer binomMu.Unlock()

	if r, ok := binomCache[key]; ok {
		return r
	}

	r := 1.0
	for d := 1; d <= k; d++ {
		r *= float64(n-d+1) / float64(d)
	}
	binomCache[key] = r

	return r
}
