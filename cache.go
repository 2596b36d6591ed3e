package tessera

import (
	"sync"

	"github.com/ungerik/go3d/float64/vec3"
)

// evalKey identifies a memoized evaluation: a parameter pair and a
// derivative order. Curve entities use only the first parameter.
type evalKey struct {
	u, v  float64
	order int
}

// evalCache is a per-instance memoization table mapping evalKey to
// EvaluationResult. It is owned by one entity (never shared, never
// global) and is internally synchronized so that concurrent read-only
// evaluation on the same instance is safe. Structural mutators call
// clear with exclusive access to the entity.
type evalCache struct {
	mu sync.RWMutex
	m  map[evalKey]EvaluationResult
}

func (c *evalCache) get(k evalKey) (EvaluationResult, bool) {
	c.mu.RLock()
	res, ok := c.m[k]
	c.mu.RUnlock()
	if !ok {
		return EvaluationResult{}, false
	}

	// copy the derivative slice so callers cannot poison the cache
	if res.Derivatives != nil {
		res.Derivatives = append([]vec3.T(nil), res.Derivatives...)
	}
	return res, true
}

func (c *evalCache) put(k evalKey, res EvaluationResult) {
	if res.Derivatives != nil {
		res.Derivatives = append([]vec3.T(nil), res.Derivatives...)
	}

	c.mu.Lock()
	if c.m == nil {
		c.m = make(map[evalKey]EvaluationResult)
	}
	c.m[k] = res
	c.mu.Unlock()
}

func (c *evalCache) clear() {
	c.mu.Lock()
	c.m = nil
	c.mu.Unlock()
}
