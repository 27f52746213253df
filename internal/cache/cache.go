package cache

import (
	"github.com/brunoga/deep"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dronepath/autopilot/pkg/core"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 64

// PlanCache keeps recently loaded or saved plans so repeated imports skip
// the backend. Values are deep-copied both ways; callers may mutate what
// they get back.
type PlanCache struct {
	plans *lru.Cache[string, core.Plan]
}

func NewPlanCache(size int) *PlanCache {
	if size <= 0 {
		size = DefaultSize
	}
	// lru.New only fails on a non-positive size
	plans, _ := lru.New[string, core.Plan](size)
	return &PlanCache{plans: plans}
}

func (c *PlanCache) Get(name string) (core.Plan, bool) {
	p, ok := c.plans.Get(name)
	if !ok {
		return core.Plan{}, false
	}
	return deep.MustCopy(p), true
}

func (c *PlanCache) Add(p core.Plan) {
	c.plans.Add(p.Name, deep.MustCopy(p))
}

func (c *PlanCache) Remove(name string) {
	c.plans.Remove(name)
}

func (c *PlanCache) Reset() {
	c.plans.Purge()
}

func (c *PlanCache) Len() int {
	return c.plans.Len()
}
