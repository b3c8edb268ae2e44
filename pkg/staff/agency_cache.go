package staff

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const allAgencies = "all"

// AgencySource loads agencies from the database
type AgencySource interface {
	ListAgencies(ctx context.Context) ([]Agency, error)
	AgencyExists(ctx context.Context, id int64) (bool, error)
}

// AgencyCache is an expiring LRU in front of the agency table. Only
// positive existence results are cached, so a newly added agency is seen
// on the next lookup.
type AgencyCache struct {
	source AgencySource
	exists *lru.LRU[int64, bool]
	lists  *lru.LRU[string, []Agency]
}

// NewAgencyCache creates a cache holding up to size agencies for ttl
func NewAgencyCache(source AgencySource, size int, ttl time.Duration) *AgencyCache {
	if size <= 0 {
		size = 256
	}
	return &AgencyCache{
		source: source,
		exists: lru.NewLRU[int64, bool](size, nil, ttl),
		lists:  lru.NewLRU[string, []Agency](1, nil, ttl),
	}
}

// List returns every agency ordered by name
func (c *AgencyCache) List(ctx context.Context) ([]Agency, error) {
	if agencies, ok := c.lists.Get(allAgencies); ok {
		return agencies, nil
	}

	agencies, err := c.source.ListAgencies(ctx)
	if err != nil {
		return nil, err
	}
	c.lists.Add(allAgencies, agencies)
	for _, a := range agencies {
		c.exists.Add(a.ID, true)
	}
	return agencies, nil
}

// Exists reports whether agency id exists
func (c *AgencyCache) Exists(ctx context.Context, id int64) (bool, error) {
	if _, ok := c.exists.Get(id); ok {
		return true, nil
	}

	ok, err := c.source.AgencyExists(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		c.exists.Add(id, true)
	}
	return ok, nil
}

// Purge drops every cached entry
func (c *AgencyCache) Purge() {
	c.exists.Purge()
	c.lists.Purge()
}

// Len returns the number of agencies known to exist
func (c *AgencyCache) Len() int {
	return c.exists.Len()
}
