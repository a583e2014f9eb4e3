package rtree

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// basketCacheKey identifies one basket by the branch it belongs to and its
// index within that branch's basket array.
type basketCacheKey struct {
	branch string
	num    int
}

// BasketCache caches decoded baskets across repeated reads of overlapping
// entry ranges (spec §5 "basket cache"), keyed by (branch, basket number)
// and bounded by entry count rather than byte size since basket sizes
// vary widely across branches.
type BasketCache struct {
	cache *lru.Cache[basketCacheKey, *basket]
}

// NewBasketCache builds a cache holding up to size decoded baskets.
func NewBasketCache(size int) (*BasketCache, error) {
	c, err := lru.New[basketCacheKey, *basket](size)
	if err != nil {
		return nil, err
	}
	return &BasketCache{cache: c}, nil
}

func (c *BasketCache) get(branch string, num int) (*basket, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(basketCacheKey{branch: branch, num: num})
}

func (c *BasketCache) put(branch string, num int, bk *basket) {
	if c == nil {
		return
	}
	c.cache.Add(basketCacheKey{branch: branch, num: num}, bk)
}
