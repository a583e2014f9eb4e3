package riofs

import (
	"sync"

	"github.com/go-hep/groot/rbase"
	"github.com/go-hep/groot/rdict"
)

var (
	globalOnce sync.Once
	globalReg  *rdict.Registry
)

// Global returns the shared bootstrap registry (spec §4.E "global"),
// built under a one-shot initializer (spec §5 "the streamer table is
// built under a one-shot initializer"). When rtree is linked into the
// program, its package init calls rtree.Register on this registry, adding
// the TTree family; riofs itself only needs the rbase bootstrap set to read a file's
// directory structure and streamer infos.
func Global() *rdict.Registry {
	globalOnce.Do(func() {
		globalReg = rdict.NewRegistry()
		rbase.Register(globalReg)
	})
	return globalReg
}
