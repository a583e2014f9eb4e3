package rtree

import (
	"github.com/go-hep/groot/rdict"
	"github.com/go-hep/groot/riofs"
)

// Register wires the TTree/TBranch/TLeaf* bootstrap classes into reg
// (spec §4.E). TBasket is deliberately not registered here: baskets are
// never reached through the registry's generic read_object_any dispatch,
// only fetched directly by seek position via readBasket, so a
// BuiltinDescriptor for it would never run.
func Register(reg *rdict.Registry) {
	registerTree(reg)
}

// init extends the shared bootstrap registry with the TTree family as
// soon as this package is linked in, so riofs.Global() alone is never
// enough to read a TTree but any program importing rtree gets it for
// free without an explicit wiring call.
func init() {
	Register(riofs.Global())
}
