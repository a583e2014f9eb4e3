package rtree

import (
	"context"
	"fmt"
	"iter"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
	"github.com/go-hep/groot/riofs"
)

// tTreeDescriptor reads TTree's body (spec §4.E bootstrap list). TTree's
// real on-disk layout carries many bookkeeping scalars this library has no
// use for (autosave/autoflush thresholds, cluster ranges, timer
// intervals); they are still consumed here, in declaration order, purely
// to keep the cursor aligned ahead of fBranches/fLeaves, which is all the
// navigator actually reads.
type tTreeDescriptor struct{}

func (tTreeDescriptor) ReadBody(c *rbytes.Cursor, reg *rdict.Registry, version int32) (*rdict.Object, error) {
	named, err := reg.ReadObject(c, "TNamed")
	if err != nil {
		return nil, fmt.Errorf("rtree: TTree TNamed base: %w", err)
	}
	for _, base := range []string{"TAttLine", "TAttFill", "TAttMarker"} {
		if _, err := reg.ReadObject(c, base); err != nil {
			return nil, fmt.Errorf("rtree: TTree %s base: %w", base, err)
		}
	}

	fields := map[string]any{
		"fName":  named.FieldString("fName"),
		"fTitle": named.FieldString("fTitle"),
	}

	fields["fEntries"] = c.ReadI64()
	fields["fTotBytes"] = c.ReadI64()
	fields["fZipBytes"] = c.ReadI64()
	fields["fSavedBytes"] = c.ReadI64()
	if version >= 18 {
		fields["fFlushedBytes"] = c.ReadI64()
	}
	fields["fWeight"] = c.ReadF64()
	fields["fTimerInterval"] = c.ReadI32()
	fields["fScanField"] = c.ReadI32()
	fields["fUpdate"] = c.ReadI32()
	if version >= 18 {
		fields["fDefaultEntryOffsetLen"] = c.ReadI32()
	}
	if version >= 19 {
		nRange := c.ReadI64()
		fields["fNClusterRange"] = nRange
		fields["fClusterRangeEnd"] = c.Array(int(nRange), rbytes.KindI64)
		fields["fClusterSize"] = c.Array(int(nRange), rbytes.KindI64)
	}
	fields["fMaxEntries"] = c.ReadI64()
	fields["fMaxEntryLoop"] = c.ReadI64()
	fields["fMaxVirtualSize"] = c.ReadI64()
	fields["fAutoSave"] = c.ReadI64()
	if version >= 16 {
		fields["fAutoFlush"] = c.ReadI64()
	}
	fields["fEstimate"] = c.ReadI64()

	if version >= 19 {
		iof, err := reg.ReadObject(c, "ROOT::TIOFeatures")
		if err != nil {
			return nil, fmt.Errorf("rtree: TTree fIOFeatures: %w", err)
		}
		fields["fIOFeatures"] = iof
	}

	branches, err := reg.ReadObject(c, "TObjArray")
	if err != nil {
		return nil, fmt.Errorf("rtree: TTree fBranches: %w", err)
	}
	fields["fBranches"] = branches

	leaves, err := reg.ReadObject(c, "TObjArray")
	if err != nil {
		return nil, fmt.Errorf("rtree: TTree fLeaves: %w", err)
	}
	fields["fLeaves"] = leaves

	for _, name := range []string{"fAliases", "fIndexValues", "fIndex", "fTreeIndex", "fFriends", "fUserInfo", "fBranchRef"} {
		v, err := reg.ReadObjectAny(c)
		if err != nil {
			return nil, fmt.Errorf("rtree: TTree %s: %w", name, err)
		}
		fields[name] = v
	}

	if c.Err() != nil {
		return nil, c.Err()
	}
	return &rdict.Object{Class: "TTree", Version: version, Fields: fields}, nil
}

func registerTree(reg *rdict.Registry) {
	registerLeaves(reg)
	reg.RegisterBuiltin("TBranch", tBranchDescriptor{})
	reg.RegisterBuiltin("TBranchElement", tBranchElementDescriptor{})
	reg.RegisterBuiltin("TTree", tTreeDescriptor{})
}

// Tree is the navigable wrapper around a decoded TTree Object (spec
// §3/§6): entry count, top-level branches, and the Arrays/Iterate
// reading entry points.
type Tree struct {
	file    *riofs.File
	obj     *rdict.Object
	Name    string
	Entries int64

	Branches []*Branch

	basketCache *BasketCache
	library     Library
}

// TreeOption configures Open.
type TreeOption func(*Tree)

// WithBasketCache attaches a basket cache shared across this tree's
// branches.
func WithBasketCache(cache *BasketCache) TreeOption {
	return func(t *Tree) { t.basketCache = cache }
}

// WithLibrary overrides the default NumpyLikeLibrary used by Arrays and
// Iterate.
func WithLibrary(lib Library) TreeOption {
	return func(t *Tree) { t.library = lib }
}

// Open decodes obj (as produced by a Key carrying class "TTree") into a
// navigable Tree bound to file.
func Open(file *riofs.File, obj *rdict.Object, opts ...TreeOption) (*Tree, error) {
	if obj.Class != "TTree" {
		return nil, fmt.Errorf("rtree: object is a %q, not a TTree", obj.Class)
	}
	t := &Tree{file: file, obj: obj, Name: obj.FieldString("fName"), library: NumpyLikeLibrary{}}
	if n, ok := obj.FieldInt("fEntries"); ok {
		t.Entries = n
	}
	for _, opt := range opts {
		opt(t)
	}

	branchesField, ok := obj.Field("fBranches")
	if !ok {
		return nil, fmt.Errorf("rtree: TTree %q has no fBranches", t.Name)
	}
	for _, entry := range objArrayOf(branchesField) {
		if entry == nil {
			continue
		}
		b, err := newBranch(file, t, nil, entry)
		if err != nil {
			return nil, fmt.Errorf("rtree: tree %q: %w", t.Name, err)
		}
		t.Branches = append(t.Branches, b)
	}
	return t, nil
}

// Branch looks up a (possibly nested "a/b/c") branch path among this
// tree's top-level branches.
func (t *Tree) Branch(path string) (*Branch, bool) {
	if found, ok := (&Branch{Branches: t.Branches}).find(path); ok {
		return found, true
	}
	for _, b := range t.Branches {
		if b.Name == path {
			return b, true
		}
		if found, ok := b.find(path); ok {
			return found, true
		}
	}
	return nil, false
}

// allBranches flattens the branch tree, depth first.
func (t *Tree) allBranches() []*Branch {
	var out []*Branch
	var walk func(*Branch)
	walk = func(b *Branch) {
		out = append(out, b)
		for _, sub := range b.Branches {
			walk(sub)
		}
	}
	for _, b := range t.Branches {
		walk(b)
	}
	return out
}

// selectBranches resolves names (exact paths) or, when names is empty,
// every branch, then applies extra filters (spec §4.I).
func (t *Tree) selectBranches(names []string, filters ...Filter) ([]*Branch, error) {
	var candidates []*Branch
	if len(names) == 0 {
		candidates = t.allBranches()
	} else {
		for _, name := range names {
			b, ok := t.Branch(name)
			if !ok {
				return nil, fmt.Errorf("rtree: tree %q: no such branch %q", t.Name, name)
			}
			candidates = append(candidates, b)
		}
	}
	if len(filters) == 0 {
		return candidates, nil
	}
	filter := AndFilter(filters...)
	out := candidates[:0:0]
	for _, b := range candidates {
		if filter(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ArraysOption configures Tree.Arrays/Tree.Iterate's branch selection.
type ArraysOption func(*arraysConfig)

type arraysConfig struct {
	filters []Filter
	library Library
}

// WithFilter adds a Filter further restricting which selected branches
// are materialized.
func WithFilter(f Filter) ArraysOption {
	return func(c *arraysConfig) { c.filters = append(c.filters, f) }
}

// WithArraysLibrary overrides the tree's default Library for one call.
func WithArraysLibrary(lib Library) ArraysOption {
	return func(c *arraysConfig) { c.library = lib }
}

// Arrays materializes the named branches' entries in [entryStart,
// entryStop) (spec §3.6): an empty names list selects every branch.
func (t *Tree) Arrays(ctx context.Context, names []string, entryStart, entryStop int64, opts ...ArraysOption) (map[string]any, error) {
	cfg := arraysConfig{library: t.library}
	for _, opt := range opts {
		opt(&cfg)
	}
	branches, err := t.selectBranches(names, cfg.filters...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(branches))
	for _, b := range branches {
		v, err := b.Array(ctx, entryStart, entryStop, cfg.library)
		if err != nil {
			return nil, err
		}
		out[b.Name] = v
	}
	return out, nil
}

// Range is one step of Tree.Iterate: the half-open entry interval the
// accompanying arrays cover.
type Range struct {
	Start, Stop int64
}

// Iterate steps through the tree in chunks of stepSize entries, yielding
// each Range alongside the materialized arrays for it (spec §3.6, Go
// 1.23 range-over-func). Iteration stops early if the consuming loop
// breaks, or if materializing a step fails: Iterate then yields that
// step's Range with a nil map and stops. The error itself is not
// returned to the caller.
func (t *Tree) Iterate(ctx context.Context, names []string, stepSize int64, opts ...ArraysOption) iter.Seq2[Range, map[string]any] {
	return func(yield func(Range, map[string]any) bool) {
		if stepSize <= 0 {
			stepSize = t.Entries
			if stepSize <= 0 {
				return
			}
		}
		for start := int64(0); start < t.Entries; start += stepSize {
			stop := start + stepSize
			if stop > t.Entries {
				stop = t.Entries
			}
			arrays, err := t.Arrays(ctx, names, start, stop, opts...)
			if err != nil {
				yield(Range{Start: start, Stop: stop}, nil)
				return
			}
			if !yield(Range{Start: start, Stop: stop}, arrays) {
				return
			}
		}
	}
}
