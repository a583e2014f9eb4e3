package rdict

import (
	"fmt"

	"github.com/go-hep/groot/rbytes"
)

// BuiltinDescriptor is a hand-written reader for a bootstrap class (spec
// §4.E): TNamed, TObject, TList and the rest of rbase's built-ins, and
// rtree's TTree/TBranch/TLeaf* readers, implement this directly instead of
// going through synthesize. ReadBody is called after the generic version header has
// already been consumed by the registry.
type BuiltinDescriptor interface {
	ReadBody(c *rbytes.Cursor, reg *Registry, version int32) (*Object, error)
}

// Registry is a name -> descriptor map (spec §4.E), seeded with
// hand-written bootstrap descriptors and grown by synthesize from a
// file's TStreamerInfo records. A file-scoped Registry chains to a shared
// global one so that custom/per-file classes never leak into the global
// bootstrap pool, and schema-recovery eviction only ever touches the
// local layer.
type Registry struct {
	parent   *Registry
	fileUUID string

	builtins map[string]BuiltinDescriptor
	infos    map[string]map[int32]*StreamerInfo
	schemas  map[string]map[int32]*Schema
}

// NewRegistry returns an empty registry with no parent. riofs.Global
// creates the shared global one this way on first use, fills it with
// rbase.Register, and shares it across files.
func NewRegistry() *Registry {
	return &Registry{
		builtins: make(map[string]BuiltinDescriptor),
		infos:    make(map[string]map[int32]*StreamerInfo),
		schemas:  make(map[string]map[int32]*Schema),
	}
}

// NewFileRegistry returns a registry scoped to one file's custom_classes
// (spec §4.E), falling back to global for anything not locally defined.
func NewFileRegistry(global *Registry, fileUUID string) *Registry {
	return &Registry{
		parent:   global,
		fileUUID: fileUUID,
		builtins: make(map[string]BuiltinDescriptor),
		infos:    make(map[string]map[int32]*StreamerInfo),
		schemas:  make(map[string]map[int32]*Schema),
	}
}

// SetFileUUID stamps this registry's owning file UUID once it becomes
// known (after the TFile header has been decoded); a file-scoped Registry
// is constructed before that point, so this is set shortly after.
func (r *Registry) SetFileUUID(uuid string) { r.fileUUID = uuid }

// RegisterBuiltin installs a hand-written descriptor for class, active
// for every version (built-ins read their own version-specific fields
// internally).
func (r *Registry) RegisterBuiltin(class string, d BuiltinDescriptor) {
	r.builtins[class] = d
}

// AddStreamerInfo records a parsed TStreamerInfo, available for
// synthesize on next lookup of (si.Name, si.Version).
func (r *Registry) AddStreamerInfo(si *StreamerInfo) {
	m, ok := r.infos[si.Name]
	if !ok {
		m = make(map[int32]*StreamerInfo)
		r.infos[si.Name] = m
	}
	m[si.Version] = si
}

func (r *Registry) lookupBuiltin(class string) (BuiltinDescriptor, bool) {
	if d, ok := r.builtins[class]; ok {
		return d, true
	}
	if r.parent != nil {
		return r.parent.lookupBuiltin(class)
	}
	return nil, false
}

func (r *Registry) lookupStreamerInfo(class string, version int32) (*StreamerInfo, bool) {
	if m, ok := r.infos[class]; ok {
		if si, ok := m[version]; ok {
			return si, true
		}
	}
	if r.parent != nil {
		return r.parent.lookupStreamerInfo(class, version)
	}
	return nil, false
}

// isBootstrap reports whether class has a hand-written descriptor,
// exempting it from streamer-bug eviction.
func (r *Registry) isBootstrap(class string) bool {
	_, ok := r.lookupBuiltin(class)
	return ok
}

func (r *Registry) schemaFor(si *StreamerInfo) *Schema {
	m, ok := r.schemas[si.Name]
	if !ok {
		m = make(map[int32]*Schema)
		r.schemas[si.Name] = m
	}
	s, ok := m[si.Version]
	if !ok {
		s = synthesize(si)
		m[si.Version] = s
	}
	return s
}

// evict deletes class's locally-cached StreamerInfo and Schema (spec §4.D
// "streamer-bug recovery"), so the next lookup of class falls through to
// the parent's StreamerInfo, or to the unknown-class placeholder when the
// parent has none; the class is not re-synthesized from this file's
// TStreamerInfo list. It operates only on this registry's own layer, never
// the parent (global) one, per spec §4.E.
func (r *Registry) evict(class string) {
	delete(r.infos, class)
	delete(r.schemas, class)
}

// ReadObject reads one versioned object of the named class from c: the
// generic (byte-count, version) header, then the class body, then
// validates the frame end matches the declared byte count.
func (r *Registry) ReadObject(c *rbytes.Cursor, class string) (*Object, error) {
	start := c.Pos()
	obj, err := r.readObjectOnce(c, class)
	if err == nil {
		return obj, nil
	}
	trail := []string{class}
	if !r.evictTrail(trail) {
		return nil, err
	}
	c2 := c.Retry(start)
	obj2, err2 := r.readObjectOnce(c2, class)
	if err2 != nil {
		return nil, err // surface the original error, recovery did not help
	}
	*c = *c2
	return obj2, nil
}

// evictTrail evicts every non-bootstrap class in trail from this file's
// registry layer, reporting whether anything was actually evicted (spec
// §4.D: "if all classes on the trail are already either bootstrap or
// carry this file's UUID, the error is re-raised" — collapsed here to: no
// eviction happened, so retrying cannot possibly change the outcome).
func (r *Registry) evictTrail(trail []string) bool {
	evicted := false
	for _, class := range trail {
		if r.isBootstrap(class) {
			continue
		}
		if _, ok := r.infos[class]; ok {
			r.evict(class)
			evicted = true
		}
	}
	return evicted
}

func (r *Registry) readObjectOnce(c *rbytes.Cursor, class string) (*Object, error) {
	vh := c.ReadVersionHeader()
	if c.Err() != nil {
		return nil, c.Err()
	}

	var obj *Object
	var err error
	if builtin := r.builtinOrParent(class); builtin != nil {
		obj, err = builtin.ReadBody(c, r, int32(vh.Version))
	} else if si, ok := r.lookupStreamerInfo(class, int32(vh.Version)); ok {
		obj, err = r.schemaFor(si).Read(c, r)
	} else {
		return r.readUnknownClass(c, class, vh)
	}
	if err != nil {
		return nil, err
	}
	if vh.HasByteCount && c.Pos() != vh.End() {
		return nil, fmt.Errorf("rdict: %s v%d: expected frame end at %d, cursor at %d", class, vh.Version, vh.End(), c.Pos())
	}
	return obj, nil
}

func (r *Registry) builtinOrParent(class string) BuiltinDescriptor {
	d, _ := r.lookupBuiltin(class)
	return d
}

// readUnknownClass implements spec §4.D "Unknown classes": a placeholder
// that consumes exactly the declared byte count, or a fatal error if none
// was declared.
func (r *Registry) readUnknownClass(c *rbytes.Cursor, class string, vh rbytes.VersionHeader) (*Object, error) {
	if !vh.HasByteCount {
		return nil, &rbytes.DeserializationError{Path: "", Context: fmt.Sprintf("unknown class %q with no byte count", class), Err: fmt.Errorf("cannot skip an object of unknown size")}
	}
	n := vh.End() - c.Pos()
	raw := c.Bytes(n)
	if c.Err() != nil {
		return nil, c.Err()
	}
	return &Object{Class: "UnknownClass:" + class, Version: int32(vh.Version), Fields: map[string]any{"raw": raw}}, nil
}
