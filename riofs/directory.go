package riofs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// Directory is a TDirectory(File): a name/title pair, a pointer to its key
// block, and the keys themselves once read (spec §4.H). The root directory
// and every subdirectory share this type; a subdirectory is distinguished
// only by being reached through a key whose class is "TDirectory".
type Directory struct {
	file   *File
	name   string
	title  string
	ctime  time.Time
	mtime  time.Time

	nbyteskeys int32
	seekdir    int64
	seekparent int64
	seekkeys   int64

	keys []*Key
}

// readDirectory decodes the directory record at seekDir: a Key (holding
// the directory's own fName/fTitle, mirroring how the teacher's writer
// serializes TNamed immediately before TDirectoryFile's own fields) followed
// by the directory's version/ctime/mtime/seek fields in the same payload.
func readDirectory(ctx context.Context, file *File, seekDir int64) (*Directory, error) {
	size := file.opts.Source.BeginChunkSize
	if size < 256 {
		size = 512
	}
	chunk, err := file.fetch(ctx, seekDir, seekDir+size)
	if err != nil {
		return nil, err
	}
	buf, err := chunk.Wait()
	if err != nil {
		return nil, err
	}

	c := rbytes.NewCursor(buf, seekDir, file.path)
	key, err := ReadKey(c, file)
	if err != nil {
		return nil, fmt.Errorf("riofs: reading directory header key: %w", err)
	}

	payload, err := key.payload(ctx)
	if err != nil {
		return nil, fmt.Errorf("riofs: reading directory payload: %w", err)
	}
	pc := rbytes.NewCursor(payload, key.dataOffset, file.path)

	d := &Directory{file: file, seekdir: seekDir}
	d.name = pc.String()
	d.title = pc.String()

	version := pc.ReadI16()
	d.ctime = datimeToTime(pc.ReadU32())
	d.mtime = datimeToTime(pc.ReadU32())
	d.nbyteskeys = pc.ReadI32()
	pc.ReadI32() // nbytesname, recomputed by the writer; unused on read

	if version > 1000 {
		d.seekdir = pc.ReadI64()
		d.seekparent = pc.ReadI64()
		d.seekkeys = pc.ReadI64()
	} else {
		d.seekdir = int64(pc.ReadI32())
		d.seekparent = int64(pc.ReadI32())
		d.seekkeys = int64(pc.ReadI32())
	}
	if pc.Err() != nil {
		return nil, fmt.Errorf("riofs: decoding directory info: %w", pc.Err())
	}
	return d, nil
}

// readKeys decodes the key block at d.seekkeys: a header key (the block's
// own bookkeeping record, with no object of interest) followed by a u32 key
// count and that many Keys (spec §4.H).
func (d *Directory) readKeys(ctx context.Context) error {
	size := int64(d.nbyteskeys)
	if size <= 0 {
		size = 512
	}
	chunk, err := d.file.fetch(ctx, d.seekkeys, d.seekkeys+size)
	if err != nil {
		return err
	}
	buf, err := chunk.Wait()
	if err != nil {
		return err
	}

	c := rbytes.NewCursor(buf, d.seekkeys, d.file.path)
	if _, err := ReadKey(c, d.file); err != nil {
		return fmt.Errorf("riofs: reading key-block header: %w", err)
	}

	n := int(c.ReadU32())
	keys := make([]*Key, 0, n)
	for i := 0; i < n; i++ {
		k, err := ReadKey(c, d.file)
		if err != nil {
			return fmt.Errorf("riofs: reading key %d/%d: %w", i, n, err)
		}
		keys = append(keys, k)
	}
	if c.Err() != nil {
		return c.Err()
	}
	d.keys = keys
	return nil
}

// Name returns this directory's recorded name.
func (d *Directory) Name() string { return d.name }

// Title returns this directory's recorded title.
func (d *Directory) Title() string { return d.title }

// Keys returns the highest-cycle key for every distinct name in this
// directory, the ordinary listing view.
func (d *Directory) Keys() []*Key {
	best := map[string]*Key{}
	for _, k := range d.keys {
		if cur, ok := best[k.Name]; !ok || k.Cycle > cur.Cycle {
			best[k.Name] = k
		}
	}
	out := make([]*Key, 0, len(best))
	for _, k := range d.keys {
		if best[k.Name] == k {
			out = append(out, k)
		}
	}
	return out
}

// KeysWithCycles returns every key this directory holds, including
// superseded cycles, for callers that want the full history rather than
// just the live view (spec.md §4.H only states "highest cycle wins" for
// lookup; this restores uproot4's "keys(cycle=True)" listing mode).
func (d *Directory) KeysWithCycles() []*Key {
	out := make([]*Key, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get resolves name, "name;cycle", or a "/"-separated path recursing across
// subdirectories (spec §4.H). The highest cycle wins when none is given.
func (d *Directory) Get(ctx context.Context, namecycle string) (*rdict.Object, error) {
	head, tail, hasTail := cutPath(namecycle)
	name, cycle := splitCycle(head)

	key, err := d.findKey(name, cycle)
	if err != nil {
		return nil, err
	}

	if hasTail {
		if key.ClassName != "TDirectory" && key.ClassName != "TDirectoryFile" {
			return nil, &rbytes.KeyInFileError{
				Path:    d.file.path,
				ObjPath: namecycle,
				Key:     name,
				Cycle:   cycleOrAny(cycle),
			}
		}
		sub, err := d.openSubdir(ctx, key)
		if err != nil {
			return nil, err
		}
		return sub.Get(ctx, tail)
	}

	return d.objectFor(ctx, key)
}

// openSubdir decodes the directory reached through key, whose class is
// "TDirectory": its own header record lives at key.SeekKey, exactly the
// shape readDirectory already knows how to parse.
func (d *Directory) openSubdir(ctx context.Context, key *Key) (*Directory, error) {
	sub, err := readDirectory(ctx, d.file, key.SeekKey)
	if err != nil {
		return nil, fmt.Errorf("riofs: opening subdirectory %q: %w", key.Name, err)
	}
	if err := sub.readKeys(ctx); err != nil {
		return nil, fmt.Errorf("riofs: reading subdirectory %q keys: %w", key.Name, err)
	}
	return sub, nil
}

// objectFor decodes key's payload, consulting and populating the file's
// object cache keyed by "<uuid>:<seek_key>" (spec §4.H "Object cache").
func (d *Directory) objectFor(ctx context.Context, key *Key) (*rdict.Object, error) {
	cacheKey := fmt.Sprintf("%s:%d", d.file.uuid, key.SeekKey)
	if obj, ok := d.file.cache.Get(cacheKey); ok {
		return obj, nil
	}
	obj, err := key.Object(ctx, d.file.reg)
	if err != nil {
		return nil, err
	}
	d.file.cache.Add(cacheKey, obj)
	return obj, nil
}

// findKey looks up name among this directory's keys, matching cycle
// exactly when given, otherwise taking the highest cycle.
func (d *Directory) findKey(name, cycle string) (*Key, error) {
	var best *Key
	for _, k := range d.keys {
		if k.Name != name {
			continue
		}
		if cycle != "" {
			if strconv.Itoa(int(k.Cycle)) == cycle {
				return k, nil
			}
			continue
		}
		if best == nil || k.Cycle > best.Cycle {
			best = k
		}
	}
	if best == nil {
		return nil, &rbytes.KeyInFileError{
			Path:  d.file.path,
			Key:   name,
			Cycle: cycleOrAny(cycle),
		}
	}
	return best, nil
}

func cycleOrAny(cycle string) string {
	if cycle == "" {
		return "any"
	}
	return cycle
}

// cutPath splits namecycle on its first "/", collapsing repeated
// separators (spec.md §4.I "collapses //"), also honored here since
// Directory.Get and the TBranch navigator share the same path grammar.
func cutPath(namecycle string) (head, tail string, hasTail bool) {
	for strings.HasPrefix(namecycle, "/") {
		namecycle = namecycle[1:]
	}
	i := strings.IndexByte(namecycle, '/')
	if i < 0 {
		return namecycle, "", false
	}
	return namecycle[:i], namecycle[i+1:], true
}

// splitCycle separates "name;cycle" into its parts; cycle is "" when absent.
func splitCycle(head string) (name, cycle string) {
	i := strings.IndexByte(head, ';')
	if i < 0 {
		return head, ""
	}
	return head[:i], head[i+1:]
}
