package rbytes

import "fmt"

// SourceError reports an I/O, network, or closed-handle failure while
// fetching a byte range from a Source.
type SourceError struct {
	Path        string
	Start, Stop int64
	Err         error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("rbytes: source error reading %q [%d, %d): %v", e.Path, e.Start, e.Stop, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// FormatError reports a structurally invalid file: bad magic, truncated
// header, or a declared byte range that does not match the actual one.
type FormatError struct {
	Path string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("rbytes: format error in %q: %s", e.Path, e.Msg)
}

// DeserializationError reports that a declared num_bytes did not match
// cursor movement, or that some other invariant of a synthesized or
// built-in reader was violated mid-read.
type DeserializationError struct {
	Path    string
	Context string
	Err     error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("rbytes: deserialization error in %q (%s): %v", e.Path, e.Context, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// KeyInFileError reports that a named object could not be found.
type KeyInFileError struct {
	Path, ObjPath, Key, Cycle string
}

func (e *KeyInFileError) Error() string {
	return fmt.Sprintf("rbytes: key %q (cycle %s) not found at %q in %q", e.Key, e.Cycle, e.ObjPath, e.Path)
}

// UnsupportedFeature reports a feature the library deliberately does not
// implement (memberwise containers of unsupported shape, STL of an
// unsupported kind, legacy "CS" compression, ...).
type UnsupportedFeature struct {
	Feature string
}

func (e *UnsupportedFeature) Error() string {
	return fmt.Sprintf("rbytes: unsupported feature: %s", e.Feature)
}

// UnknownInterpretation reports that a branch's interpretation could be
// inferred in shape but is not (yet) decodable. It is attached to a
// Branch as a value, not raised, so that other branches in the same tree
// remain usable; see rtree.Branch.Interpretation.
type UnknownInterpretation struct {
	Branch string
	Reason string
}

func (e *UnknownInterpretation) Error() string {
	return fmt.Sprintf("rbytes: unknown interpretation for branch %q: %s", e.Branch, e.Reason)
}
