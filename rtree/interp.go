package rtree

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-hep/groot/rbytes"
	"github.com/go-hep/groot/rdict"
)

// Interpretation is the per-branch decode rule inferred at open time (spec
// §4.G/§4.I): given one decompressed basket, it produces the Go-typed
// values the basket covers.
type Interpretation interface {
	Key() string
	BasketArray(bk *basket) (BasketArray, error)
}

// BasketArray is one basket's worth of decoded values. For fixed-width
// branches, Values is a flat slice with ElemsPerEntry values per entry and
// Offsets is nil. For variable-length branches, Offsets holds one
// element-index boundary per entry (len(Offsets) == entries+1) into the
// same flat Values slice (spec §4.G "AsJagged").
type BasketArray struct {
	Values        any
	Offsets       []int32
	ElemsPerEntry int
}

// slice narrows a BasketArray to the entries in [lo, hi) of the basket it
// came from, rebasing Offsets to start at zero.
func (a BasketArray) slice(lo, hi int64) BasketArray {
	if sv, ok := a.Values.(*StridedValues); ok {
		out := &StridedValues{cols: make(map[string]any, len(sv.cols)), lens: sv.lens}
		for name, col := range sv.cols {
			n := sv.lens[name]
			rv := reflect.ValueOf(col)
			out.cols[name] = rv.Slice(int(lo)*n, int(hi)*n).Interface()
		}
		return BasketArray{Values: out}
	}
	if a.Offsets != nil {
		start, end := a.Offsets[lo], a.Offsets[hi]
		rv := reflect.ValueOf(a.Values)
		offs := make([]int32, hi-lo+1)
		for i := range offs {
			offs[i] = a.Offsets[lo+int64(i)] - start
		}
		return BasketArray{Values: rv.Slice(int(start), int(end)).Interface(), Offsets: offs}
	}
	n := a.ElemsPerEntry
	if n == 0 {
		n = 1
	}
	rv := reflect.ValueOf(a.Values)
	return BasketArray{Values: rv.Slice(int(lo)*n, int(hi)*n).Interface(), ElemsPerEntry: n}
}

// unknownInterp is returned when inference fails; the error is surfaced at
// read time rather than at open time (spec §7: interpretation failures are
// a value, not a panic, since most branches of a tree are unaffected).
type unknownInterp struct{ err error }

func (u *unknownInterp) Key() string { return "Unknown" }
func (u *unknownInterp) BasketArray(bk *basket) (BasketArray, error) {
	return BasketArray{}, u.err
}

// AsDtype reinterprets a basket's raw elements of kind From as kind To
// (spec §4.G), e.g. widening a 16-bit on-disk counter to int64.
type AsDtype struct {
	From, To rbytes.Kind
}

func (a AsDtype) Key() string { return fmt.Sprintf("AsDtype(%s->%s)", a.From, a.To) }

func (a AsDtype) BasketArray(bk *basket) (BasketArray, error) {
	sz := a.From.Size()
	if sz == 0 {
		return BasketArray{}, fmt.Errorf("rtree: AsDtype: unknown kind %v", a.From)
	}
	n := len(bk.data) / sz
	raw, err := rbytes.DecodeArray(bk.data, n, a.From)
	if err != nil {
		return BasketArray{}, err
	}
	out, err := rbytes.Cast(raw, a.From, a.To)
	if err != nil {
		return BasketArray{}, err
	}
	return wrapFixed(bk, out, sz), nil
}

// AsJagged wraps an Inner interpretation whose basket carries a
// per-entry offset table (a single leaf paired with an fLeafCount
// counter branch, spec §4.G).
type AsJagged struct {
	Inner Interpretation
}

func (a AsJagged) Key() string { return "AsJagged(" + a.Inner.Key() + ")" }

func (a AsJagged) BasketArray(bk *basket) (BasketArray, error) {
	out, err := a.Inner.BasketArray(bk)
	if err != nil {
		return BasketArray{}, err
	}
	if out.Offsets == nil {
		return BasketArray{}, fmt.Errorf("rtree: AsJagged: basket %d carries no entry offsets", bk.num)
	}
	return out, nil
}

// AsStrings interprets each entry as a length-prefixed string (the layout
// TLeafC uses: one byte length, or 255 followed by a 4-byte length, then
// the bytes).
type AsStrings struct{}

func (AsStrings) Key() string { return "AsStrings" }

func (AsStrings) BasketArray(bk *basket) (BasketArray, error) {
	c := rbytes.NewCursor(bk.data, 0, "")
	var values []string
	offs := []int32{0}
	for int64(len(values)) < bk.entries && c.Err() == nil {
		values = append(values, c.String())
		offs = append(offs, int32(len(values)))
	}
	if c.Err() != nil {
		return BasketArray{}, c.Err()
	}
	return BasketArray{Values: values, Offsets: offs}, nil
}

// DoubleRange holds the [low, high, nbits] triple parsed from a
// Double32_t/Float16_t streamer title (spec §4.G truncated-float codec).
type DoubleRange struct {
	Low, High float64
	NumBits   int
	HasRange  bool
}

// AsDouble32 decodes ROOT's Double32_t truncated-float encoding: a plain
// float32 when no bit width is given; the exponent+mantissa encoding (see
// decodeTruncatedMantissa) when the title gives a bit width but no [Low,
// High] range; or, when a range is given, an nbits-wide unsigned integer
// linearly mapped onto [Low, High] by scaling by (High-Low)/(1<<NumBits).
type AsDouble32 struct {
	Range DoubleRange
}

func (AsDouble32) Key() string { return "AsDouble32" }

func (a AsDouble32) BasketArray(bk *basket) (BasketArray, error) {
	if !a.Range.HasRange || a.Range.NumBits == 0 {
		n := len(bk.data) / 4
		raw, err := rbytes.DecodeArray(bk.data, n, rbytes.KindF32)
		if err != nil {
			return BasketArray{}, err
		}
		out, err := rbytes.Cast(raw, rbytes.KindF32, rbytes.KindF64)
		if err != nil {
			return BasketArray{}, err
		}
		return wrapFixed(bk, out, 4), nil
	}
	if a.Range.Low == 0 && a.Range.High == 0 {
		vals := decodeTruncatedMantissa(bk.data, a.Range.NumBits)
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return wrapFixed(bk, out, truncatedMantissaWidth), nil
	}
	n := len(bk.data) / 4
	raw, err := rbytes.DecodeArray(bk.data, n, rbytes.KindU32)
	if err != nil {
		return BasketArray{}, err
	}
	words := raw.([]uint32)
	divisor := float64(uint64(1) << uint(a.Range.NumBits))
	vals := make([]float64, n)
	for i, w := range words {
		vals[i] = float64(w)/divisor*(a.Range.High-a.Range.Low) + a.Range.Low
	}
	return wrapFixed(bk, vals, 4), nil
}

// AsFloat16 decodes ROOT's Float16_t truncated-float encoding: a one-byte
// exponent followed by a big-endian 16-bit mantissa, reassembled into an
// IEEE-754 float32 (spec §9 "Truncated-float endianness": the two fields
// are read independently, not as a packed 24-bit word). NumBits defaults
// to 12 when the streamer title gives none.
type AsFloat16 struct {
	Range DoubleRange
}

func (AsFloat16) Key() string { return "AsFloat16" }

func (a AsFloat16) BasketArray(bk *basket) (BasketArray, error) {
	nbits := a.Range.NumBits
	if nbits == 0 {
		nbits = 12
	}
	vals := decodeTruncatedMantissa(bk.data, nbits)
	return wrapFixed(bk, vals, truncatedMantissaWidth), nil
}

// truncatedMantissaWidth is the on-disk width of ROOT's exponent+mantissa
// truncated-float encoding: a one-byte exponent followed by a big-endian
// 16-bit mantissa (used by both Double32_t and Float16_t when their
// streamer title gives no [low, high] range, only a bit width).
const truncatedMantissaWidth = 3

// decodeTruncatedMantissa reassembles ROOT's truncated-float wire format
// into IEEE-754 float32s: the low nbits+1 bits of the mantissa hold the
// magnitude (shifted into the float32 mantissa field), and the next bit up
// carries the sign (spec §9 "Truncated-float endianness": exponent and
// mantissa are read independently, not as one packed word).
func decodeTruncatedMantissa(data []byte, nbits int) []float32 {
	n := len(data) / truncatedMantissaWidth
	magMask := uint32(1)<<uint(nbits+1) - 1
	signBit := uint32(1) << uint(nbits+1)
	vals := make([]float32, n)
	for i := 0; i < n; i++ {
		off := i * truncatedMantissaWidth
		exp := uint32(data[off])
		mant := uint32(binary.BigEndian.Uint16(data[off+1:]))
		bits := exp<<23 | (mant&magMask)<<uint(23-nbits)
		v := math.Float32frombits(bits)
		if mant&signBit != 0 {
			v = -v
		}
		vals[i] = v
	}
	return vals
}

// wrapFixed packages a flat decoded slice as a BasketArray, picking up
// entry-offset boundaries from the basket when present (the branch is
// variable-length) or an elements-per-entry count otherwise.
func wrapFixed(bk *basket, values any, elemSize int) BasketArray {
	if bk.offsets != nil {
		offs := make([]int32, len(bk.offsets))
		for i, o := range bk.offsets {
			offs[i] = o / int32(elemSize)
		}
		return BasketArray{Values: values, Offsets: offs}
	}
	n := reflect.ValueOf(values).Len()
	elemsPerEntry := 1
	if bk.entries > 0 {
		elemsPerEntry = n / int(bk.entries)
	}
	if elemsPerEntry == 0 {
		elemsPerEntry = 1
	}
	return BasketArray{Values: values, ElemsPerEntry: elemsPerEntry}
}

// StridedMember is one column of a struct-of-arrays branch: several
// fixed-size leaves sharing a single branch with no fLeafCount (spec
// §4.G "multi-leaf, no fLeafCount").
type StridedMember struct {
	Name string
	Kind rbytes.Kind
	Len  int
}

// StridedValues holds one decoded column per member of an AsStridedObjects
// branch.
type StridedValues struct {
	cols map[string]any
	lens map[string]int
}

// Column returns the flat decoded slice for member name.
func (v *StridedValues) Column(name string) (any, bool) {
	c, ok := v.cols[name]
	return c, ok
}

// Names returns the member names, in no particular order.
func (v *StridedValues) Names() []string {
	out := make([]string, 0, len(v.cols))
	for name := range v.cols {
		out = append(out, name)
	}
	return out
}

// AsStridedObjects decodes a branch whose entries are the row-major
// concatenation of several same-sized leaves (spec §4.G).
type AsStridedObjects struct {
	Members []StridedMember
}

func (AsStridedObjects) Key() string { return "AsStridedObjects" }

func (a AsStridedObjects) BasketArray(bk *basket) (BasketArray, error) {
	lens := make(map[string]int, len(a.Members))
	cols := make(map[string]reflect.Value, len(a.Members))
	for _, m := range a.Members {
		lens[m.Name] = m.Len
		cols[m.Name] = reflect.MakeSlice(sliceTypeFor(m.Kind), 0, int(bk.entries)*m.Len)
	}

	pos := 0
	for e := int64(0); e < bk.entries; e++ {
		for _, m := range a.Members {
			sz := m.Kind.Size() * m.Len
			if pos+sz > len(bk.data) {
				return BasketArray{}, fmt.Errorf("rtree: AsStridedObjects: short basket %d data for member %q", bk.num, m.Name)
			}
			raw, err := rbytes.DecodeArray(bk.data[pos:pos+sz], m.Len, m.Kind)
			if err != nil {
				return BasketArray{}, err
			}
			cols[m.Name] = reflect.AppendSlice(cols[m.Name], reflect.ValueOf(raw))
			pos += sz
		}
	}

	out := &StridedValues{cols: make(map[string]any, len(cols)), lens: lens}
	for name, cv := range cols {
		out.cols[name] = cv.Interface()
	}
	return BasketArray{Values: out}, nil
}

func sliceTypeFor(k rbytes.Kind) reflect.Type {
	switch k {
	case rbytes.KindBool:
		return reflect.TypeOf([]bool(nil))
	case rbytes.KindI8:
		return reflect.TypeOf([]int8(nil))
	case rbytes.KindU8:
		return reflect.TypeOf([]uint8(nil))
	case rbytes.KindI16:
		return reflect.TypeOf([]int16(nil))
	case rbytes.KindU16:
		return reflect.TypeOf([]uint16(nil))
	case rbytes.KindI32:
		return reflect.TypeOf([]int32(nil))
	case rbytes.KindU32:
		return reflect.TypeOf([]uint32(nil))
	case rbytes.KindI64:
		return reflect.TypeOf([]int64(nil))
	case rbytes.KindU64:
		return reflect.TypeOf([]uint64(nil))
	case rbytes.KindF32:
		return reflect.TypeOf([]float32(nil))
	case rbytes.KindF64:
		return reflect.TypeOf([]float64(nil))
	default:
		return reflect.TypeOf([]byte(nil))
	}
}

// leafTypeDouble32 and leafTypeFloat16 mirror TStreamerElement's own
// kDouble32/kFloat16 codes (19, 502): TLeafElement.fType is copied
// straight from the streamer element describing the same member, so the
// same raw constants identify a truncated-float leaf.
const (
	leafTypeDouble32 = 19
	leafTypeFloat16  = 502
)

// inferInterpretation picks an Interpretation for a branch from its
// leaves, per the bullet list in spec §4.G.
func inferInterpretation(b *Branch) Interpretation {
	if len(b.leaves) == 0 {
		return &unknownInterp{err: fmt.Errorf("rtree: branch %q has no leaves", b.Name)}
	}

	if len(b.leaves) > 1 {
		members := make([]StridedMember, 0, len(b.leaves))
		for _, lf := range b.leaves {
			if lf == nil {
				return &unknownInterp{err: fmt.Errorf("rtree: branch %q: nil leaf entry", b.Name)}
			}
			k, ok := leafKind(lf)
			if !ok {
				return &unknownInterp{err: fmt.Errorf("rtree: branch %q: leaf %q has unsupported kind", b.Name, lf.FieldString("fName"))}
			}
			ln := 1
			if v, ok := lf.FieldInt("fLen"); ok && v > 0 {
				ln = int(v)
			}
			members = append(members, StridedMember{Name: lf.FieldString("fName"), Kind: k, Len: ln})
		}
		return AsStridedObjects{Members: members}
	}

	lf := b.leaves[0]
	if lf == nil {
		return &unknownInterp{err: fmt.Errorf("rtree: branch %q: nil leaf entry", b.Name)}
	}

	if lf.Class == "TLeafElement" {
		if ft, ok := lf.FieldInt("fType"); ok {
			switch ft {
			case leafTypeDouble32:
				rng, _ := parseDoubleRange(lf.FieldString("fTitle"))
				return AsDouble32{Range: rng}
			case leafTypeFloat16:
				rng, _ := parseDoubleRange(lf.FieldString("fTitle"))
				return AsFloat16{Range: rng}
			}
		}
	}

	k, ok := leafKind(lf)
	if !ok {
		return &unknownInterp{err: fmt.Errorf("rtree: branch %q: unsupported leaf kind", b.Name)}
	}

	if cnt, ok := lf.Field("fLeafCount"); ok && cnt != nil {
		return AsJagged{Inner: AsDtype{From: k, To: k}}
	}
	return AsDtype{From: k, To: k}
}

func leafKind(lf *rdict.Object) (rbytes.Kind, bool) {
	if v, ok := lf.Field("kind"); ok {
		k, ok := v.(rbytes.Kind)
		return k, ok
	}
	if lf.Class == "TLeafElement" {
		if ft, ok := lf.FieldInt("fType"); ok {
			return kindForLeafElementType(ft)
		}
	}
	return 0, false
}

// kindForLeafElementType maps a TLeafElement's raw fType (mirroring
// TStreamerElement's kBasicType codes) onto the primitive Kind used to
// decode its baskets.
func kindForLeafElementType(t int64) (rbytes.Kind, bool) {
	switch t {
	case 1: // kChar
		return rbytes.KindI8, true
	case 2: // kShort
		return rbytes.KindI16, true
	case 3: // kInt
		return rbytes.KindI32, true
	case 4: // kLong, kLong64
		return rbytes.KindI64, true
	case 5: // kFloat
		return rbytes.KindF32, true
	case 8: // kDouble
		return rbytes.KindF64, true
	case 11: // kUChar
		return rbytes.KindU8, true
	case 12: // kUShort
		return rbytes.KindU16, true
	case 13: // kUInt
		return rbytes.KindU32, true
	case 14: // kULong, kULong64
		return rbytes.KindU64, true
	case 15: // kBool
		return rbytes.KindBool, true
	case leafTypeDouble32:
		return rbytes.KindF32, true
	default:
		return 0, false
	}
}

// parseDoubleRange extracts the "[low, high]" or "[low, high, nbits]"
// triple ROOT embeds in a Double32_t/Float16_t member's streamer title,
// supporting the "pi" constant and +-*/ arithmetic ROOT itself accepts
// there.
func parseDoubleRange(title string) (DoubleRange, bool) {
	lb := strings.IndexByte(title, '[')
	rb := strings.IndexByte(title, ']')
	if lb < 0 || rb < 0 || rb < lb {
		return DoubleRange{}, false
	}
	parts := strings.Split(title[lb+1:rb], ",")
	if len(parts) < 2 {
		return DoubleRange{}, false
	}
	low, err := evalRangeExpr(parts[0])
	if err != nil {
		return DoubleRange{}, false
	}
	high, err := evalRangeExpr(parts[1])
	if err != nil {
		return DoubleRange{}, false
	}
	rng := DoubleRange{Low: low, High: high, HasRange: true}
	if len(parts) >= 3 {
		if nb, err := strconv.Atoi(strings.TrimSpace(parts[2])); err == nil {
			rng.NumBits = nb
		}
	}
	return rng, true
}

func evalRangeExpr(s string) (float64, error) {
	p := &exprParser{s: s}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	return v, nil
}

// exprParser is a minimal recursive-descent evaluator for the arithmetic
// ROOT allows inside a Double32_t/Float16_t title range: +, -, *, /, unary
// minus, parentheses, and the "pi" constant.
type exprParser struct {
	s string
	i int
}

func (p *exprParser) peek() byte {
	if p.i < len(p.s) {
		return p.s[p.i]
	}
	return 0
}

func (p *exprParser) skipSpace() {
	for p.i < len(p.s) && p.s[p.i] == ' ' {
		p.i++
	}
}

func (p *exprParser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.i++
			t, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v += t
		case '-':
			p.i++
			t, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			v -= t
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.i++
			t, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			v *= t
		case '/':
			p.i++
			t, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if t == 0 {
				return 0, fmt.Errorf("rtree: division by zero in range expression %q", p.s)
			}
			v /= t
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpace()
	switch p.peek() {
	case '-':
		p.i++
		v, err := p.parseUnary()
		return -v, err
	case '+':
		p.i++
		return p.parseUnary()
	default:
		return p.parseAtom()
	}
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.i++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("rtree: unbalanced parens in range expression %q", p.s)
		}
		p.i++
		return v, nil
	}
	if strings.HasPrefix(p.s[p.i:], "pi") {
		p.i += 2
		return math.Pi, nil
	}
	start := p.i
	for p.i < len(p.s) && (isDigit(p.s[p.i]) || p.s[p.i] == '.' || p.s[p.i] == 'e' || p.s[p.i] == 'E') {
		p.i++
	}
	if p.i == start {
		return 0, fmt.Errorf("rtree: cannot parse number at %q", p.s[start:])
	}
	return strconv.ParseFloat(p.s[start:p.i], 64)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
