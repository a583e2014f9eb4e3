// Package rdict implements the streamer engine of spec §4.D: parsing
// TStreamerInfo records, synthesizing a per-class reader from them, and
// dispatching reads by (class, version). The registry of spec §4.E also
// lives here, since both built-in and synthesized descriptors share one
// name->descriptor map.
package rdict

// EKind classifies one StreamerElement's on-disk shape (spec §4.D). ROOT
// itself encodes this information as a larger numeric fType on each
// element record; decodeEKind buckets that raw code into these categories
// so the synthesizer only has to switch on twelve cases instead of ROOT's
// full fType space.
type EKind uint8

const (
	KindBase EKind = iota
	KindBasicType
	KindBasicPointer
	KindLoop
	KindSTL
	KindSTLstring
	KindObject
	KindObjectAny
	KindObjectPointer
	KindObjectAnyPointer
	KindString
	KindArtificial
)

func (k EKind) String() string {
	switch k {
	case KindBase:
		return "Base"
	case KindBasicType:
		return "BasicType"
	case KindBasicPointer:
		return "BasicPointer"
	case KindLoop:
		return "Loop"
	case KindSTL:
		return "STL"
	case KindSTLstring:
		return "STLstring"
	case KindObject:
		return "Object"
	case KindObjectAny:
		return "ObjectAny"
	case KindObjectPointer:
		return "ObjectPointer"
	case KindObjectAnyPointer:
		return "ObjectAnyPointer"
	case KindString:
		return "String"
	case KindArtificial:
		return "Artificial"
	default:
		return "Unknown"
	}
}

// ROOT's raw TStreamerElement::fType codes, bucketed by decodeEKind. The
// numeric values below are ROOT's own (TStreamerInfo.h / TVirtualStreamerInfo
// kBase..kSTLstring constants); this table exists only to map them onto the
// coarser EKind categories the synthesizer consumes.
const (
	rawBase          = 0
	rawChar          = 1
	rawShort         = 2
	rawInt           = 3
	rawLong          = 4
	rawFloat         = 5
	rawCounter       = 6
	rawCharStar      = 7
	rawDouble        = 8
	rawUChar         = 11
	rawUShort        = 12
	rawUInt          = 13
	rawULong         = 14
	rawBool          = 15
	rawBits          = 16
	rawLong64        = 17
	rawULong64       = 18
	rawDouble32      = 19
	rawOffsetL       = 20
	rawOffsetP       = 40
	rawObject        = 61
	rawAny           = 62
	rawObjectp       = 63
	rawObjectP       = 64
	rawTString       = 65
	rawTObject       = 66
	rawTNamed        = 67
	rawAnyp          = 70
	rawAnyP          = 71
	rawAnyPnoVT      = 72
	rawSTLp          = 74
	rawSkip          = 100
	rawStreamer      = 500
	rawStreamLoop    = 501
	rawFloat16       = 502
	rawSTL           = 300
	rawSTLstring     = 365
	rawArtificial    = 499
)

// decodeEKind buckets a raw fType value (after stripping the ×20 array
// offset) into the twelve synthesizer-relevant categories.
func decodeEKind(rawType int32, isBase bool) EKind {
	if isBase {
		return KindBase
	}
	t := rawType
	for t >= rawOffsetL && t < rawOffsetL+20 {
		t -= rawOffsetL
	}
	switch {
	case t == rawSTLstring:
		return KindSTLstring
	case t == rawSTL || t == rawSTLp:
		return KindSTL
	case t == rawStreamLoop:
		return KindLoop
	case t == rawTString || t == rawCharStar:
		return KindString
	case t == rawObjectp || t == rawAnyp:
		return KindObjectPointer
	case t == rawObjectP || t == rawAnyP || t == rawAnyPnoVT:
		return KindObjectAnyPointer
	case t == rawAny || t == rawObject || t == rawTObject || t == rawTNamed:
		return KindObject
	case t == rawArtificial:
		return KindArtificial
	case isBasicPointerCode(rawType):
		return KindBasicPointer
	default:
		return KindBasicType
	}
}

func isBasicPointerCode(t int32) bool {
	return t >= rawOffsetP && t < rawOffsetP+20
}
