package rdict

import "testing"

func TestDecodeEKind(t *testing.T) {
	for _, test := range []struct {
		name     string
		rawType  int32
		isBase   bool
		want     EKind
	}{
		{"base", rawInt, true, KindBase},
		{"plain int", rawInt, false, KindBasicType},
		{"fixed array of int, offset 3", rawOffsetL + 3, false, KindBasicType},
		{"basic pointer", rawOffsetP + 3, false, KindBasicPointer},
		{"stl", rawSTL, false, KindSTL},
		{"stl pointer", rawSTLp, false, KindSTL},
		{"stl string", rawSTLstring, false, KindSTLstring},
		{"stream loop", rawStreamLoop, false, KindLoop},
		{"tstring", rawTString, false, KindString},
		{"char star", rawCharStar, false, KindString},
		{"objectp", rawObjectp, false, KindObjectPointer},
		{"anyp", rawAnyp, false, KindObjectPointer},
		{"objectP", rawObjectP, false, KindObjectAnyPointer},
		{"anyP", rawAnyP, false, KindObjectAnyPointer},
		{"object", rawObject, false, KindObject},
		{"any", rawAny, false, KindObject},
		{"tobject", rawTObject, false, KindObject},
		{"tnamed", rawTNamed, false, KindObject},
		{"artificial", rawArtificial, false, KindArtificial},
	} {
		t.Run(test.name, func(t *testing.T) {
			if got := decodeEKind(test.rawType, test.isBase); got != test.want {
				t.Errorf("decodeEKind(%d, %v) = %v, want %v", test.rawType, test.isBase, got, test.want)
			}
		})
	}
}

func TestEKindString(t *testing.T) {
	if KindBase.String() != "Base" {
		t.Errorf("KindBase.String() = %q, want Base", KindBase.String())
	}
	if EKind(255).String() != "Unknown" {
		t.Errorf("unknown EKind.String() = %q, want Unknown", EKind(255).String())
	}
}
