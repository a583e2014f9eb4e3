// Package rbase provides the hand-written bootstrap descriptors of spec
// §4.E: the built-in classes every ROOT file needs before a single
// TStreamerInfo has been parsed (TObject, TNamed, the TList family, the
// fixed-size TArray family, the TAtt mixins). Each reads exactly the
// members of its declared version, the same way the teacher's
// `rootio/file.go` hand-decoded TKey and TDirectory before any generic
// streamer machinery existed.
package rbase

import "github.com/go-hep/groot/rdict"

// Register installs every bootstrap descriptor this package defines into
// reg, meant to be called once on the shared global registry (spec §4.E:
// "seeded with hand-written descriptors for bootstrap classes").
func Register(reg *rdict.Registry) {
	reg.RegisterBuiltin("TObject", tObjectDescriptor{})
	reg.RegisterBuiltin("TNamed", tNamedDescriptor{})
	reg.RegisterBuiltin("TString", tStringDescriptor{})
	reg.RegisterBuiltin("TObjString", tObjStringDescriptor{})

	reg.RegisterBuiltin("TList", tListDescriptor{})
	reg.RegisterBuiltin("THashList", tListDescriptor{}) // same on-disk layout as TList
	reg.RegisterBuiltin("TObjArray", tObjArrayDescriptor{})

	reg.RegisterBuiltin("TArrayC", tArrayDescriptor{elemKindI8})
	reg.RegisterBuiltin("TArrayS", tArrayDescriptor{elemKindI16})
	reg.RegisterBuiltin("TArrayI", tArrayDescriptor{elemKindI32})
	reg.RegisterBuiltin("TArrayL", tArrayDescriptor{elemKindI64})
	reg.RegisterBuiltin("TArrayL64", tArrayDescriptor{elemKindI64})
	reg.RegisterBuiltin("TArrayF", tArrayDescriptor{elemKindF32})
	reg.RegisterBuiltin("TArrayD", tArrayDescriptor{elemKindF64})

	reg.RegisterBuiltin("TAttLine", tAttLineDescriptor{})
	reg.RegisterBuiltin("TAttFill", tAttFillDescriptor{})
	reg.RegisterBuiltin("TAttMarker", tAttMarkerDescriptor{})

	reg.RegisterBuiltin("ROOT::TIOFeatures", tIOFeaturesDescriptor{})
}
