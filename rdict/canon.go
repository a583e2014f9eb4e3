package rdict

import "strings"

// canonTable is the fixed substitution table spec §4.D requires before
// dispatch: ROOT's CINT/Cling typedefs collapse onto their underlying C++
// primitive spelling.
var canonTable = map[string]string{
	"Char_t":     "char",
	"UChar_t":    "unsigned char",
	"Short_t":    "short",
	"UShort_t":   "unsigned short",
	"Int_t":      "int",
	"UInt_t":     "unsigned int",
	"Long_t":     "long",
	"ULong_t":    "unsigned long",
	"Long64_t":   "long long",
	"ULong64_t":  "unsigned long long",
	"Float_t":    "float",
	"Float16_t":  "float",
	"Double_t":   "double",
	"Double32_t": "double",
	"Bool_t":     "bool",
	"Text_t":     "char",
}

// canonicalize normalizes a raw streamer typename via canonTable, leaving
// unrecognized names untouched (spec §4.D "Canonicalization").
func canonicalize(name string) string {
	name = strings.TrimSpace(name)
	if repl, ok := canonTable[name]; ok {
		return repl
	}
	return name
}
