package rtree

import "testing"

func TestNameFilter(t *testing.T) {
	f := NameFilter("pt")
	if !f(&Branch{Name: "pt"}) {
		t.Errorf("NameFilter(pt) should match branch pt")
	}
	if f(&Branch{Name: "eta"}) {
		t.Errorf("NameFilter(pt) should not match branch eta")
	}
}

func TestGlobFilter(t *testing.T) {
	f := GlobFilter("jet_*")
	if !f(&Branch{Name: "jet_pt"}) {
		t.Errorf("GlobFilter(jet_*) should match jet_pt")
	}
	if f(&Branch{Name: "muon_pt"}) {
		t.Errorf("GlobFilter(jet_*) should not match muon_pt")
	}
}

func TestSplitRegexpForm(t *testing.T) {
	for _, test := range []struct {
		pattern, expr, flags string
	}{
		{"/^jet_/i", "^jet_", "i"},
		{"/^jet_/", "^jet_", ""},
		{"plainname", "plainname", ""},
	} {
		expr, flags := splitRegexpForm(test.pattern)
		if expr != test.expr || flags != test.flags {
			t.Errorf("splitRegexpForm(%q) = (%q, %q), want (%q, %q)", test.pattern, expr, flags, test.expr, test.flags)
		}
	}
}

func TestRegexpFilterCaseInsensitive(t *testing.T) {
	f, err := RegexpFilter("/^JET_/i")
	if err != nil {
		t.Fatalf("RegexpFilter() error = %v", err)
	}
	if !f(&Branch{Name: "jet_pt"}) {
		t.Errorf("case-insensitive regexp should match jet_pt")
	}
	if f(&Branch{Name: "muon_pt"}) {
		t.Errorf("regexp should not match muon_pt")
	}
}

func TestRegexpFilterInvalidPattern(t *testing.T) {
	_, err := RegexpFilter("/[/")
	if err == nil {
		t.Fatalf("RegexpFilter() with an invalid regexp should error")
	}
}

func TestAndFilter(t *testing.T) {
	onlyPt := NameFilter("jet_pt")
	onlyJet := GlobFilter("jet_*")
	and := AndFilter(onlyJet, onlyPt)
	if !and(&Branch{Name: "jet_pt"}) {
		t.Errorf("AndFilter should match a branch satisfying both filters")
	}
	if and(&Branch{Name: "jet_eta"}) {
		t.Errorf("AndFilter should reject a branch failing one filter")
	}

	// A nil sub-filter is skipped, not treated as a non-match.
	withNil := AndFilter(onlyJet, nil)
	if !withNil(&Branch{Name: "jet_pt"}) {
		t.Errorf("AndFilter should skip nil sub-filters")
	}
}
