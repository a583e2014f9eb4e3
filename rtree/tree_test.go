package rtree

import "testing"

func newTestTree() *Tree {
	jetPt := &Branch{Name: "pt"}
	jetEta := &Branch{Name: "eta"}
	jet := &Branch{Name: "jet", Branches: []*Branch{jetPt, jetEta}}
	muonPt := &Branch{Name: "pt"}
	muon := &Branch{Name: "muon", Branches: []*Branch{muonPt}}
	return &Tree{Name: "Events", Branches: []*Branch{jet, muon}}
}

func TestTreeBranchTopLevelAndNested(t *testing.T) {
	tree := newTestTree()
	if _, ok := tree.Branch("jet"); !ok {
		t.Errorf("Branch(jet) not found")
	}
	if b, ok := tree.Branch("jet/pt"); !ok || b.Name != "pt" {
		t.Errorf("Branch(jet/pt) = %v, %v", b, ok)
	}
	if _, ok := tree.Branch("missing"); ok {
		t.Errorf("Branch(missing) should not be found")
	}
}

func TestTreeAllBranchesFlattensDepthFirst(t *testing.T) {
	tree := newTestTree()
	all := tree.allBranches()
	if len(all) != 5 {
		t.Fatalf("allBranches() returned %d branches, want 5", len(all))
	}
	if all[0].Name != "jet" || all[1].Name != "pt" || all[2].Name != "eta" {
		t.Errorf("allBranches() order = %v", namesOf(all))
	}
}

func namesOf(bs []*Branch) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

func TestTreeSelectBranchesByName(t *testing.T) {
	tree := newTestTree()
	got, err := tree.selectBranches([]string{"jet/pt", "muon/pt"})
	if err != nil {
		t.Fatalf("selectBranches() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("selectBranches() returned %d branches, want 2", len(got))
	}
}

func TestTreeSelectBranchesUnknownName(t *testing.T) {
	tree := newTestTree()
	if _, err := tree.selectBranches([]string{"nope"}); err == nil {
		t.Fatalf("selectBranches() with an unknown name should error")
	}
}

func TestTreeSelectBranchesEmptyNamesWithFilter(t *testing.T) {
	tree := newTestTree()
	got, err := tree.selectBranches(nil, GlobFilter("j*"))
	if err != nil {
		t.Fatalf("selectBranches() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "jet" {
		t.Errorf("selectBranches(nil, GlobFilter(j*)) = %v, want [jet]", namesOf(got))
	}

	got2, err := tree.selectBranches(nil, NameFilter("pt"))
	if err != nil {
		t.Fatalf("selectBranches() error = %v", err)
	}
	if len(got2) != 2 {
		t.Errorf("selectBranches(nil, NameFilter(pt)) matched %d, want 2", len(got2))
	}
}
