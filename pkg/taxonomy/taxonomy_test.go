package taxonomy

import "testing"

func TestLiaisonFor(t *testing.T) {
	tax := Default()
	cases := map[string]string{
		CategoryUnassigned: LiaisonA,
		Quality:            LiaisonA,
		Legal:              LiaisonA,
		RnD:                LiaisonB,
		Facilities:         LiaisonB,
		SupplyChain:        LiaisonC,
		Safety:             LiaisonC,
		Contract:           LiaisonD,
		HR:                 LiaisonE,
		Admin:              LiaisonE,
		GeneralAffair:      LiaisonE,
		"not a category":   LiaisonA,
	}
	for category, want := range cases {
		if got := tax.LiaisonFor(category); got != want {
			t.Errorf("LiaisonFor(%q) = %q, want %q", category, got, want)
		}
	}
}

func TestEveryDepartmentHasALiaison(t *testing.T) {
	tax := Default()
	for _, d := range tax.Departments {
		if _, ok := tax.Liaisons[d.Name]; !ok {
			t.Errorf("department %s has no liaison", d.Name)
		}
		if len(d.Keywords) == 0 {
			t.Errorf("department %s has no keywords", d.Name)
		}
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := Default().Categories()
	if cats[0] != CategoryExecutive {
		t.Errorf("Expected first category %q, got %q", CategoryExecutive, cats[0])
	}
	if cats[len(cats)-1] != CategoryUnassigned {
		t.Errorf("Expected last category %q, got %q", CategoryUnassigned, cats[len(cats)-1])
	}
	if cats[1] != Quality {
		t.Errorf("Expected departments in declaration order, got %v", cats)
	}
	if !Default().IsCategory(Safety) || Default().IsCategory("Marketing") {
		t.Error("IsCategory disagrees with Categories")
	}
}

func TestLiaisonNames(t *testing.T) {
	got := Default().LiaisonNames()
	want := []string{LiaisonA, LiaisonB, LiaisonC, LiaisonD, LiaisonE}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("LiaisonNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
