package model

import "testing"

func TestCategoryTitle(t *testing.T) {
	cases := map[Category]string{
		WorkLife:     "Work Life",
		PersonalInfo: "Personal Info",
		Goals:        "Goals",
	}
	for cat, want := range cases {
		if got := cat.Title(); got != want {
			t.Errorf("%s.Title() = %q, want %q", cat, got, want)
		}
	}
}

func TestCategoriesClosedSet(t *testing.T) {
	cats := Categories()
	if len(cats) != 10 {
		t.Fatalf("expected 10 categories, got %d", len(cats))
	}
	for _, c := range cats {
		if !ValidCategories[c] {
			t.Errorf("category %s missing from ValidCategories", c)
		}
	}
	if ValidCategories["nonsense"] {
		t.Error("unknown category must not validate")
	}
}

func TestCategoryStoreOrder(t *testing.T) {
	s := NewCategoryStore()
	s.Append("Work", "- b")
	s.Append(NoSubcategory, "- a")
	s.Append("Work", "- c")

	subs := s.Subcategories()
	if len(subs) != 2 || subs[0] != "Work" || subs[1] != NoSubcategory {
		t.Errorf("expected first-seen order [Work, \"\"], got %v", subs)
	}

	work := s.Bucket("Work")
	if len(work) != 2 || work[0] != "- b" || work[1] != "- c" {
		t.Errorf("insertion order not preserved: %v", work)
	}

	if s.Len() != 3 {
		t.Errorf("expected 3 facts, got %d", s.Len())
	}

	all := s.AllFacts()
	if len(all) != 3 {
		t.Errorf("AllFacts returned %d facts", len(all))
	}
}
