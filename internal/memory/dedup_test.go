package memory

import "testing"

func TestIsDuplicateExactAfterNormalization(t *testing.T) {
	existing := []string{"- The user lives in Boston"}

	if !IsDuplicate(existing, "The user lives in Boston", DefaultDuplicateThreshold) {
		t.Error("expected identical fact (modulo marker) to be a duplicate")
	}
	if !IsDuplicate(existing, "- The user lives in Boston (2026-08-24)", DefaultDuplicateThreshold) {
		t.Error("expected fact differing only by date annotation to be a duplicate")
	}
	if !IsDuplicate(existing, "- THE USER LIVES IN BOSTON", DefaultDuplicateThreshold) {
		t.Error("expected case-folded match to be a duplicate")
	}
}

func TestIsDuplicateRejectsUnrelated(t *testing.T) {
	existing := []string{"- The user lives in Boston"}

	if IsDuplicate(existing, "- The user enjoys hiking", DefaultDuplicateThreshold) {
		t.Error("unrelated fact should not be a duplicate")
	}
	if IsDuplicate(nil, "- anything", DefaultDuplicateThreshold) {
		t.Error("no existing facts means no duplicates")
	}
}

func TestIsDuplicateParaphraseBelowThreshold(t *testing.T) {
	existing := []string{"- The user is employed as a software engineer at a bank"}

	// Heavy paraphrase: accepted as new, by design of the lexical check.
	if IsDuplicate(existing, "- Banking industry programmer", DefaultDuplicateThreshold) {
		t.Error("heavy paraphrase should fall below the threshold")
	}
}

func TestSimilarityBounds(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"abc", "abc", 1.0},
		{"", "", 1.0},
		{"abc", "xyz", 0.0},
	}
	for _, c := range cases {
		if got := similarity(c.a, c.b); got != c.want {
			t.Errorf("similarity(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}

	// Symmetric.
	if similarity("kitten", "sitting") != similarity("sitting", "kitten") {
		t.Error("similarity must be symmetric")
	}
}
