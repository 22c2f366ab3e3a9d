package catalog

import "testing"

func TestCanonicalStore(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"maniere de voir", "Maniere de Voir"},
		{"MANIEREDEVOIR", "Maniere de Voir"},
		{"Manière", "Manière"}, // accented spelling is not an alias
		{"rouje paris", "Rouje"},
		{"with-jean", "With Jean"},
		{"WithJean.com", "With Jean"},
		{"", UnknownStore},
		{"   ", UnknownStore},
		{"  Sezane ", "Sezane"},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			if got := CanonicalStore(tc.raw); got != tc.want {
				t.Errorf("CanonicalStore(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestCanonicalStore_Idempotent(t *testing.T) {
	inputs := []string{"maniere", "Maniere de Voir", "rouje", "With Jean", "withjean", "", "Other Label", UnknownStore}
	for _, in := range inputs {
		once := CanonicalStore(in)
		if twice := CanonicalStore(once); twice != once {
			t.Errorf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestStoreTable_ExtraAliases(t *testing.T) {
	table := NewStoreTable(
		StoreAlias{Alias: "sezane", Canonical: "Sézane"},
		StoreAlias{Alias: "", Canonical: "ignored"},
		StoreAlias{Alias: "blank", Canonical: "  "},
	)
	if got := table.Canonical("SEZANE online"); got != "Sézane" {
		t.Errorf("expected Sézane, got %q", got)
	}
	if got := table.Canonical("Sézane"); got != "Sézane" {
		t.Errorf("canonical form should map to itself, got %q", got)
	}
	if got := table.Canonical("blank store"); got != "blank store" {
		t.Errorf("alias with empty canonical must be skipped, got %q", got)
	}
	if !table.Known("rouje") || table.Known("zara") || table.Known("") {
		t.Error("unexpected Known result")
	}
}
