package catalog

import "strings"

// UnknownStore is shown when no store label is available.
const UnknownStore = "Unknown Store"

// StoreAlias maps an alias fragment to a canonical store name.
type StoreAlias struct {
	Alias     string `yaml:"alias"`
	Canonical string `yaml:"canonical"`
}

// DefaultStoreAliases is the built-in alias table. Order matters: first match wins.
func DefaultStoreAliases() []StoreAlias {
	return []StoreAlias{
		{Alias: "maniere", Canonical: "Maniere de Voir"},
		{Alias: "manieredevoir", Canonical: "Maniere de Voir"},
		{Alias: "rouje", Canonical: "Rouje"},
		{Alias: "with jean", Canonical: "With Jean"},
		{Alias: "withjean", Canonical: "With Jean"},
	}
}

// StoreTable canonicalizes store and brand labels.
type StoreTable struct {
	aliases []StoreAlias // alias stored in squashed form
}

// NewStoreTable builds a table from the defaults followed by extra aliases.
func NewStoreTable(extra ...StoreAlias) *StoreTable {
	all := append(DefaultStoreAliases(), extra...)
	t := &StoreTable{aliases: make([]StoreAlias, 0, len(all))}
	for _, a := range all {
		key := squash(a.Alias)
		if key == "" || strings.TrimSpace(a.Canonical) == "" {
			continue
		}
		t.aliases = append(t.aliases, StoreAlias{Alias: key, Canonical: strings.TrimSpace(a.Canonical)})
	}
	return t
}

// Canonical returns the canonical store name for raw.
// Empty input yields UnknownStore; unmatched input is returned trimmed.
// Canonical(Canonical(x)) == Canonical(x).
func (t *StoreTable) Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return UnknownStore
	}
	key := squash(s)
	for _, a := range t.aliases {
		if strings.Contains(key, a.Alias) {
			return a.Canonical
		}
	}
	return s
}

// Known reports whether raw matches an alias in the table.
func (t *StoreTable) Known(raw string) bool {
	key := squash(raw)
	if key == "" {
		return false
	}
	for _, a := range t.aliases {
		if strings.Contains(key, a.Alias) {
			return true
		}
	}
	return false
}

var defaultStores = NewStoreTable()

// CanonicalStore canonicalizes raw with the built-in table.
func CanonicalStore(raw string) string { return defaultStores.Canonical(raw) }

// squash lowercases and drops spaces, dots, dashes and underscores.
func squash(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '.', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
