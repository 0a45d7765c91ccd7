package chip

import (
	"errors"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if got := len(c.All()); got != 5 {
		t.Fatalf("expected 5 chips, got %d", got)
	}
	if got := len(c.ByScope(ScopeMatch)); got != 3 {
		t.Fatalf("expected 3 match chips, got %d", got)
	}
	if got := len(c.ByScope(ScopeGameweek)); got != 2 {
		t.Fatalf("expected 2 gameweek chips, got %d", got)
	}

	wildcard, ok := c.Get(IDWildcard)
	if !ok {
		t.Fatalf("wildcard missing from catalog")
	}
	if wildcard.CooldownGameweeks != 7 || wildcard.SeasonLimit != nil {
		t.Fatalf("unexpected wildcard rules: %+v", wildcard)
	}

	allIn, _ := c.Get(IDAllInWeek)
	if allIn.SeasonLimit == nil || *allIn.SeasonLimit != 4 || allIn.HasCooldown() {
		t.Fatalf("unexpected all-in week rules: %+v", allIn)
	}

	if _, ok := c.Get("tripleCaptain"); ok {
		t.Fatalf("expected unknown chip lookup to fail")
	}
	if c.Name("tripleCaptain") != "tripleCaptain" {
		t.Fatalf("expected unknown chip name to fall back to id")
	}
	if !c.IsGameweekChip(IDDefensePlusPlus) || c.IsGameweekChip(IDWildcard) {
		t.Fatalf("unexpected gameweek scope lookup")
	}
}

func TestNewCatalogRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{
			name: "missing id",
			defs: []Definition{{Scope: ScopeMatch}},
		},
		{
			name: "bad scope",
			defs: []Definition{{ID: "x", Scope: "season"}},
		},
		{
			name: "negative cooldown",
			defs: []Definition{{ID: "x", Scope: ScopeMatch, CooldownGameweeks: -1}},
		},
		{
			name: "duplicate id",
			defs: []Definition{{ID: "x", Scope: ScopeMatch}, {ID: "x", Scope: ScopeGameweek}},
		},
		{
			name: "canonical collision",
			defs: []Definition{{ID: "allInWeek", Scope: ScopeGameweek}, {ID: "all_in_week", Scope: ScopeGameweek}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.defs...)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}
		})
	}
}

func TestCatalogNormalizeID(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{raw: "wildcard", want: IDWildcard, wantOK: true},
		{raw: "WILDCARD", want: IDWildcard, wantOK: true},
		{raw: "DEFENSE_PLUS_PLUS", want: IDDefensePlusPlus, wantOK: true},
		{raw: "defense-plus-plus", want: IDDefensePlusPlus, wantOK: true},
		{raw: "Defense++", want: IDDefensePlusPlus, wantOK: true},
		{raw: "ALL_IN_WEEK", want: IDAllInWeek, wantOK: true},
		{raw: " scorer_focus ", want: IDScorerFocus, wantOK: true},
		{raw: "TRIPLE_CAPTAIN", want: "TRIPLE_CAPTAIN", wantOK: false},
	}

	for _, tc := range tests {
		got, ok := c.NormalizeID(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("NormalizeID(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}
