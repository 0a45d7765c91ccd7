package chip

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	IDDoubleDown      = "doubleDown"
	IDWildcard        = "wildcard"
	IDScorerFocus     = "scorerFocus"
	IDDefensePlusPlus = "defensePlusPlus"
	IDAllInWeek       = "allInWeek"
)

// Catalog is the read-only registry of chip definitions.
type Catalog struct {
	ordered   []Definition
	byID      map[string]Definition
	canonical map[string]string
}

func NewCatalog(defs ...Definition) (Catalog, error) {
	c := Catalog{
		ordered:   make([]Definition, 0, len(defs)),
		byID:      make(map[string]Definition, len(defs)),
		canonical: make(map[string]string, len(defs)),
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return Catalog{}, err
		}
		if _, exists := c.byID[def.ID]; exists {
			return Catalog{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidDefinition, def.ID)
		}
		key := canonicalKey(def.ID)
		if other, exists := c.canonical[key]; exists {
			return Catalog{}, fmt.Errorf("%w: id %s collides with %s", ErrInvalidDefinition, def.ID, other)
		}
		c.ordered = append(c.ordered, def)
		c.byID[def.ID] = def
		c.canonical[key] = def.ID
	}
	return c, nil
}

// DefaultCatalog returns the season chip set.
func DefaultCatalog() Catalog {
	allInWeekLimit := 4
	c, err := NewCatalog(
		Definition{
			ID:          IDDoubleDown,
			Name:        "Double Down",
			Description: "Double all points earned from one selected match",
			Icon:        "2x",
			Color:       "teal",
			Scope:       ScopeMatch,
		},
		Definition{
			ID:                IDWildcard,
			Name:              "Wildcard",
			Description:       "Triple all points earned from one selected match",
			Icon:              "3x",
			Color:             "purple",
			Scope:             ScopeMatch,
			CooldownGameweeks: 7,
		},
		Definition{
			ID:                IDScorerFocus,
			Name:              "Scorer Focus",
			Description:       "Doubles all points from goalscorer predictions in one match",
			Icon:              "scorer",
			Color:             "green",
			Scope:             ScopeMatch,
			CooldownGameweeks: 5,
		},
		Definition{
			ID:                IDDefensePlusPlus,
			Name:              "Defense++",
			Description:       "Earn 10 bonus points if you correctly predict clean sheets across all matches where you predicted them",
			Icon:              "shield",
			Color:             "blue",
			Scope:             ScopeGameweek,
			CooldownGameweeks: 5,
			Requirement:       RequirementCleanSheet,
		},
		Definition{
			ID:          IDAllInWeek,
			Name:        "All-In Week",
			Description: "Doubles the entire gameweek score (including deductions)",
			Icon:        "target",
			Color:       "red",
			Scope:       ScopeGameweek,
			SeasonLimit: &allInWeekLimit,
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Catalog) Get(id string) (Definition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

func (c Catalog) All() []Definition {
	return append([]Definition(nil), c.ordered...)
}

func (c Catalog) ByScope(scope Scope) []Definition {
	out := make([]Definition, 0, len(c.ordered))
	for _, def := range c.ordered {
		if def.Scope == scope {
			out = append(out, def)
		}
	}
	return out
}

func (c Catalog) IDs() []string {
	out := make([]string, 0, len(c.ordered))
	for _, def := range c.ordered {
		out = append(out, def.ID)
	}
	return out
}

func (c Catalog) IsGameweekChip(id string) bool {
	def, ok := c.Get(id)
	return ok && def.Scope == ScopeGameweek
}

func (c Catalog) IsMatchChip(id string) bool {
	def, ok := c.Get(id)
	return ok && def.Scope == ScopeMatch
}

// Name returns the display name, falling back to the id for unknown chips.
func (c Catalog) Name(id string) string {
	if def, ok := c.Get(id); ok {
		return def.Name
	}
	return id
}

// NormalizeID maps a backend chip id in any casing or delimiter convention
// (WILDCARD, DEFENSE_PLUS_PLUS, defense-plus-plus, "All In Week") to a catalog id.
// The second result is false when nothing matched; the raw id is returned unchanged then.
func (c Catalog) NormalizeID(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if _, ok := c.byID[trimmed]; ok {
		return trimmed, true
	}
	if id, ok := c.canonical[canonicalKey(trimmed)]; ok {
		return id, true
	}
	return raw, false
}

// canonicalKey lowercases and strips every delimiter so camelCase, snake_case,
// kebab-case and spaced forms collapse to the same key.
func canonicalKey(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '+' {
			b.WriteString("plus")
		}
	}
	return b.String()
}
