package prediction

import (
	"fmt"
	"sort"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Prediction is a user's scoreline and goalscorer call for one fixture.
// The predictions backend owns it; this service only reads it and asks for updates.
type Prediction struct {
	ID          string
	MatchID     string
	Gameweek    int
	Status      Status
	HomeTeam    string
	AwayTeam    string
	HomeScore   int
	AwayScore   int
	HomeScorers []string
	AwayScorers []string
	Chips       ChipSet
	Points      *int
}

func (p Prediction) IsPendingIn(gameweek int) bool {
	return p.Status == StatusPending && p.Gameweek == gameweek
}

// PredictsCleanSheet reports whether either side is predicted to score nothing.
func (p Prediction) PredictsCleanSheet() bool {
	return p.HomeScore == 0 || p.AwayScore == 0
}

func (p Prediction) Fixture() string {
	if strings.TrimSpace(p.HomeTeam) == "" || strings.TrimSpace(p.AwayTeam) == "" {
		return "match " + p.MatchID
	}
	return fmt.Sprintf("%s vs %s", p.HomeTeam, p.AwayTeam)
}

// UpdateInput is the full body accepted by the backend when a prediction is edited.
// The backend overwrites the chip list, so callers must send the merged set.
type UpdateInput struct {
	HomeScore   int
	AwayScore   int
	HomeScorers []string
	AwayScorers []string
	Chips       []string
}

func (p Prediction) UpdateWithChips(chips ChipSet) UpdateInput {
	return UpdateInput{
		HomeScore:   p.HomeScore,
		AwayScore:   p.AwayScore,
		HomeScorers: append([]string(nil), p.HomeScorers...),
		AwayScorers: append([]string(nil), p.AwayScorers...),
		Chips:       chips.Slice(),
	}
}

// ChipSet is an insertion-ordered set of chip ids.
type ChipSet struct {
	ids []string
}

func NewChipSet(ids ...string) ChipSet {
	var out ChipSet
	for _, id := range ids {
		out = out.With(id)
	}
	return out
}

func (s ChipSet) Has(id string) bool {
	for _, item := range s.ids {
		if item == id {
			return true
		}
	}
	return false
}

// With returns a copy of the set including id. Adding an existing id is a no-op.
func (s ChipSet) With(id string) ChipSet {
	id = strings.TrimSpace(id)
	if id == "" || s.Has(id) {
		return s
	}
	ids := make([]string, 0, len(s.ids)+1)
	ids = append(ids, s.ids...)
	ids = append(ids, id)
	return ChipSet{ids: ids}
}

func (s ChipSet) Without(id string) ChipSet {
	ids := make([]string, 0, len(s.ids))
	for _, item := range s.ids {
		if item != id {
			ids = append(ids, item)
		}
	}
	return ChipSet{ids: ids}
}

// Union merges other into s keeping s's order first.
func (s ChipSet) Union(other ChipSet) ChipSet {
	out := s
	for _, id := range other.ids {
		out = out.With(id)
	}
	return out
}

// Missing returns the ids of want that are not in s, in want's order.
func (s ChipSet) Missing(want ChipSet) ChipSet {
	var out ChipSet
	for _, id := range want.ids {
		if !s.Has(id) {
			out = out.With(id)
		}
	}
	return out
}

func (s ChipSet) Len() int {
	return len(s.ids)
}

func (s ChipSet) IsEmpty() bool {
	return len(s.ids) == 0
}

func (s ChipSet) Slice() []string {
	return append([]string{}, s.ids...)
}

func (s ChipSet) Sorted() []string {
	out := s.Slice()
	sort.Strings(out)
	return out
}

func (s ChipSet) Equal(other ChipSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, id := range s.ids {
		if !other.Has(id) {
			return false
		}
	}
	return true
}

// MergeChips is the read-modify-write merge used before every chip update.
func MergeChips(existing []string, add ...string) ChipSet {
	return NewChipSet(existing...).Union(NewChipSet(add...))
}
