package team

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
)

func TestSquadComposition(t *testing.T) {
	g := NewGeneratorWithSeed(1)
	teamID := uuid.New()
	players := g.Squad(teamID)

	if len(players) != GeneratedSquadSize {
		t.Fatalf("squad size = %d, want %d", len(players), GeneratedSquadSize)
	}

	counts := map[models.Position]int{}
	for _, p := range players {
		counts[p.Position]++
	}

	want := map[models.Position]int{
		models.PositionGoalkeeper: 3,
		models.PositionDefender:   6,
		models.PositionMidfielder: 6,
		models.PositionForward:    5,
	}
	for pos, n := range want {
		if counts[pos] != n {
			t.Errorf("position %s count = %d, want %d", pos, counts[pos], n)
		}
	}
}

func TestSquadAttributeRanges(t *testing.T) {
	g := NewGeneratorWithSeed(42)
	teamID := uuid.New()

	// Several squads to exercise the random ranges.
	for i := 0; i < 50; i++ {
		for _, p := range g.Squad(teamID) {
			if p.TeamID != teamID {
				t.Fatalf("player team = %s, want %s", p.TeamID, teamID)
			}
			if p.Age < models.MinPlayerAge || p.Age > models.MaxPlayerAge {
				t.Errorf("age %d out of range [%d, %d]", p.Age, models.MinPlayerAge, models.MaxPlayerAge)
			}
			if p.Overall < models.MinPlayerOverall || p.Overall > models.MaxPlayerOverall {
				t.Errorf("overall %d out of range [%d, %d]", p.Overall, models.MinPlayerOverall, models.MaxPlayerOverall)
			}
			base := int64(p.Overall) * models.ValuePerOverall
			if p.Value < base || p.Value >= base+models.ValueBonusRange {
				t.Errorf("value %d out of range [%d, %d) for overall %d", p.Value, base, base+models.ValueBonusRange, p.Overall)
			}
			if p.Name == "" {
				t.Error("player has empty name")
			}
		}
	}
}

func TestSquadNamesComeFromPositionPool(t *testing.T) {
	g := NewGeneratorWithSeed(7)
	for _, p := range g.Squad(uuid.New()) {
		found := false
		for _, name := range namePools[p.Position] {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("player %q not in %s name pool", p.Name, p.Position)
		}
	}
}

func TestTeamName(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"alice@example.com", "alice FC"},
		{"bob.smith@club.org", "bob.smith FC"},
		{"noatsign", "noatsign FC"},
		{"@example.com", "@example.com FC"},
	}
	for _, tt := range tests {
		if got := TeamName(tt.email); got != tt.want {
			t.Errorf("TeamName(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
