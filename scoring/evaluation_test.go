package scoring

import (
	"testing"

	"pickem/repository"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string {
	return &s
}

func TestEvaluatePickMatchesCaseInsensitively(t *testing.T) {
	placements := []string{"Yankees", "Red Sox", "Blue Jays", "Orioles", "Rays"}

	assert.Equal(t, First, EvaluatePick([]string{"yankees"}, placements))
	assert.Equal(t, Second, EvaluatePick([]string{"RED SOX"}, placements))
	assert.Equal(t, Fifth, EvaluatePick([]string{"  rays  "}, placements))
	assert.Equal(t, SixthPlus, EvaluatePick([]string{"Mets"}, placements))
	assert.Equal(t, SixthPlus, EvaluatePick([]string{}, placements))
}

func TestEvaluatePickTakesBestPlacement(t *testing.T) {
	placements := []string{"Yankees", "Red Sox", "Blue Jays", "", ""}

	// A multi-value pick scores the best matching placement.
	assert.Equal(t, First, EvaluatePick([]string{"Blue Jays", "Yankees"}, placements))
	assert.Equal(t, Second, EvaluatePick([]string{"Mets", "Red Sox"}, placements))
}

func TestEvaluatePickSkipsEmptyPlacements(t *testing.T) {
	placements := []string{"Yankees", "", "Blue Jays", "", ""}

	assert.Equal(t, Third, EvaluatePick([]string{"Blue Jays"}, placements))
	// An empty pick value never matches an empty placement slot.
	assert.Equal(t, SixthPlus, EvaluatePick([]string{""}, placements))
}

func TestParsePlacement(t *testing.T) {
	for name, expected := range map[string]Placement{
		"first":   First,
		" Third ": Third,
		"FIFTH":   Fifth,
		"none":    SixthPlus,
		"":        SixthPlus,
	} {
		placement, err := ParsePlacement(name)
		assert.NoError(t, err)
		assert.Equal(t, expected, placement)
	}
}

func TestParsePlacementRejectsUnknownNames(t *testing.T) {
	// A typo must surface instead of quietly scoring sixth-or-worse.
	for _, name := range []string{"secnod", "sixth", "1st"} {
		_, err := ParsePlacement(name)
		assert.Error(t, err)
	}
}

func TestEvaluateSingleRound(t *testing.T) {
	teamYankees := &repository.Team{Id: 1, Name: "Yankees"}
	teamMets := &repository.Team{Id: 2, Name: "Mets"}
	picks := []*repository.Pick{
		{UserId: 1, Items: []*repository.PickItem{{Slot: 1, Team: teamYankees}}},
		{UserId: 2, Items: []*repository.PickItem{{Slot: 1, Team: teamMets}}},
		{UserId: 3, Items: []*repository.PickItem{}},
	}
	placements := []*string{strPtr("Yankees"), strPtr("Red Sox"), nil, nil, nil}

	outcome := EvaluateSingleRound(picks, placements)

	assert.Equal(t, First, outcome[1])
	assert.Equal(t, SixthPlus, outcome[2])
	assert.Equal(t, SixthPlus, outcome[3])
}

func TestEvaluateManualRoundDefaultsToSixthPlus(t *testing.T) {
	picks := []*repository.Pick{
		{UserId: 1},
		{UserId: 2},
	}
	assignments := map[int]Placement{1: Second}

	outcome := EvaluateManualRound(picks, assignments)

	assert.Equal(t, Second, outcome[1])
	assert.Equal(t, SixthPlus, outcome[2])
}

func TestBuildScoresSetsExactlyOneFlag(t *testing.T) {
	outcome := map[int]Placement{
		1: First,
		2: Second,
		3: Third,
		4: Fourth,
		5: Fifth,
		6: SixthPlus,
	}

	scores := BuildScores(42, outcome)
	assert.Len(t, scores, 6)

	for _, score := range scores {
		assert.Equal(t, 42, score.RoundId)
		flags := 0
		for _, set := range []bool{score.First, score.Second, score.Third, score.Fourth, score.Fifth, score.SixthPlus} {
			if set {
				flags++
			}
		}
		assert.Equal(t, 1, flags)
	}
}
