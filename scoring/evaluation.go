package scoring

import (
	"fmt"
	"strings"

	"pickem/repository"
)

// Placement is a 1-based finishing bucket; SixthPlus catches everyone
// who matched none of the up-to-five explicit placements.
type Placement int

const (
	First     Placement = 1
	Second    Placement = 2
	Third     Placement = 3
	Fourth    Placement = 4
	Fifth     Placement = 5
	SixthPlus Placement = 6
)

var placementNames = map[string]Placement{
	"first":  First,
	"second": Second,
	"third":  Third,
	"fourth": Fourth,
	"fifth":  Fifth,
	"none":   SixthPlus,
}

// ParsePlacement maps an admin-supplied placement name onto its
// Placement. Empty and "none" mean sixth-or-worse; any other unknown
// name is rejected so a typo cannot silently demote a participant.
func ParsePlacement(name string) (Placement, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return SixthPlus, nil
	}
	if p, ok := placementNames[normalized]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown placement %q", name)
}

// EvaluatePick scans the placements in priority order (first to fifth)
// and returns the highest placement any of the pick's values matches
// case-insensitively. No match means SixthPlus.
func EvaluatePick(values []string, placements []string) Placement {
	for i, placement := range placements {
		placement = strings.TrimSpace(placement)
		if placement == "" {
			continue
		}
		for _, value := range values {
			if strings.EqualFold(strings.TrimSpace(value), placement) {
				return Placement(i + 1)
			}
		}
	}
	return SixthPlus
}

// EvaluateSingleRound computes the placement per participant for a
// single-pick-type round by matching pick values against the round's
// placement results.
func EvaluateSingleRound(picks []*repository.Pick, placements []*string) map[int]Placement {
	placementValues := make([]string, 0, len(placements))
	for _, p := range placements {
		if p == nil {
			placementValues = append(placementValues, "")
			continue
		}
		placementValues = append(placementValues, *p)
	}
	outcome := make(map[int]Placement, len(picks))
	for _, pick := range picks {
		values := make([]string, 0, len(pick.Items))
		for _, item := range pick.Items {
			values = append(values, item.Value())
		}
		outcome[pick.UserId] = EvaluatePick(values, placementValues)
	}
	return outcome
}

// EvaluateManualRound maps admin-asserted placements for a
// multiple-pick-type round. Participants with a pick but no assignment
// default to SixthPlus.
func EvaluateManualRound(picks []*repository.Pick, assignments map[int]Placement) map[int]Placement {
	outcome := make(map[int]Placement, len(picks))
	for _, pick := range picks {
		if placement, ok := assignments[pick.UserId]; ok {
			outcome[pick.UserId] = placement
		} else {
			outcome[pick.UserId] = SixthPlus
		}
	}
	return outcome
}

// BuildScores turns the per-participant placements into score rows
// with exactly one flag set each.
func BuildScores(roundId int, outcome map[int]Placement) []*repository.Score {
	scores := make([]*repository.Score, 0, len(outcome))
	for userId, placement := range outcome {
		score := &repository.Score{UserId: userId, RoundId: roundId}
		switch placement {
		case First:
			score.First = true
		case Second:
			score.Second = true
		case Third:
			score.Third = true
		case Fourth:
			score.Fourth = true
		case Fifth:
			score.Fifth = true
		default:
			score.SixthPlus = true
		}
		scores = append(scores, score)
	}
	return scores
}
