package service

import (
	"testing"
	"time"

	"pickem/app_error"
	"pickem/repository"

	"github.com/stretchr/testify/assert"
)

func singleRound() *repository.Round {
	return &repository.Round{
		Id:       1,
		PickType: repository.PickTypeSingle,
		Teams: []*repository.Team{
			{Id: 10, RoundId: 1, Name: "Yankees"},
			{Id: 11, RoundId: 1, Name: "Red Sox"},
		},
	}
}

func TestResolveItemsEmptyListClearsPick(t *testing.T) {
	items, err := resolveItems(singleRound(), []PickValue{})
	assert.NoError(t, err)
	assert.Nil(t, items)
}

func TestResolveItemsSingleByTeamId(t *testing.T) {
	items, err := resolveItems(singleRound(), []PickValue{{TeamId: intPtr(11)}})
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Slot)
	assert.Equal(t, 11, *items[0].TeamId)
}

func TestResolveItemsSingleByTeamName(t *testing.T) {
	// Text matching a team name resolves to the team's identity, so a
	// later rename follows the pick.
	items, err := resolveItems(singleRound(), []PickValue{{FreeText: strPtr("  red sox ")}})
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 11, *items[0].TeamId)
	assert.Nil(t, items[0].FreeText)
}

func TestResolveItemsSingleRejectsUnknownTeam(t *testing.T) {
	_, err := resolveItems(singleRound(), []PickValue{{TeamId: intPtr(99)}})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	_, err = resolveItems(singleRound(), []PickValue{{FreeText: strPtr("Mets")}})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	_, err = resolveItems(singleRound(), []PickValue{{}})
	assert.True(t, app_error.IsType(err, app_error.Validation))
}

func TestResolveItemsSingleRejectsMultipleValues(t *testing.T) {
	_, err := resolveItems(singleRound(), []PickValue{{TeamId: intPtr(10)}, {TeamId: intPtr(11)}})
	assert.True(t, app_error.IsType(err, app_error.Validation))
}

func TestResolveItemsMultiple(t *testing.T) {
	round := &repository.Round{Id: 2, PickType: repository.PickTypeMultiple, SlotCount: 3}

	items, err := resolveItems(round, []PickValue{
		{FreeText: strPtr(" Alice ")},
		{FreeText: strPtr("Bob")},
	})
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Slot)
	assert.Equal(t, "Alice", *items[0].FreeText)
	assert.Equal(t, 2, items[1].Slot)
	assert.Equal(t, "Bob", *items[1].FreeText)
}

func TestResolveItemsMultipleRejectsBadInput(t *testing.T) {
	round := &repository.Round{Id: 2, PickType: repository.PickTypeMultiple, SlotCount: 2}

	// More values than slots.
	_, err := resolveItems(round, []PickValue{
		{FreeText: strPtr("a")}, {FreeText: strPtr("b")}, {FreeText: strPtr("c")},
	})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	// Team references have no meaning on free-text rounds.
	_, err = resolveItems(round, []PickValue{{TeamId: intPtr(10)}})
	assert.True(t, app_error.IsType(err, app_error.Validation))

	// Blank slots are rejected rather than silently dropped.
	_, err = resolveItems(round, []PickValue{{FreeText: strPtr("  ")}})
	assert.True(t, app_error.IsType(err, app_error.Validation))
}

func TestJoinItemValues(t *testing.T) {
	items := []*repository.PickItem{
		{Slot: 1, Team: &repository.Team{Name: "Yankees"}},
		{Slot: 2, FreeText: strPtr("Bob")},
	}
	assert.Equal(t, "Yankees, Bob", joinItemValues(items))
	assert.Equal(t, "", joinItemValues(nil))
}

func TestStampEditCapturesOriginalOnce(t *testing.T) {
	firstEditor := &repository.User{Id: 7}
	secondEditor := &repository.User{Id: 8}
	pick := &repository.Pick{
		Items: []*repository.PickItem{{Slot: 1, Team: &repository.Team{Id: 10, Name: "Yankees"}}},
	}

	stampEdit(pick, firstEditor, time.Now().UTC())
	assert.True(t, pick.Edited)
	assert.Equal(t, 7, *pick.EditedById)
	assert.Equal(t, "Yankees", *pick.OriginalPick)

	// A second override keeps the first pre-edit value while the other
	// audit fields follow the latest editor.
	pick.Items = []*repository.PickItem{{Slot: 1, Team: &repository.Team{Id: 11, Name: "Red Sox"}}}
	stampEdit(pick, secondEditor, time.Now().UTC())
	assert.Equal(t, 8, *pick.EditedById)
	assert.Equal(t, "Yankees", *pick.OriginalPick)
}

func TestStampEditRecordsEmptyPriorState(t *testing.T) {
	editor := &repository.User{Id: 7}
	pick := &repository.Pick{}

	stampEdit(pick, editor, time.Now().UTC())
	// Editing a pick that never had items captures the empty state, so
	// a later edit cannot re-capture.
	assert.NotNil(t, pick.OriginalPick)
	assert.Equal(t, "", *pick.OriginalPick)

	pick.Items = []*repository.PickItem{{Slot: 1, FreeText: strPtr("Mets")}}
	stampEdit(pick, editor, time.Now().UTC())
	assert.Equal(t, "", *pick.OriginalPick)
}
