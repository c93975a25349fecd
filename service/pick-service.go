package service

import (
	"errors"
	"strings"
	"time"

	"pickem/app_error"
	"pickem/repository"

	"gorm.io/gorm"
)

// PickValue is a single submitted slot: a team reference for single
// pick type, free text for multiple. The boundary resolves loose input
// into this union before the domain sees it.
type PickValue struct {
	TeamId   *int    `json:"team_id"`
	FreeText *string `json:"free_text"`
}

type PickService struct {
	pickRepository  *repository.PickRepository
	roundRepository *repository.RoundRepository
}

func NewPickService(db *gorm.DB) *PickService {
	return &PickService{
		pickRepository:  repository.NewPickRepository(db),
		roundRepository: repository.NewRoundRepository(db),
	}
}

// GetPick returns the participant's pick for the round, or nil when
// nothing has been submitted yet.
func (s *PickService) GetPick(roundId int, userId int) (*repository.Pick, error) {
	pick, err := s.pickRepository.GetPickForUser(roundId, userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	return pick, nil
}

func (s *PickService) GetPicksForRound(roundId int) ([]*repository.Pick, error) {
	return s.pickRepository.GetPicksForRound(roundId)
}

// SubmitPick is the participant-facing submission path. It re-checks
// the deadline as a courtesy; the hard gate is the round leaving the
// active state.
func (s *PickService) SubmitPick(roundId int, userId int, values []PickValue) (*repository.Pick, error) {
	round, err := s.roundRepository.GetVisibleRoundById(roundId, "Teams")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.NotFound, "round %d not found", roundId)
		}
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	if round.Status == repository.RoundStatusCompleted {
		return nil, app_error.New(app_error.Conflict, "round is completed")
	}
	if round.Status != repository.RoundStatusActive {
		return nil, app_error.New(app_error.Conflict, "picks are closed for this round")
	}
	if round.Deadline != nil && time.Now().UTC().After(*round.Deadline) {
		return nil, app_error.New(app_error.Conflict, "the deadline for this round has passed")
	}
	items, err := resolveItems(round, values)
	if err != nil {
		return nil, err
	}
	return s.upsert(round, userId, items, nil)
}

// AdminSubmitPick writes a pick on the participant's behalf. It is
// allowed on locked rounds so an operator can enter a forgotten pick,
// and it stamps the audit fields, capturing the pre-edit value only
// the first time.
func (s *PickService) AdminSubmitPick(roundId int, userId int, values []PickValue, editor *repository.User) (*repository.Pick, error) {
	round, err := s.roundRepository.GetRoundById(roundId, "Teams")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.New(app_error.NotFound, "round %d not found", roundId)
		}
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	if round.Status == repository.RoundStatusCompleted {
		return nil, app_error.New(app_error.Conflict, "round is completed")
	}
	items, err := resolveItems(round, values)
	if err != nil {
		return nil, err
	}
	return s.upsert(round, userId, items, editor)
}

// resolveItems validates the submitted values against the round's pick
// type and turns them into pick items. An empty list is a valid way to
// clear an existing pick.
func resolveItems(round *repository.Round, values []PickValue) ([]*repository.PickItem, error) {
	if len(values) == 0 {
		return nil, nil
	}
	switch round.PickType {
	case repository.PickTypeSingle:
		if len(values) != 1 {
			return nil, app_error.New(app_error.Validation, "single pick rounds accept exactly one value")
		}
		team, err := resolveTeam(round, values[0])
		if err != nil {
			return nil, err
		}
		return []*repository.PickItem{{Slot: 1, TeamId: &team.Id}}, nil
	case repository.PickTypeMultiple:
		if len(values) > round.SlotCount {
			return nil, app_error.New(app_error.Validation, "round accepts at most %d values", round.SlotCount)
		}
		items := make([]*repository.PickItem, 0, len(values))
		for i, value := range values {
			if value.TeamId != nil {
				return nil, app_error.New(app_error.Validation, "free-text rounds do not accept team references")
			}
			if value.FreeText == nil || strings.TrimSpace(*value.FreeText) == "" {
				return nil, app_error.New(app_error.Validation, "slot %d is empty", i+1)
			}
			text := strings.TrimSpace(*value.FreeText)
			items = append(items, &repository.PickItem{Slot: i + 1, FreeText: &text})
		}
		return items, nil
	default:
		return nil, app_error.New(app_error.Validation, "round has unknown pick type %q", round.PickType)
	}
}

// resolveTeam accepts either a team id or text equal to a team name,
// and always resolves to the team's identity so renames never break
// stored picks.
func resolveTeam(round *repository.Round, value PickValue) (*repository.Team, error) {
	if value.TeamId != nil {
		for _, team := range round.Teams {
			if team.Id == *value.TeamId {
				return team, nil
			}
		}
		return nil, app_error.New(app_error.Validation, "team %d does not belong to this round", *value.TeamId)
	}
	if value.FreeText != nil {
		for _, team := range round.Teams {
			if strings.EqualFold(strings.TrimSpace(*value.FreeText), team.Name) {
				return team, nil
			}
		}
		return nil, app_error.New(app_error.Validation, "unknown team %q", *value.FreeText)
	}
	return nil, app_error.New(app_error.Validation, "empty pick value")
}

func joinItemValues(items []*repository.PickItem) string {
	values := make([]string, 0, len(items))
	for _, item := range items {
		values = append(values, item.Value())
	}
	return strings.Join(values, ", ")
}

// stampEdit marks an operator edit on the pick. The pre-edit value is
// captured only on the first edit ever and never overwritten, so the
// audit trail always shows what the participant originally submitted.
func stampEdit(pick *repository.Pick, editor *repository.User, now time.Time) {
	if pick.OriginalPick == nil {
		original := joinItemValues(pick.Items)
		pick.OriginalPick = &original
	}
	pick.Edited = true
	pick.EditedById = &editor.Id
	pick.EditedAt = &now
}

func (s *PickService) upsert(round *repository.Round, userId int, items []*repository.PickItem, editor *repository.User) (*repository.Pick, error) {
	pick, err := s.pickRepository.GetPickForUser(round.Id, userId)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, app_error.Wrap(app_error.Transient, err)
		}
		pick = &repository.Pick{RoundId: round.Id, UserId: userId}
	}
	if editor != nil {
		stampEdit(pick, editor, time.Now().UTC())
	}
	if err := s.pickRepository.ReplaceItems(pick, items); err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	return s.pickRepository.GetPickForUser(round.Id, userId)
}
