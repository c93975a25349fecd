package repository

import (
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/assert"
)

var db *gorm.DB
var enumQueries = []string{
	`CREATE TYPE pickem.round_status AS ENUM ('draft', 'active', 'locked', 'completed')`,
	`CREATE TYPE pickem.pick_type AS ENUM ('single', 'multiple')`,
	`CREATE TYPE pickem.reminder_policy AS ENUM ('none', 'daily', 'before_lock')`,
}

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.Run("postgres", "17.2-alpine", []string{"POSTGRES_USER=postgres", "POSTGRES_PASSWORD=postgres", "DATABASE_NAME=postgres"})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	resource.Expire(600)
	sqlInfo := fmt.Sprintf(
		"host=localhost port=%s user=postgres password=postgres dbname=postgres sslmode=disable search_path=pickem",
		resource.GetPort("5432/tcp"))

	if err := pool.Retry(func() error {
		var err error
		db, err = gorm.Open(postgres.Open(sqlInfo), &gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				TablePrefix:   "pickem.",
				SingularTable: false,
			},
			Logger: logger.Default.LogMode(logger.Silent),
		})

		if err != nil {
			return err
		}
		db.Exec(`CREATE SCHEMA IF NOT EXISTS pickem`)
		for _, query := range enumQueries {
			x := db.Exec(query)
			if x.Error != nil {
				if strings.Contains(x.Error.Error(), "already exists") {
					continue
				}
			}
		}
		return db.AutoMigrate(
			&Season{},
			&User{},
			&SeasonUser{},
			&Round{},
			&Team{},
			&AccessToken{},
			&Pick{},
			&PickItem{},
			&Score{},
			&ReminderLog{},
			&Settings{},
		)

	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	defer func() {
		if err := pool.Purge(resource); err != nil {
			log.Fatalf("Could not purge resource: %s", err)
		}

	}()
	m.Run()
}

func TearDown() {
	db.Exec("DELETE FROM pickem.reminder_logs")
	db.Exec("DELETE FROM pickem.scores")
	db.Exec("DELETE FROM pickem.pick_items")
	db.Exec("DELETE FROM pickem.picks")
	db.Exec("DELETE FROM pickem.access_tokens")
	db.Exec("DELETE FROM pickem.teams")
	db.Exec("DELETE FROM pickem.rounds")
	db.Exec("DELETE FROM pickem.season_users")
	db.Exec("DELETE FROM pickem.users")
	db.Exec("DELETE FROM pickem.seasons")
}

func SetUp() *Round {
	season := &Season{Name: "2025", IsCurrent: true}
	db.Create(season)
	users := []*User{
		{Name: "alice", Email: "alice@example.com", Enabled: true, Permissions: []string{}},
		{Name: "bob", Email: "bob@example.com", Enabled: true, Permissions: []string{}},
		{Name: "carol", Email: "carol@example.com", Enabled: false, Permissions: []string{}},
	}
	db.Create(users)
	for _, user := range users {
		db.Create(&SeasonUser{SeasonId: season.Id, UserId: user.Id})
	}
	deadline := time.Now().UTC().Add(48 * time.Hour)
	round := &Round{
		SeasonId:       season.Id,
		Name:           "Opening Week",
		PickType:       PickTypeSingle,
		SlotCount:      1,
		Deadline:       &deadline,
		Timezone:       "America/New_York",
		Status:         RoundStatusDraft,
		ReminderPolicy: ReminderPolicyDaily,
		Teams: []*Team{
			{Name: "Yankees"},
			{Name: "Red Sox"},
		},
	}
	db.Create(round)
	return round
}

func TestGetParticipantsExcludesDisabledUsers(t *testing.T) {
	round := SetUp()
	defer TearDown()

	participants, err := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	assert.NoError(t, err)
	assert.Len(t, participants, 2)
	for _, participant := range participants {
		assert.True(t, participant.Enabled)
	}
}

func TestReplaceBatchKeepsOneTokenPerUser(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewAccessTokenRepository(db)
	participants, err := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	assert.NoError(t, err)

	expiresAt := time.Now().UTC().Add(48 * time.Hour)
	makeBatch := func(suffix string) []*AccessToken {
		tokens := make([]*AccessToken, 0, len(participants))
		for _, participant := range participants {
			tokens = append(tokens, &AccessToken{
				Token:     fmt.Sprintf("token-%d-%s", participant.Id, suffix),
				UserId:    participant.Id,
				RoundId:   round.Id,
				ExpiresAt: expiresAt,
			})
		}
		return tokens
	}

	assert.NoError(t, repo.ReplaceBatch(round.Id, makeBatch("a")))
	// A retried activation replaces instead of accumulating.
	assert.NoError(t, repo.ReplaceBatch(round.Id, makeBatch("b")))

	tokens, err := repo.GetTokensForRound(round.Id)
	assert.NoError(t, err)
	assert.Len(t, tokens, len(participants))
	for _, token := range tokens {
		assert.Contains(t, token.Token, "-b")
	}

	// The replaced tokens no longer resolve.
	_, err = repo.GetLiveToken(fmt.Sprintf("token-%d-a", participants[0].Id), time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	live, err := repo.GetLiveToken(fmt.Sprintf("token-%d-b", participants[0].Id), time.Now().UTC())
	assert.NoError(t, err)
	assert.Equal(t, participants[0].Id, live.UserId)
}

func TestGetLiveTokenRejectsExpired(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewAccessTokenRepository(db)
	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	expired := &AccessToken{
		Token:     "expired-token",
		UserId:    participants[0].Id,
		RoundId:   round.Id,
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	assert.NoError(t, repo.ReplaceBatch(round.Id, []*AccessToken{expired}))

	_, err := repo.GetLiveToken("expired-token", time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateStatusIfIsConditional(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewRoundRepository(db)
	ok, err := repo.UpdateStatusIf(round.Id, RoundStatusDraft, RoundStatusActive)
	assert.NoError(t, err)
	assert.True(t, ok)

	// The second caller loses the transition.
	ok, err = repo.UpdateStatusIf(round.Id, RoundStatusDraft, RoundStatusActive)
	assert.NoError(t, err)
	assert.False(t, ok)

	reloaded, err := repo.GetRoundById(round.Id)
	assert.NoError(t, err)
	assert.Equal(t, RoundStatusActive, reloaded.Status)
}

func TestReplaceItemsRoundTripKeepsSlotOrder(t *testing.T) {
	round := SetUp()
	defer TearDown()

	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	userId := participants[0].Id
	repo := NewPickRepository(db)

	pick := &Pick{RoundId: round.Id, UserId: userId}
	teamId := round.Teams[0].Id
	assert.NoError(t, repo.ReplaceItems(pick, []*PickItem{{Slot: 1, TeamId: &teamId}}))

	stored, err := repo.GetPickForUser(round.Id, userId)
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, "Yankees", stored.Items[0].Value())

	// Resubmission replaces the items but keeps the pick row.
	otherTeamId := round.Teams[1].Id
	assert.NoError(t, repo.ReplaceItems(stored, []*PickItem{{Slot: 1, TeamId: &otherTeamId}}))
	replaced, err := repo.GetPickForUser(round.Id, userId)
	assert.NoError(t, err)
	assert.Equal(t, stored.Id, replaced.Id)
	assert.Len(t, replaced.Items, 1)
	assert.Equal(t, "Red Sox", replaced.Items[0].Value())

	// An empty submission clears the items without dropping the row.
	assert.NoError(t, repo.ReplaceItems(replaced, nil))
	cleared, err := repo.GetPickForUser(round.Id, userId)
	assert.NoError(t, err)
	assert.Equal(t, stored.Id, cleared.Id)
	assert.Len(t, cleared.Items, 0)
}

func TestReplaceItemsPersistsAuditFields(t *testing.T) {
	round := SetUp()
	defer TearDown()

	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	userId := participants[0].Id
	editorId := participants[1].Id
	repo := NewPickRepository(db)

	teamId := round.Teams[0].Id
	pick := &Pick{RoundId: round.Id, UserId: userId}
	assert.NoError(t, repo.ReplaceItems(pick, []*PickItem{{Slot: 1, TeamId: &teamId}}))

	// First admin edit captures the original value.
	original := "Yankees"
	now := time.Now().UTC()
	pick.Edited = true
	pick.EditedById = &editorId
	pick.EditedAt = &now
	pick.OriginalPick = &original
	otherTeamId := round.Teams[1].Id
	assert.NoError(t, repo.ReplaceItems(pick, []*PickItem{{Slot: 1, TeamId: &otherTeamId}}))

	stored, err := repo.GetPickForUser(round.Id, userId)
	assert.NoError(t, err)
	assert.True(t, stored.Edited)
	assert.Equal(t, editorId, *stored.EditedById)
	assert.Equal(t, "Yankees", *stored.OriginalPick)
	assert.Equal(t, "Red Sox", stored.Items[0].Value())
}

func TestUpsertScoresOverwritesPerKey(t *testing.T) {
	round := SetUp()
	defer TearDown()

	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	userId := participants[0].Id
	repo := NewScoreRepository(db)

	assert.NoError(t, repo.UpsertScores([]*Score{{UserId: userId, RoundId: round.Id, Second: true}}))
	// Re-completion after an unlock corrects instead of duplicating.
	assert.NoError(t, repo.UpsertScores([]*Score{{UserId: userId, RoundId: round.Id, First: true}}))

	scores, err := repo.GetScoresForRound(round.Id)
	assert.NoError(t, err)
	assert.Len(t, scores, 1)
	assert.Equal(t, 1, scores[0].Placement())
	assert.True(t, scores[0].First)
	assert.False(t, scores[0].Second)
}

func TestTryClaimIsAtMostOnce(t *testing.T) {
	round := SetUp()
	defer TearDown()

	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	userId := participants[0].Id
	repo := NewReminderLogRepository(db)

	claimed, err := repo.TryClaim(round.Id, userId, "before_lock_first")
	assert.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.TryClaim(round.Id, userId, "before_lock_first")
	assert.NoError(t, err)
	assert.False(t, claimed)

	// A different kind is a fresh claim.
	claimed, err = repo.TryClaim(round.Id, userId, "before_lock_final")
	assert.NoError(t, err)
	assert.True(t, claimed)
}

func TestSoftDeleteRestoreRoundTrip(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewRoundRepository(db)
	assert.NoError(t, repo.SoftDelete(round))

	// Participant-facing lookups no longer see the round.
	_, err := repo.GetVisibleRoundById(round.Id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Admin lookups still reach it.
	deleted, err := repo.GetRoundById(round.Id)
	assert.NoError(t, err)
	assert.True(t, deleted.DeletedAt.Valid)

	assert.NoError(t, repo.Restore(round.Id))
	restored, err := repo.GetVisibleRoundById(round.Id)
	assert.NoError(t, err)
	assert.False(t, restored.DeletedAt.Valid)
}

func TestReplaceTeamsReconcilesById(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewTeamRepository(db)
	renamed := &Team{Id: round.Teams[0].Id, Name: "Bronx Bombers"}
	added := &Team{Name: "Mets"}

	_, err := repo.ReplaceTeams(round.Id, []*Team{renamed, added})
	assert.NoError(t, err)

	teams, err := repo.GetTeamsByRoundId(round.Id)
	assert.NoError(t, err)
	assert.Len(t, teams, 2)
	// The rename kept the team's identity, the missing team was removed.
	assert.Equal(t, round.Teams[0].Id, teams[0].Id)
	assert.Equal(t, "Bronx Bombers", teams[0].Name)
	assert.Equal(t, "Mets", teams[1].Name)
}

func TestGetExpiredActiveRounds(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewRoundRepository(db)
	past := time.Now().UTC().Add(-time.Hour)
	db.Model(&Round{}).Where("id = ?", round.Id).Updates(map[string]any{
		"status":   RoundStatusActive,
		"deadline": past,
	})

	expired, err := repo.GetExpiredActiveRounds(time.Now().UTC())
	assert.NoError(t, err)
	assert.Len(t, expired, 1)
	assert.Equal(t, round.Id, expired[0].Id)

	// Locked rounds drop out of the auto-lock query.
	ok, err := repo.UpdateStatusIf(round.Id, RoundStatusActive, RoundStatusLocked)
	assert.NoError(t, err)
	assert.True(t, ok)
	expired, err = repo.GetExpiredActiveRounds(time.Now().UTC())
	assert.NoError(t, err)
	assert.Len(t, expired, 0)
}

func TestReplaceBatchRevokesAbsentUsers(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewAccessTokenRepository(db)
	participants, err := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	assert.NoError(t, err)
	expiresAt := time.Now().UTC().Add(48 * time.Hour)

	full := make([]*AccessToken, 0, len(participants))
	for _, participant := range participants {
		full = append(full, &AccessToken{
			Token:     fmt.Sprintf("full-%d", participant.Id),
			UserId:    participant.Id,
			RoundId:   round.Id,
			ExpiresAt: expiresAt,
		})
	}
	assert.NoError(t, repo.ReplaceBatch(round.Id, full))

	// A re-activation after disabling a participant reissues for the
	// remaining users only; the absent user's token must die with it.
	kept := participants[0]
	assert.NoError(t, repo.ReplaceBatch(round.Id, []*AccessToken{
		{Token: "kept", UserId: kept.Id, RoundId: round.Id, ExpiresAt: expiresAt},
	}))

	tokens, err := repo.GetTokensForRound(round.Id)
	assert.NoError(t, err)
	assert.Len(t, tokens, 1)
	assert.Equal(t, "kept", tokens[0].Token)
	_, err = repo.GetLiveToken(fmt.Sprintf("full-%d", participants[1].Id), time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteTokensForRound(t *testing.T) {
	round := SetUp()
	defer TearDown()

	repo := NewAccessTokenRepository(db)
	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	expiresAt := time.Now().UTC().Add(48 * time.Hour)
	assert.NoError(t, repo.ReplaceBatch(round.Id, []*AccessToken{
		{Token: "live", UserId: participants[0].Id, RoundId: round.Id, ExpiresAt: expiresAt},
	}))

	// Soft-deleting a round revokes its magic links immediately.
	assert.NoError(t, repo.DeleteTokensForRound(round.Id))
	_, err := repo.GetLiveToken("live", time.Now().UTC())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPermanentDeleteCascades(t *testing.T) {
	round := SetUp()
	defer TearDown()

	participants, _ := NewSeasonRepository(db).GetParticipants(round.SeasonId)
	userId := participants[0].Id
	teamId := round.Teams[0].Id
	pick := &Pick{RoundId: round.Id, UserId: userId}
	assert.NoError(t, NewPickRepository(db).ReplaceItems(pick, []*PickItem{{Slot: 1, TeamId: &teamId}}))
	assert.NoError(t, NewScoreRepository(db).UpsertScores([]*Score{{UserId: userId, RoundId: round.Id, First: true}}))
	expiresAt := time.Now().UTC().Add(48 * time.Hour)
	assert.NoError(t, NewAccessTokenRepository(db).ReplaceBatch(round.Id, []*AccessToken{
		{Token: "doomed", UserId: userId, RoundId: round.Id, ExpiresAt: expiresAt},
	}))
	claimed, err := NewReminderLogRepository(db).TryClaim(round.Id, userId, "before_lock_first")
	assert.NoError(t, err)
	assert.True(t, claimed)

	repo := NewRoundRepository(db)
	assert.NoError(t, repo.SoftDelete(round))
	assert.NoError(t, repo.PermanentDelete(round.Id))

	// The round is gone even for admin lookups.
	_, err = repo.GetRoundById(round.Id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Everything referencing the round went with it.
	var count int64
	db.Model(&Team{}).Where("round_id = ?", round.Id).Count(&count)
	assert.Zero(t, count)
	db.Model(&Pick{}).Where("round_id = ?", round.Id).Count(&count)
	assert.Zero(t, count)
	db.Model(&PickItem{}).Where("pick_id = ?", pick.Id).Count(&count)
	assert.Zero(t, count)
	db.Model(&Score{}).Where("round_id = ?", round.Id).Count(&count)
	assert.Zero(t, count)
	db.Model(&AccessToken{}).Where("round_id = ?", round.Id).Count(&count)
	assert.Zero(t, count)
	db.Model(&ReminderLog{}).Where("round_id = ?", round.Id).Count(&count)
	assert.Zero(t, count)
}
