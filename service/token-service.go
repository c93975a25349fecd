package service

import (
	"errors"
	"strings"
	"time"

	"pickem/app_error"
	"pickem/auth"
	"pickem/metrics"
	"pickem/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenService owns the access-token lifecycle: it mints the opaque
// magic-link tokens during round activation and exchanges them for
// participant session credentials.
type TokenService struct {
	accessTokenRepository *repository.AccessTokenRepository
	roundRepository       *repository.RoundRepository
}

func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{
		accessTokenRepository: repository.NewAccessTokenRepository(db),
		roundRepository:       repository.NewRoundRepository(db),
	}
}

func newTokenValue() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// IssueBatch replaces the round's live tokens with freshly generated
// ones for the given participants, expiring at the round's deadline.
// Delete and insert happen in one transaction so a retried activation
// never leaves a stale valid token behind, not even for users who have
// been disabled since the previous activation.
func (s *TokenService) IssueBatch(round *repository.Round, participants []*repository.User) ([]*repository.AccessToken, error) {
	if round.Deadline == nil {
		return nil, app_error.New(app_error.PreconditionFailed, "round %d has no deadline", round.Id)
	}
	tokens := make([]*repository.AccessToken, 0, len(participants))
	for _, participant := range participants {
		tokens = append(tokens, &repository.AccessToken{
			Token:     newTokenValue(),
			UserId:    participant.Id,
			RoundId:   round.Id,
			ExpiresAt: *round.Deadline,
		})
	}
	if err := s.accessTokenRepository.ReplaceBatch(round.Id, tokens); err != nil {
		return nil, app_error.Wrap(app_error.Transient, err)
	}
	metrics.TokensIssuedCounter.Add(float64(len(tokens)))
	return tokens, nil
}

// RevokeForRound deletes every outstanding access token for the
// round, killing its magic links immediately.
func (s *TokenService) RevokeForRound(roundId int) error {
	if err := s.accessTokenRepository.DeleteTokensForRound(roundId); err != nil {
		return app_error.Wrap(app_error.Transient, err)
	}
	return nil
}

// Exchange turns a live access token into a session credential scoped
// to the token's (participant, round) pair. The token stays valid so
// the participant can re-open the same link to revise their pick until
// lock.
func (s *TokenService) Exchange(tokenValue string) (string, *repository.AccessToken, error) {
	accessToken, err := s.accessTokenRepository.GetLiveToken(tokenValue, time.Now().UTC())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, app_error.New(app_error.Unauthorized, "unknown or expired token")
		}
		return "", nil, app_error.Wrap(app_error.Transient, err)
	}
	session, err := auth.CreateSessionToken(accessToken.UserId, accessToken.RoundId, accessToken.ExpiresAt)
	if err != nil {
		return "", nil, err
	}
	return session, accessToken, nil
}
