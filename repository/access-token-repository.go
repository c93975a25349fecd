package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AccessToken is the opaque magic-link credential binding one
// participant to one round. At most one live token exists per
// (participant, round); reissuing replaces the previous one.
type AccessToken struct {
	Token     string    `gorm:"primaryKey"`
	UserId    int       `gorm:"not null;uniqueIndex:idx_access_tokens_user_round"`
	RoundId   int       `gorm:"not null;uniqueIndex:idx_access_tokens_user_round"`
	User      *User     `gorm:"foreignKey:UserId;constraint:OnDelete:CASCADE"`
	Round     *Round    `gorm:"foreignKey:RoundId;constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

type AccessTokenRepository struct {
	DB *gorm.DB
}

func NewAccessTokenRepository(db *gorm.DB) *AccessTokenRepository {
	return &AccessTokenRepository{DB: db}
}

// ReplaceBatch swaps the round's token set for the new batch in one
// transaction. Every previously issued token is deleted, including
// those of users absent from the batch, so a re-activation after
// disabling a participant leaves no stale valid token behind.
func (r *AccessTokenRepository) ReplaceBatch(roundId int, tokens []*AccessToken) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("round_id = ?", roundId).Delete(&AccessToken{}).Error; err != nil {
			return err
		}
		if len(tokens) == 0 {
			return nil
		}
		return tx.Create(tokens).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace token batch for round %d: %v", roundId, err)
	}
	return nil
}

// GetLiveToken returns the token row if it exists and has not expired.
func (r *AccessTokenRepository) GetLiveToken(token string, now time.Time) (*AccessToken, error) {
	var accessToken AccessToken
	result := r.DB.Where("token = ? AND expires_at > ?", token, now).First(&accessToken)
	if result.Error != nil {
		return nil, result.Error
	}
	return &accessToken, nil
}

func (r *AccessTokenRepository) GetTokensForRound(roundId int) ([]*AccessToken, error) {
	tokens := make([]*AccessToken, 0)
	result := r.DB.Find(&tokens, "round_id = ?", roundId)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find tokens for round %d: %v", roundId, result.Error)
	}
	return tokens, nil
}

func (r *AccessTokenRepository) DeleteTokensForRound(roundId int) error {
	return r.DB.Where("round_id = ?", roundId).Delete(&AccessToken{}).Error
}
