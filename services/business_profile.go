package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DealSproutAdmin/deals-api/models"
)

// BusinessProfileService loads the caller's profile, the thin slice of the
// account system the generation prompt actually needs.
type BusinessProfileService struct {
	DB *sql.DB
}

func NewBusinessProfileService(db *sql.DB) *BusinessProfileService {
	return &BusinessProfileService{DB: db}
}

func (s *BusinessProfileService) GetProfile(ctx context.Context, businessID string) (models.BusinessProfile, error) {
	var profile models.BusinessProfile
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(category, ''), COALESCE(location, ''), subscription_tier, created_at
		FROM businesses
		WHERE id = $1
	`, businessID).Scan(
		&profile.ID, &profile.Name, &profile.Category,
		&profile.Location, &profile.SubscriptionTier, &profile.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.BusinessProfile{}, NewPipelineError(ErrKindUnauthorized,
			fmt.Errorf("business %s not found", businessID))
	}
	if err != nil {
		return models.BusinessProfile{}, fmt.Errorf("failed to load business profile: %w", err)
	}
	return profile, nil
}
