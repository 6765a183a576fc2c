package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/DealSproutAdmin/deals-api/config"
	"github.com/DealSproutAdmin/deals-api/models"
)

// ============================================================================
// COMPETITIVE CONTEXT BUILDER
// Échantillonne les deals actifs de la même catégorie pour donner au
// générateur des ancres de prix réelles. Lecture seule, best-effort :
// un contexte vide n'est jamais une erreur.
// ============================================================================

// CompetitorContext wraps the sample list so the absent case is explicit at
// every call site instead of a nil slice threaded implicitly.
type CompetitorContext struct {
	Samples []models.CompetitorSample
}

func (c CompetitorContext) HasData() bool {
	return len(c.Samples) > 0
}

// FormatForPrompt renders the samples as pricing anchors for the generation
// prompt.
func (c CompetitorContext) FormatForPrompt() string {
	if !c.HasData() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Popular deals from comparable businesses in the same category:\n")
	for i, s := range c.Samples {
		fmt.Fprintf(&sb, "%d. %q (%s): $%.2f -> $%.2f (%.0f%% off)\n",
			i+1, s.Title, s.DealKind, s.OriginalPrice, s.DealPrice, s.DiscountPercent)
		if s.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", s.Description)
		}
	}
	return sb.String()
}

type CompetitorContextService struct {
	DB            *sql.DB
	maxBusinesses int
	maxSamples    int
}

func NewCompetitorContextService(db *sql.DB, cfg config.PipelineConfig) *CompetitorContextService {
	return &CompetitorContextService{
		DB:            db,
		maxBusinesses: cfg.MaxCompetitorBusinesses,
		maxSamples:    cfg.MaxCompetitorSamples,
	}
}

// BuildContext returns the top active deals (by claim count) among a bounded
// sample of same-category businesses, excluding the caller's own listings.
func (s *CompetitorContextService) BuildContext(ctx context.Context, category, businessID string) (CompetitorContext, error) {
	if strings.TrimSpace(category) == "" {
		return CompetitorContext{}, nil
	}

	// Bounded candidate sample first, to avoid an unbounded join on a
	// popular category.
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id FROM businesses
		WHERE category = $1 AND id <> $2
		LIMIT $3
	`, category, businessID, s.maxBusinesses)
	if err != nil {
		return CompetitorContext{}, fmt.Errorf("failed to query candidate businesses: %w", err)
	}
	defer rows.Close()

	var candidateIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return CompetitorContext{}, fmt.Errorf("failed to scan business id: %w", err)
		}
		candidateIDs = append(candidateIDs, id)
	}
	if err := rows.Err(); err != nil {
		return CompetitorContext{}, fmt.Errorf("failed to read candidate businesses: %w", err)
	}
	if len(candidateIDs) == 0 {
		return CompetitorContext{}, nil
	}

	dealRows, err := s.DB.QueryContext(ctx, `
		SELECT title, COALESCE(description, ''), original_price, deal_price, discount_percent, deal_kind
		FROM deals
		WHERE status = 'active' AND business_id = ANY($1)
		ORDER BY claim_count DESC
		LIMIT $2
	`, pq.Array(candidateIDs), s.maxSamples)
	if err != nil {
		return CompetitorContext{}, fmt.Errorf("failed to query competitor deals: %w", err)
	}
	defer dealRows.Close()

	var samples []models.CompetitorSample
	for dealRows.Next() {
		var sample models.CompetitorSample
		if err := dealRows.Scan(
			&sample.Title, &sample.Description,
			&sample.OriginalPrice, &sample.DealPrice,
			&sample.DiscountPercent, &sample.DealKind,
		); err != nil {
			return CompetitorContext{}, fmt.Errorf("failed to scan competitor deal: %w", err)
		}
		samples = append(samples, sample)
	}
	if err := dealRows.Err(); err != nil {
		return CompetitorContext{}, fmt.Errorf("failed to read competitor deals: %w", err)
	}

	return CompetitorContext{Samples: samples}, nil
}
