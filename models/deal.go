package models

import "time"

// Deal kinds used across the marketplace. Flash deals are short-lived
// (24-72h), standard deals run for weeks, seasonal deals follow a campaign.
const (
	DealKindFlash    = "flash"
	DealKindStandard = "standard"
	DealKindSeasonal = "seasonal"
)

// Deal représente une offre active de la marketplace
type Deal struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"business_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DealKind        string    `json:"deal_kind"`
	OriginalPrice   float64   `json:"original_price"`
	DealPrice       float64   `json:"deal_price"`
	DiscountPercent float64   `json:"discount_percent"`
	ClaimCount      int       `json:"claim_count"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// CompetitorSample est un extrait en lecture seule d'une offre concurrente,
// utilisé uniquement comme ancre de prix dans le prompt de génération
type CompetitorSample struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	OriginalPrice   float64 `json:"original_price"`
	DealPrice       float64 `json:"deal_price"`
	DiscountPercent float64 `json:"discount_percent"`
	DealKind        string  `json:"deal_kind"`
}
