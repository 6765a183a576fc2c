package services

import "strings"

// ============================================================================
// SUBSCRIPTION ENTITLEMENTS
// L'analyse de site web est une fonctionnalité payante : le palier est
// vérifié AVANT tout travail réseau ou appel IA (contrôle de coût).
// ============================================================================

type FeatureFlags struct {
	WebsiteAnalysis bool
	CompetitorData  bool
}

var tierEntitlements = map[string]FeatureFlags{
	"free":         {WebsiteAnalysis: false, CompetitorData: false},
	"starter":      {WebsiteAnalysis: false, CompetitorData: true},
	"professional": {WebsiteAnalysis: true, CompetitorData: true},
	"enterprise":   {WebsiteAnalysis: true, CompetitorData: true},
}

// EntitlementsForTier returns the feature flags for a subscription tier.
// Unknown tiers get no entitlements.
func EntitlementsForTier(tier string) FeatureFlags {
	return tierEntitlements[strings.ToLower(strings.TrimSpace(tier))]
}
