package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntitlementsForTier(t *testing.T) {
	require.False(t, EntitlementsForTier("free").WebsiteAnalysis)
	require.False(t, EntitlementsForTier("starter").WebsiteAnalysis)
	require.True(t, EntitlementsForTier("professional").WebsiteAnalysis)
	require.True(t, EntitlementsForTier("enterprise").WebsiteAnalysis)
}

func TestEntitlementsForTierNormalizesInput(t *testing.T) {
	require.True(t, EntitlementsForTier("  Professional ").WebsiteAnalysis)
	require.True(t, EntitlementsForTier("ENTERPRISE").WebsiteAnalysis)
}

func TestEntitlementsForUnknownTier(t *testing.T) {
	flags := EntitlementsForTier("platinum")
	require.False(t, flags.WebsiteAnalysis)
	require.False(t, flags.CompetitorData)
}
