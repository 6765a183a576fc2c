package config

import (
	"os"
	"strconv"
	"time"
)

// ============================================================================
// PIPELINE CONFIGURATION
// Tous les plafonds de coût du pipeline d'analyse sont réglables par env,
// avec des valeurs par défaut sûres.
// ============================================================================

type PipelineConfig struct {
	// Fetcher
	FetchTimeout    time.Duration
	MaxRedirects    int
	MaxBodyBytes    int64
	TLSVerification bool // disabled by default, see NewWebsiteFetcher

	// Sanitizer
	ExcerptBudget    int
	MinContentLength int

	// Image extractor
	MaxImagesConsidered int
	MaxImagesReturned   int

	// Competitive context
	MaxCompetitorBusinesses int
	MaxCompetitorSamples    int

	// Claude AI
	ClaudeModel       string
	ClaudeMaxTokens   int
	ClaudeTemperature float64
	ClaudeTimeout     time.Duration
	ClaudeRPM         int
}

func LoadPipelineConfig() PipelineConfig {
	return PipelineConfig{
		FetchTimeout:    time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		MaxRedirects:    getEnvInt("FETCH_MAX_REDIRECTS", 5),
		MaxBodyBytes:    int64(getEnvInt("FETCH_MAX_BODY_BYTES", 5*1024*1024)),
		TLSVerification: os.Getenv("FETCH_TLS_VERIFICATION") == "enabled",

		ExcerptBudget:    getEnvInt("SANITIZER_EXCERPT_BUDGET", 8000),
		MinContentLength: getEnvInt("SANITIZER_MIN_CONTENT", 100),

		MaxImagesConsidered: getEnvInt("IMAGES_MAX_CONSIDERED", 20),
		MaxImagesReturned:   getEnvInt("IMAGES_MAX_RETURNED", 10),

		MaxCompetitorBusinesses: getEnvInt("CONTEXT_MAX_BUSINESSES", 20),
		MaxCompetitorSamples:    getEnvInt("CONTEXT_MAX_SAMPLES", 5),

		ClaudeModel:       getEnvString("CLAUDE_MODEL", "claude-3-5-sonnet-latest"),
		ClaudeMaxTokens:   getEnvInt("CLAUDE_MAX_TOKENS", 3000),
		ClaudeTemperature: getEnvFloat("CLAUDE_TEMPERATURE", 0.7),
		ClaudeTimeout:     time.Duration(getEnvInt("CLAUDE_TIMEOUT_SECONDS", 60)) * time.Second,
		ClaudeRPM:         getEnvInt("CLAUDE_RPM", 30),
	}
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
