package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DealSproutAdmin/deals-api/config"
	"github.com/DealSproutAdmin/deals-api/models"
)

// ============================================================================
// FAKES
// ============================================================================

type fakeFetcher struct {
	result *FetchResult
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeContextBuilder struct {
	context CompetitorContext
	err     error
}

func (f *fakeContextBuilder) BuildContext(ctx context.Context, category, businessID string) (CompetitorContext, error) {
	return f.context, f.err
}

type fakeAI struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeAI) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ExcerptBudget:       8000,
		MinContentLength:    50,
		MaxImagesConsidered: 20,
		MaxImagesReturned:   10,
	}
}

func proPizzeria() models.BusinessProfile {
	return models.BusinessProfile{
		ID:               "biz-1",
		Name:             "Mario's Pizzeria",
		Category:         "restaurants",
		Location:         "Lyon",
		SubscriptionTier: "professional",
	}
}

const pizzeriaHTML = `<html><body>
<script>trackVisitors()</script>
<h1>Mario's Pizzeria</h1>
<p>Wood-fired pizza made fresh daily. Margherita $10, Quattro Formaggi $14. Open Tuesday to Sunday, 11am-10pm.</p>
<img src="/photos/margherita.jpg">
<img src="/photos/oven.jpg">
</body></html>`

const validProposalJSON = `{
	"business_summary": "A wood-fired pizzeria in Lyon.",
	"extracted_info": {"business_type": "restaurant", "services": ["dine-in"], "price_range": "$10-$14"},
	"suggested_deals": [
		{"title": "Flash Margherita", "deal_kind": "flash", "original_price": 10, "deal_price": 7, "discount_percent": 30, "max_claims": 50},
		{"title": "Formaggi Weeknights", "deal_kind": "standard", "original_price": 14, "deal_price": 10.5, "discount_percent": 25, "max_claims": 100}
	],
	"recommended_images": ["https://pizzeria.example/photos/margherita.jpg"]
}`

func newTestAnalyzer(fetcher *fakeFetcher, contextBuilder *fakeContextBuilder, ai *fakeAI) *WebsiteAnalyzerService {
	cfg := testPipelineConfig()
	return NewWebsiteAnalyzerService(
		fetcher,
		NewContentSanitizer(cfg),
		NewImageExtractor(cfg),
		contextBuilder,
		ai,
	)
}

// ============================================================================
// TESTS
// ============================================================================

func TestAnalyzeWebsiteHappyPath(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL:   "https://pizzeria.example",
		Body:       []byte(pizzeriaHTML),
		StatusCode: 200,
	}}
	ai := &fakeAI{response: validProposalJSON}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	result, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.NoError(t, err)

	require.Equal(t, "https://pizzeria.example", result.WebsiteURL)
	require.Equal(t, []string{
		"https://pizzeria.example/photos/margherita.jpg",
		"https://pizzeria.example/photos/oven.jpg",
	}, result.WebsiteImages)
	require.Len(t, result.Analysis.SuggestedDeals, 2)
	require.Equal(t, "A wood-fired pizzeria in Lyon.", result.Analysis.BusinessSummary)

	// The prompt carries the sanitized excerpt and image URLs, never raw HTML.
	require.Len(t, ai.prompts, 1)
	require.Contains(t, ai.prompts[0], "Margherita $10")
	require.NotContains(t, ai.prompts[0], "trackVisitors")
	require.Contains(t, ai.prompts[0], "https://pizzeria.example/photos/oven.jpg")
}

func TestAnalyzeWebsiteForbiddenTierShortCircuits(t *testing.T) {
	fetcher := &fakeFetcher{}
	ai := &fakeAI{}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	profile := proPizzeria()
	profile.SubscriptionTier = "free"

	_, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", profile)
	require.Error(t, err)
	require.Equal(t, ErrKindForbidden, AsPipelineError(err).Kind)

	// No network or AI cost may be incurred for an unentitled caller.
	require.Zero(t, fetcher.calls)
	require.Zero(t, ai.calls)
}

func TestAnalyzeWebsiteInsufficientContent(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://thin.example",
		Body:     []byte("<html><body>js only</body></html>"),
	}}
	ai := &fakeAI{}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	_, err := analyzer.AnalyzeWebsite(context.Background(), "thin.example", proPizzeria())
	require.Error(t, err)
	require.Equal(t, ErrKindInsufficientContent, AsPipelineError(err).Kind)
	require.Zero(t, ai.calls, "no generation cost for unusable pages")
}

func TestAnalyzeWebsiteParsesJSONWrappedInProse(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://pizzeria.example",
		Body:     []byte(pizzeriaHTML),
	}}
	ai := &fakeAI{response: "Sure! Here is the proposal you asked for:\n" + validProposalJSON + "\nLet me know if you need anything else."}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	result, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.NoError(t, err)
	require.Len(t, result.Analysis.SuggestedDeals, 2)
}

func TestAnalyzeWebsiteMalformedOutput(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://pizzeria.example",
		Body:     []byte(pizzeriaHTML),
	}}
	ai := &fakeAI{response: "I could not find any information about this business."}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	_, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.Error(t, err)
	require.Equal(t, ErrKindMalformedOutput, AsPipelineError(err).Kind)
}

func TestAnalyzeWebsiteEmptyProposalWhenAllVariantsInvalid(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://pizzeria.example",
		Body:     []byte(pizzeriaHTML),
	}}
	// deal_price >= original_price in both variants.
	ai := &fakeAI{response: `{
		"business_summary": "x",
		"suggested_deals": [
			{"title": "bad", "deal_kind": "flash", "original_price": 10, "deal_price": 12, "discount_percent": 20},
			{"title": "worse", "deal_kind": "standard", "original_price": 0, "deal_price": 0, "discount_percent": 0}
		]
	}`}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	_, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.Error(t, err)
	require.Equal(t, ErrKindEmptyProposal, AsPipelineError(err).Kind)
}

func TestAnalyzeWebsiteGenerationTimeout(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://pizzeria.example",
		Body:     []byte(pizzeriaHTML),
	}}
	ai := &fakeAI{err: fmt.Errorf("request aborted: %w", context.DeadlineExceeded)}
	analyzer := newTestAnalyzer(fetcher, &fakeContextBuilder{}, ai)

	_, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.Error(t, err)
	require.Equal(t, ErrKindTimeout, AsPipelineError(err).Kind)
}

func TestAnalyzeWebsiteDegradesWithoutCompetitorContext(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://pizzeria.example",
		Body:     []byte(pizzeriaHTML),
	}}
	ai := &fakeAI{response: validProposalJSON}
	contextBuilder := &fakeContextBuilder{err: fmt.Errorf("db unavailable")}
	analyzer := newTestAnalyzer(fetcher, contextBuilder, ai)

	result, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.NoError(t, err, "competitive data is an enrichment, not a requirement")
	require.Len(t, result.Analysis.SuggestedDeals, 2)
}

func TestAnalyzeWebsitePromptIncludesCompetitorContext(t *testing.T) {
	fetcher := &fakeFetcher{result: &FetchResult{
		FinalURL: "https://pizzeria.example",
		Body:     []byte(pizzeriaHTML),
	}}
	ai := &fakeAI{response: validProposalJSON}
	contextBuilder := &fakeContextBuilder{context: CompetitorContext{Samples: []models.CompetitorSample{
		{Title: "Lunch Special", DealKind: "standard", OriginalPrice: 20, DealPrice: 12, DiscountPercent: 40},
	}}}
	analyzer := newTestAnalyzer(fetcher, contextBuilder, ai)

	_, err := analyzer.AnalyzeWebsite(context.Background(), "pizzeria.example", proPizzeria())
	require.NoError(t, err)
	require.Contains(t, ai.prompts[0], "Lunch Special")
}

// ============================================================================
// PARSER & VALIDATOR UNITS
// ============================================================================

func TestExtractJSONObject(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "bare object", input: `{"a":1}`, expected: `{"a":1}`, ok: true},
		{name: "leading prose", input: `Here you go: {"a":1} done`, expected: `{"a":1}`, ok: true},
		{name: "nested objects", input: `x{"a":{"b":2}}y`, expected: `{"a":{"b":2}}`, ok: true},
		{name: "braces inside strings", input: `{"a":"}{","b":1}`, expected: `{"a":"}{","b":1}`, ok: true},
		{name: "escaped quotes", input: `{"a":"say \"hi\" {"}`, expected: `{"a":"say \"hi\" {"}`, ok: true},
		{name: "no object", input: "nothing here", ok: false},
		{name: "unbalanced", input: `{"a":1`, ok: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.input)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestValidateVariantsDiscountTolerance(t *testing.T) {
	variants := []models.DealVariant{
		// Computed discount: 30%. Stated 30.5 is within tolerance.
		{Title: "ok", OriginalPrice: 100, DealPrice: 70, DiscountPercent: 30.5},
		// Stated 35 is more than a point off.
		{Title: "off", OriginalPrice: 100, DealPrice: 70, DiscountPercent: 35},
		{Title: "free is not a deal", OriginalPrice: 100, DealPrice: 0, DiscountPercent: 100},
	}

	valid := validateVariants(variants)
	require.Len(t, valid, 1)
	require.Equal(t, "ok", valid[0].Title)
}

func TestEnforceKindMix(t *testing.T) {
	flash := models.DealVariant{Title: "f", DealKind: models.DealKindFlash, OriginalPrice: 10, DealPrice: 5, DiscountPercent: 50}
	standard := models.DealVariant{Title: "s", DealKind: models.DealKindStandard, OriginalPrice: 10, DealPrice: 5, DiscountPercent: 50}

	// Mixed list of three passes through untouched.
	mixed := []models.DealVariant{flash, standard, standard}
	require.Equal(t, mixed, enforceKindMix(mixed))

	// Three or more of a single kind is trimmed to two.
	allFlash := []models.DealVariant{flash, flash, flash}
	require.Len(t, enforceKindMix(allFlash), 2)

	// Short lists are left alone regardless of mix.
	pair := []models.DealVariant{standard, standard}
	require.Equal(t, pair, enforceKindMix(pair))
}
