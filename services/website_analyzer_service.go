package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/DealSproutAdmin/deals-api/models"
)

// ============================================================================
// WEBSITE ANALYZER SERVICE
// Orchestration du pipeline : gate d'abonnement → fetch → sanitize/extract
// + contexte concurrent → génération → validation. Un appel, un résultat
// ou une erreur classée. Aucun retry automatique.
// ============================================================================

// PageFetcher is implemented by WebsiteFetcher; tests inject fakes to assert
// that no fetch happens before the entitlement gate.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*FetchResult, error)
}

// ContextBuilder is implemented by CompetitorContextService.
type ContextBuilder interface {
	BuildContext(ctx context.Context, category, businessID string) (CompetitorContext, error)
}

type WebsiteAnalyzerService struct {
	Fetcher   PageFetcher
	Sanitizer *ContentSanitizer
	Images    *ImageExtractor
	Context   ContextBuilder
	AIService GenerativeClient
}

func NewWebsiteAnalyzerService(
	fetcher PageFetcher,
	sanitizer *ContentSanitizer,
	images *ImageExtractor,
	contextBuilder ContextBuilder,
	aiService GenerativeClient,
) *WebsiteAnalyzerService {
	return &WebsiteAnalyzerService{
		Fetcher:   fetcher,
		Sanitizer: sanitizer,
		Images:    images,
		Context:   contextBuilder,
		AIService: aiService,
	}
}

// AnalyzeWebsite runs the full single-shot pipeline for one vendor request.
// Every returned error is a *PipelineError.
func (s *WebsiteAnalyzerService) AnalyzeWebsite(ctx context.Context, rawURL string, profile models.BusinessProfile) (*models.AnalyzeWebsiteResponse, error) {
	// Entitlement gate first: no network or AI cost for callers whose plan
	// doesn't include the feature.
	if !EntitlementsForTier(profile.SubscriptionTier).WebsiteAnalysis {
		return nil, NewPipelineError(ErrKindForbidden,
			fmt.Errorf("tier %q lacks website analysis", profile.SubscriptionTier))
	}

	fetched, err := s.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, AsPipelineError(err)
	}

	// The competitor query has no data dependency on the page content, so it
	// runs while we sanitize and extract locally.
	type contextResult struct {
		context CompetitorContext
		err     error
	}
	contextCh := make(chan contextResult, 1)
	go func() {
		c, err := s.Context.BuildContext(ctx, profile.Category, profile.ID)
		contextCh <- contextResult{context: c, err: err}
	}()

	sanitized, err := s.Sanitizer.Sanitize(fetched.Body)
	if err != nil {
		return nil, AsPipelineError(err)
	}
	if !s.Sanitizer.Sufficient(sanitized) {
		return nil, NewPipelineError(ErrKindInsufficientContent,
			fmt.Errorf("sanitized excerpt is %d chars", len([]rune(sanitized.Excerpt))))
	}

	images := s.Images.ExtractImages(fetched.Body, fetched.FinalURL)

	competitorResult := <-contextCh
	competitorContext := competitorResult.context
	if competitorResult.err != nil {
		// Competitive data is an enrichment, not a requirement.
		log.Printf("[Analyzer] ⚠️  Competitor context unavailable: %v", competitorResult.err)
		competitorContext = CompetitorContext{}
	}

	rawOutput, err := s.AIService.Generate(ctx,
		dealStrategistSystemPrompt,
		buildProposalPrompt(sanitized, images, competitorContext, profile),
	)
	if err != nil {
		return nil, classifyGenerationError(err)
	}

	proposal, err := parseProposal(rawOutput)
	if err != nil {
		return nil, NewPipelineError(ErrKindMalformedOutput, err)
	}

	validVariants := validateVariants(proposal.SuggestedDeals)
	if len(validVariants) == 0 {
		return nil, NewPipelineError(ErrKindEmptyProposal,
			fmt.Errorf("no variant passed validation out of %d", len(proposal.SuggestedDeals)))
	}
	proposal.SuggestedDeals = enforceKindMix(validVariants)

	return &models.AnalyzeWebsiteResponse{
		Analysis:      proposal,
		WebsiteURL:    fetched.FinalURL,
		WebsiteImages: s.Images.DisplayList(images),
	}, nil
}

// ============================================================================
// PROMPT BUILDING
// ============================================================================

const dealStrategistSystemPrompt = `You are a deal-creation strategist for a local deals marketplace.
You analyze a business website and design deal offers that attract new customers while staying profitable.
Respond with a single JSON object only. No markdown, no prose before or after.`

func buildProposalPrompt(
	sanitized SanitizedContent,
	images []ImageCandidate,
	competitorContext CompetitorContext,
	profile models.BusinessProfile,
) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Business profile:\n- Name: %s\n- Category: %s\n- Location: %s\n\n",
		profile.Name, profile.Category, profile.Location)

	sb.WriteString("Website content (sanitized excerpt):\n")
	sb.WriteString(sanitized.Excerpt)
	sb.WriteString("\n\n")

	if len(images) > 0 {
		sb.WriteString("Images found on the website:\n")
		for _, img := range images {
			sb.WriteString("- " + img.AbsoluteURL + "\n")
		}
		sb.WriteString("\n")
	}

	if competitorContext.HasData() {
		sb.WriteString(competitorContext.FormatForPrompt())
		sb.WriteString("\n")
	}

	sb.WriteString(`Based on the website content, produce deal proposals for this business.

Rules:
1. Suggest 3 to 5 deal variants.
2. At least one variant must have "deal_kind": "flash" (short-lived, 24-72h) and at least one must be "standard" or "seasonal" (longer-running).
3. Every variant must satisfy deal_price < original_price, with discount_percent matching (original_price - deal_price) / original_price * 100.
4. Use the competitor deals above (if any) as pricing anchors: stay competitive without undercutting into losses.
5. "recommended_images" must only contain URLs from the image list above.

Return ONLY valid JSON, exact format:
{
  "business_summary": "2-3 sentence summary of the business",
  "extracted_info": {
    "business_type": "...",
    "services": ["..."],
    "price_range": "...",
    "location": "...",
    "contact_info": "...",
    "opening_hours": "..."
  },
  "suggested_deals": [
    {
      "title": "...",
      "description": "...",
      "deal_kind": "flash",
      "original_price": 50.00,
      "deal_price": 35.00,
      "discount_percent": 30,
      "max_claims": 50,
      "terms": "...",
      "how_it_works": "...",
      "highlights": ["..."],
      "amenities": ["..."],
      "fine_print": "...",
      "image_prompt": "..."
    }
  ],
  "recommended_images": ["..."]
}`)

	return sb.String()
}

// ============================================================================
// OUTPUT PARSING & VALIDATION
// ============================================================================

// parseProposal locates the first balanced JSON object in the backend output
// (the model sometimes wraps it in prose despite instructions) and decodes it.
func parseProposal(raw string) (*models.DealProposal, error) {
	jsonSpan, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in generation output")
	}

	var proposal models.DealProposal
	if err := json.Unmarshal([]byte(jsonSpan), &proposal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proposal: %w", err)
	}
	return &proposal, nil
}

// extractJSONObject returns the first balanced {...} span in s, tracking
// string literals so braces inside values don't confuse the depth count.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// discountTolerance is the allowed drift between the stated discount percent
// and the one computed from the prices.
const discountTolerance = 1.0

// validateVariants keeps only variants whose monetary fields are coherent.
// Backend output is trusted structurally, never semantically.
func validateVariants(variants []models.DealVariant) []models.DealVariant {
	var valid []models.DealVariant
	for _, v := range variants {
		if v.OriginalPrice <= 0 || v.DealPrice <= 0 || v.DealPrice >= v.OriginalPrice {
			log.Printf("[Analyzer] Dropping variant %q: incoherent prices (%.2f -> %.2f)",
				v.Title, v.OriginalPrice, v.DealPrice)
			continue
		}
		computed := (v.OriginalPrice - v.DealPrice) / v.OriginalPrice * 100
		if diff := v.DiscountPercent - computed; diff > discountTolerance || diff < -discountTolerance {
			log.Printf("[Analyzer] Dropping variant %q: discount %.1f%% doesn't match computed %.1f%%",
				v.Title, v.DiscountPercent, computed)
			continue
		}
		valid = append(valid, v)
	}
	return valid
}

// enforceKindMix ensures a list of three or more variants contains both a
// flash variant and a longer-running one; when the mix is missing, the list
// is trimmed to the top two so no unbalanced three-deal set reaches vendors.
func enforceKindMix(variants []models.DealVariant) []models.DealVariant {
	if len(variants) < 3 {
		return variants
	}
	hasFlash := false
	hasLonger := false
	for _, v := range variants {
		if v.DealKind == models.DealKindFlash {
			hasFlash = true
		} else {
			hasLonger = true
		}
	}
	if hasFlash && hasLonger {
		return variants
	}
	log.Printf("[Analyzer] Variant list missing deal-kind mix, trimming %d -> 2", len(variants))
	return variants[:2]
}

func classifyGenerationError(err error) *PipelineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewPipelineError(ErrKindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewPipelineError(ErrKindTimeout, err)
	}
	return NewPipelineError(ErrKindGeneration, err)
}
