package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DealSproutAdmin/deals-api/config"
)

// ============================================================================
// CONTENT SANITIZER
// Transforme le HTML brut en un extrait textuel borné, prêt pour le prompt.
// ============================================================================

// SanitizedContent est dérivé de façon déterministe du corps récupéré
type SanitizedContent struct {
	Excerpt   string
	Truncated bool
}

type ContentSanitizer struct {
	excerptBudget    int
	minContentLength int
}

func NewContentSanitizer(cfg config.PipelineConfig) *ContentSanitizer {
	return &ContentSanitizer{
		excerptBudget:    cfg.ExcerptBudget,
		minContentLength: cfg.MinContentLength,
	}
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Sanitize strips script, style, svg, noscript and iframe blocks, drops all
// remaining markup (comments fall out with it), collapses whitespace runs
// and hard-truncates to the excerpt budget. The truncation is a blunt
// deterministic cutoff, not a summary: prompt cost matters more than the
// tail of the page.
func (s *ContentSanitizer) Sanitize(rawHTML []byte) (SanitizedContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return SanitizedContent{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, svg, noscript, iframe").Remove()

	text := doc.Text()
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	truncated := false
	if runes := []rune(text); len(runes) > s.excerptBudget {
		text = string(runes[:s.excerptBudget])
		truncated = true
	}

	return SanitizedContent{Excerpt: text, Truncated: truncated}, nil
}

// Sufficient reports whether the excerpt is long enough to analyze. Pages
// below the threshold are almost always JavaScript-rendered or blocked, and
// a completion built on them would be worse than an explicit error.
func (s *ContentSanitizer) Sufficient(content SanitizedContent) bool {
	return len([]rune(content.Excerpt)) >= s.minContentLength
}
