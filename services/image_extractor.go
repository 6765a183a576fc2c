package services

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/DealSproutAdmin/deals-api/config"
)

// ============================================================================
// IMAGE EXTRACTOR
// Repère les images exploitables du site pour les proposer comme visuels
// de deal. Travaille sur le HTML brut (le sanitizer supprime les balises).
// ============================================================================

// ImageCandidate est une référence image dédupliquée résolue en URL absolue
type ImageCandidate struct {
	AbsoluteURL string
}

type ImageExtractor struct {
	maxConsidered int
	maxReturned   int
}

func NewImageExtractor(cfg config.PipelineConfig) *ImageExtractor {
	return &ImageExtractor{
		maxConsidered: cfg.MaxImagesConsidered,
		maxReturned:   cfg.MaxImagesReturned,
	}
}

// Markers of non-content assets: icons, tracking pixels, vector logos.
var skipMarkers = []string{"favicon", "pixel", "tracking", "1x1", ".svg"}

// ExtractImages scans the raw markup for image references, resolves them
// against the page origin and filters out non-content assets. The result is
// deduplicated and capped at the configured consideration limit.
func (e *ImageExtractor) ExtractImages(rawHTML []byte, baseURL string) []ImageCandidate {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}
	origin := base.Scheme + "://" + base.Host

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var refs []string
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			refs = append(refs, src)
		}
		if src, ok := sel.Attr("data-src"); ok {
			refs = append(refs, src)
		}
	})
	doc.Find("source").Each(func(_ int, sel *goquery.Selection) {
		if srcset, ok := sel.Attr("srcset"); ok {
			refs = append(refs, firstSrcsetURL(srcset))
		}
	})

	seen := make(map[string]bool)
	var candidates []ImageCandidate
	for _, ref := range refs {
		absolute, ok := resolveImageRef(base.Scheme, origin, ref)
		if !ok || seen[absolute] {
			continue
		}
		seen[absolute] = true
		candidates = append(candidates, ImageCandidate{AbsoluteURL: absolute})
		if len(candidates) >= e.maxConsidered {
			break
		}
	}

	return candidates
}

// DisplayList converts candidates to the smaller list returned to the
// caller.
func (e *ImageExtractor) DisplayList(candidates []ImageCandidate) []string {
	urls := make([]string, 0, e.maxReturned)
	for _, c := range candidates {
		if len(urls) >= e.maxReturned {
			break
		}
		urls = append(urls, c.AbsoluteURL)
	}
	return urls
}

// resolveImageRef turns a raw src reference into an absolute URL. Bare
// relative paths resolve against the origin root, not the document path —
// a deliberate simplification carried over from the product behavior.
func resolveImageRef(scheme, origin, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return "", false
	}

	lower := strings.ToLower(ref)
	for _, marker := range skipMarkers {
		if strings.Contains(lower, marker) {
			return "", false
		}
	}

	switch {
	case strings.HasPrefix(ref, "//"):
		return scheme + ":" + ref, true
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return ref, true
	case strings.HasPrefix(ref, "/"):
		return origin + ref, true
	default:
		return origin + "/" + ref, true
	}
}

// firstSrcsetURL picks the first URL out of a srcset attribute, ignoring
// width descriptors and any further entries.
func firstSrcsetURL(srcset string) string {
	entry := srcset
	if i := strings.Index(entry, ","); i >= 0 {
		entry = entry[:i]
	}
	entry = strings.TrimSpace(entry)
	if i := strings.Index(entry, " "); i >= 0 {
		entry = entry[:i]
	}
	return entry
}
