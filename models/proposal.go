package models

// ============================================================================
// DEAL PROPOSAL - Sortie structurée du pipeline d'analyse de site web
// ============================================================================

// ExtractedInfo regroupe les informations factuelles extraites du site
type ExtractedInfo struct {
	BusinessType string   `json:"business_type,omitempty"`
	Services     []string `json:"services,omitempty"`
	PriceRange   string   `json:"price_range,omitempty"`
	Location     string   `json:"location,omitempty"`
	ContactInfo  string   `json:"contact_info,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
}

// DealVariant est une proposition d'offre individuelle générée par l'IA
type DealVariant struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DealKind        string   `json:"deal_kind"`
	OriginalPrice   float64  `json:"original_price"`
	DealPrice       float64  `json:"deal_price"`
	DiscountPercent float64  `json:"discount_percent"`
	MaxClaims       int      `json:"max_claims"`
	Terms           string   `json:"terms"`
	HowItWorks      string   `json:"how_it_works"`
	Highlights      []string `json:"highlights"`
	Amenities       []string `json:"amenities"`
	FinePrint       string   `json:"fine_print"`
	ImagePrompt     string   `json:"image_prompt"`
}

// DealProposal est l'artefact final retourné au vendeur.
// Généré à la volée, jamais persisté par le pipeline lui-même.
type DealProposal struct {
	BusinessSummary   string        `json:"business_summary"`
	ExtractedInfo     ExtractedInfo `json:"extracted_info"`
	SuggestedDeals    []DealVariant `json:"suggested_deals"`
	RecommendedImages []string      `json:"recommended_images"`
}

// AnalyzeWebsiteResponse est la réponse succès de l'endpoint d'analyse
type AnalyzeWebsiteResponse struct {
	Analysis      *DealProposal `json:"analysis"`
	WebsiteURL    string        `json:"website_url"`
	WebsiteImages []string      `json:"website_images"`
}
