package handlers

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/DealSproutAdmin/deals-api/config"
	"github.com/DealSproutAdmin/deals-api/models"
	"github.com/DealSproutAdmin/deals-api/services"
	"github.com/DealSproutAdmin/deals-api/utils"
)

// WebsiteAnalyzer is the pipeline entry point the handler depends on.
type WebsiteAnalyzer interface {
	AnalyzeWebsite(ctx context.Context, rawURL string, profile models.BusinessProfile) (*models.AnalyzeWebsiteResponse, error)
}

// ProfileLoader resolves the authenticated caller to a business profile.
type ProfileLoader interface {
	GetProfile(ctx context.Context, businessID string) (models.BusinessProfile, error)
}

type AnalyzerHandler struct {
	Analyzer WebsiteAnalyzer
	Profiles ProfileLoader
}

func NewAnalyzerHandler(db *sql.DB) *AnalyzerHandler {
	cfg := config.LoadPipelineConfig()

	analyzer := services.NewWebsiteAnalyzerService(
		services.NewWebsiteFetcher(cfg),
		services.NewContentSanitizer(cfg),
		services.NewImageExtractor(cfg),
		services.NewCompetitorContextService(db, cfg),
		services.NewClaudeAIService(cfg),
	)

	return &AnalyzerHandler{
		Analyzer: analyzer,
		Profiles: services.NewBusinessProfileService(db),
	}
}

type AnalyzeWebsiteRequest struct {
	URL string `json:"url" binding:"required"`
}

// AnalyzeWebsite runs the website-to-deal-suggestion pipeline for the
// authenticated business. Every pipeline failure is mapped to one of the
// stable error kinds; internal error text never reaches the response.
func (h *AnalyzerHandler) AnalyzeWebsite(c *gin.Context) {
	businessID := c.GetString("business_id")
	if businessID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req AnalyzeWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	analysisID := uuid.NewString()
	log.Printf("[Analyzer] %s: business %s requested analysis of %s",
		analysisID, utils.MaskID(businessID), utils.MaskURL(req.URL))

	profile, err := h.Profiles.GetProfile(c.Request.Context(), businessID)
	if err != nil {
		h.respondError(c, analysisID, err)
		return
	}

	result, err := h.Analyzer.AnalyzeWebsite(c.Request.Context(), req.URL, profile)
	if err != nil {
		h.respondError(c, analysisID, err)
		return
	}

	log.Printf("[Analyzer] %s: done, %d deal variants suggested", analysisID, len(result.Analysis.SuggestedDeals))
	c.JSON(http.StatusOK, result)
}

func (h *AnalyzerHandler) respondError(c *gin.Context, analysisID string, err error) {
	perr := services.AsPipelineError(err)
	log.Printf("[Analyzer] %s: failed (%s): %v", analysisID, perr.Kind, perr)
	c.JSON(perr.HTTPStatus(), gin.H{"error": perr.Message})
}
