package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/DealSproutAdmin/deals-api/handlers"
	"github.com/DealSproutAdmin/deals-api/middleware"
)

// SetupAnalyzerRoutes sets up the protected website-analysis routes.
func SetupAnalyzerRoutes(rg *gin.RouterGroup, db *sql.DB) {
	h := handlers.NewAnalyzerHandler(db)

	// The analyzer limiter runs after auth so the budget is per business,
	// not per IP.
	rg.POST("/analyzer/website", middleware.AnalyzerRateLimiter(), h.AnalyzeWebsite)
}
