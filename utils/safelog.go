// utils/safelog.go
// ============================================================================
// SAFE LOGGING - Masque les données sensibles en production
// ============================================================================
// Les URLs soumises par les vendeurs peuvent contenir des tokens de session,
// des emails ou des identifiants dans la query string. En production ces
// fragments sont masqués avant d'atteindre les logs.
// ============================================================================

package utils

import (
	"log"
	"net/url"
	"os"
	"regexp"
)

var (
	// IsProduction détermine si on est en mode production
	// En production, les données sensibles sont masquées
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"
)

var (
	// Pattern pour emails
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Pattern pour UUIDs complets
	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// MaskID masque partiellement un ID (garde les 8 premiers caractères)
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

// MaskURL strips the query string and masks embedded emails or UUIDs from a
// submitted website URL before it is logged. Unparseable input is masked
// wholesale rather than logged raw.
func MaskURL(rawURL string) string {
	if !IsProduction {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "***"
	}
	if parsed.RawQuery != "" {
		parsed.RawQuery = "..."
	}
	masked := parsed.String()
	masked = emailRegex.ReplaceAllString(masked, "***@***.***")
	masked = uuidRegex.ReplaceAllStringFunc(masked, func(id string) string {
		return id[:8] + "..."
	})
	return masked
}

// GetEnvMode retourne le mode d'environnement actuel
func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

// LogStartup log les informations de démarrage de l'application
func LogStartup(appName string, port string) {
	log.Printf("🚀 %s starting...", appName)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: Sensitive data will be masked in logs")
	}
}
