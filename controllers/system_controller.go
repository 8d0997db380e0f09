package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing store. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// EnrichmentInfo describes the configured content providers.
type EnrichmentInfo interface {
	TextEnabled() bool
	ImageChain() []string
}

// SystemController serves /health and /_debug/ia.
type SystemController struct {
	service string
	db      Pinger
	info    EnrichmentInfo
}

func NewSystemController(service string, db Pinger, info EnrichmentInfo) *SystemController {
	return &SystemController{service: service, db: db, info: info}
}

// Health handles GET /health.
func (sc *SystemController) Health(c *gin.Context) {
	status := gin.H{"status": "OK", "service": sc.service}
	if sc.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := sc.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "service": sc.service, "database": "unreachable"})
			return
		}
		status["database"] = "ok"
	}
	c.JSON(http.StatusOK, status)
}

// DebugIA handles GET /_debug/ia.
func (sc *SystemController) DebugIA(c *gin.Context) {
	provider := "placeholder"
	if chain := sc.info.ImageChain(); len(chain) > 0 {
		provider = strings.Join(chain, ",")
	}
	c.JSON(http.StatusOK, gin.H{
		"gemini_key_present": sc.info.TextEnabled(),
		"image_provider":     provider,
	})
}
