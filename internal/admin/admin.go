package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HanTheDev/complexity-analyzer/internal/auth"
	"github.com/HanTheDev/complexity-analyzer/internal/models"
	"github.com/HanTheDev/complexity-analyzer/internal/respond"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const tokenTTL = 24 * time.Hour

type CacheAdmin interface {
	Stats() models.CacheStats
	Purge() int
}

type AnalyticsStore interface {
	GetAnalytics(ctx context.Context, from, to string) (*models.Analytics, error)
}

type AdminHandler struct {
	cache     CacheAdmin
	analytics AnalyticsStore
	adminKey  string
	jwtSecret string
}

// NewAdminHandler wires the admin surface. analytics may be nil when no
// database is configured.
func NewAdminHandler(cache CacheAdmin, analytics AnalyticsStore, adminKey, jwtSecret string) *AdminHandler {
	return &AdminHandler{
		cache:     cache,
		analytics: analytics,
		adminKey:  adminKey,
		jwtSecret: jwtSecret,
	}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/token", h.IssueToken).Methods("POST")

	authMiddleware := auth.NewMiddleware(h.jwtSecret)
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware.Authenticate)

	// Cache
	admin.HandleFunc("/cache/stats", h.GetCacheStats).Methods("GET")
	admin.HandleFunc("/cache", h.PurgeCache).Methods("DELETE")

	// Analytics
	admin.HandleFunc("/analytics", h.GetAnalytics).Methods("GET")
}

func (h *AdminHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AdminKey string `json:"admin_key"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if !auth.KeyMatches(req.AdminKey, h.adminKey) {
		logrus.Warnf("Rejected admin token request from %s", r.RemoteAddr)
		respond.Detail(w, http.StatusUnauthorized, "Invalid admin key")
		return
	}

	token, err := auth.GenerateToken("admin", h.jwtSecret, tokenTTL)
	if err != nil {
		logrus.Errorf("Token generation failed: %v", err)
		respond.Detail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.cache.Stats())
}

func (h *AdminHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	purgedBy := "unknown"
	if claims, ok := auth.GetClaimsFromContext(r.Context()); ok {
		purgedBy = fmt.Sprintf("%s (%s)", claims.Subject, claims.Role)
	}

	n := h.cache.Purge()
	logrus.Infof("Analysis cache purged by %s (%d entries)", purgedBy, n)
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "purged",
		"purged":    n,
		"purged_by": purgedBy,
	})
}

func (h *AdminHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		respond.Detail(w, http.StatusServiceUnavailable, "Analytics require DATABASE_URL")
		return
	}

	// Get query params for time range
	from := r.URL.Query().Get("from") // e.g., "2026-01-01"
	to := r.URL.Query().Get("to")

	stats, err := h.analytics.GetAnalytics(r.Context(), from, to)
	if err != nil {
		logrus.Errorf("Failed to get analytics: %v", err)
		respond.Detail(w, http.StatusInternalServerError, "Failed to get analytics")
		return
	}

	respond.JSON(w, http.StatusOK, stats)
}
