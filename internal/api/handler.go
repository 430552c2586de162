package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/HanTheDev/complexity-analyzer/internal/analysis"
	"github.com/HanTheDev/complexity-analyzer/internal/metrics"
	"github.com/HanTheDev/complexity-analyzer/internal/models"
	"github.com/HanTheDev/complexity-analyzer/internal/respond"
	"github.com/sirupsen/logrus"
)

// maxBodyBytes comfortably fits 10,000 characters even when every one of
// them is JSON-escaped.
const maxBodyBytes = 1 << 20

const analysisFailedDetail = "AI Analysis Failed"

type Analyzer interface {
	Validate(code string) error
	ResolveModel(model string) string
	MaxCodeLength() int
	Analyze(ctx context.Context, code, model string) (*analysis.Result, error)
}

type Limiter interface {
	Allow(ctx context.Context, client string) (bool, error)
}

type AccessLogger interface {
	LogAccess(ctx context.Context, log *models.AccessLog) error
}

type Handler struct {
	analyzer  Analyzer
	limiter   Limiter
	accessLog AccessLogger
}

// NewHandler builds the public handlers. limiter and accessLog are optional.
func NewHandler(analyzer Analyzer, limiter Limiter, accessLog AccessLogger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		limiter:   limiter,
		accessLog: accessLog,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	entry := &models.AccessLog{
		RequestID:   RequestIDFromContext(r.Context()),
		CacheStatus: models.CacheNone,
		ClientAddr:  clientAddr(r),
	}
	defer func() {
		entry.ResponseTimeMs = int(time.Since(startTime).Milliseconds())
		h.logAccess(entry)
	}()

	var req models.AnalysisRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			entry.StatusCode = h.tooLarge(w)
			return
		}
		logrus.Debugf("Failed to decode analyze request: %v", err)
		entry.StatusCode = http.StatusUnprocessableEntity
		respond.Detail(w, entry.StatusCode, "Invalid request body")
		return
	}
	if req.Code == nil {
		entry.StatusCode = http.StatusUnprocessableEntity
		respond.Detail(w, entry.StatusCode, "Field 'code' is required")
		return
	}

	code := *req.Code
	entry.Model = h.analyzer.ResolveModel(req.Model)
	entry.CodeLength = utf8.RuneCountInString(code)

	if err := h.analyzer.Validate(code); err != nil {
		entry.StatusCode = h.tooLarge(w)
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(r.Context(), entry.ClientAddr)
		if err != nil {
			logrus.Warnf("Rate limit check failed, allowing request: %v", err)
		} else if !allowed {
			logrus.Infof("Rate limit exceeded for client %s", entry.ClientAddr)
			metrics.RateLimitedTotal.Inc()
			entry.StatusCode = http.StatusTooManyRequests
			respond.Detail(w, entry.StatusCode, "Rate limit exceeded")
			return
		}
	}

	result, err := h.analyzer.Analyze(r.Context(), code, req.Model)
	if err != nil {
		if errors.Is(err, analysis.ErrInputTooLarge) {
			entry.StatusCode = h.tooLarge(w)
			return
		}
		logrus.WithField("request_id", entry.RequestID).Errorf("Error: %v", err)
		entry.StatusCode = http.StatusInternalServerError
		respond.Detail(w, entry.StatusCode, analysisFailedDetail)
		return
	}

	entry.CacheStatus = models.CacheMiss
	if result.Cached {
		entry.CacheStatus = models.CacheHit
	}
	w.Header().Set("X-Cache-Status", string(entry.CacheStatus))

	entry.StatusCode = http.StatusOK
	respond.JSON(w, entry.StatusCode, models.AnalysisResponse{RawOutput: result.RawOutput})
}

func (h *Handler) tooLarge(w http.ResponseWriter) int {
	detail := fmt.Sprintf("Code too long. Maximum %d characters allowed.", h.analyzer.MaxCodeLength())
	respond.Detail(w, http.StatusBadRequest, detail)
	return http.StatusBadRequest
}

func (h *Handler) logAccess(entry *models.AccessLog) {
	if h.accessLog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.accessLog.LogAccess(ctx, entry); err != nil {
			logrus.Warnf("Failed to record access log: %v", err)
		}
	}()
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
