package models

import "time"

// AnalysisRequest is the body accepted by POST /analyze.
type AnalysisRequest struct {
	Code  *string `json:"code"`
	Model string  `json:"model,omitempty"`
}

// AnalysisResponse carries the cleaned model text. The text is expected to be
// a JSON object but is never validated.
type AnalysisResponse struct {
	RawOutput string `json:"raw_output"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
	CacheNone CacheStatus = "NONE"
)

type AccessLog struct {
	ID             int64       `json:"id"`
	RequestID      string      `json:"request_id"`
	Model          string      `json:"model"`
	CodeLength     int         `json:"code_length"`
	CacheStatus    CacheStatus `json:"cache_status"`
	StatusCode     int         `json:"status_code"`
	ResponseTimeMs int         `json:"response_time_ms"`
	ClientAddr     string      `json:"client_addr"`
	Timestamp      time.Time   `json:"timestamp"`
}

type CacheStats struct {
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

type ModelUsage struct {
	Model    string `json:"model"`
	Requests int64  `json:"requests"`
}

type Analytics struct {
	TotalRequests     int64        `json:"total_requests"`
	CacheHits         int64        `json:"cache_hits"`
	Errors            int64        `json:"errors"`
	AvgResponseTimeMs float64      `json:"avg_response_time_ms"`
	ByModel           []ModelUsage `json:"by_model"`
}
