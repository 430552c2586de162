// Package geminitest serves a minimal stand-in for the Gemini generateContent
// REST endpoint. It backs the llm package tests and cmd/mockgemini.
package geminitest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Call is one generateContent request received by the stub.
type Call struct {
	Model  string
	Prompt string
}

// Stub answers every generateContent call with its reply, or with an API error
// after Fail has been called.
type Stub struct {
	mu         sync.Mutex
	reply      string
	failStatus int
	calls      []Call
}

func NewStub(reply string) *Stub {
	return &Stub{reply: reply}
}

// SetReply changes the reply and clears any failure set by Fail.
func (s *Stub) SetReply(reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = reply
	s.failStatus = 0
}

// Fail makes subsequent calls return an error with the given HTTP status.
func (s *Stub) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

type generateRequest struct {
	Contents []struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, ":generateContent")
	idx := strings.LastIndex(path, "models/")
	if r.Method != http.MethodPost || path == r.URL.Path || idx < 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown method "+r.URL.Path)
		return
	}
	model := path[idx+len("models/"):]

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON payload")
		return
	}

	var prompt strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
		}
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Model: model, Prompt: prompt.String()})
	reply, failStatus := s.reply, s.failStatus
	s.mu.Unlock()

	logrus.Debugf("Stub generateContent for model %s (%d prompt chars)", model, prompt.Len())

	if failStatus != 0 {
		writeError(w, failStatus, "INTERNAL", "stubbed failure")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []interface{}{map[string]string{"text": reply}},
				},
				"finishReason": "STOP",
			},
		},
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
			"status":  code,
		},
	})
}
