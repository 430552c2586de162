package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

var (
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not configured")
	ErrEmptyResponse = errors.New("model returned no text")
)

// Generator sends a prompt to a named model and returns its raw text reply.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
	// Timeout bounds a single call. Zero leaves the call bounded only by ctx.
	Timeout time.Duration
}

// GeminiClient implements Generator on top of the Google GenAI SDK.
type GeminiClient struct {
	client  *genai.Client
	initErr error
	timeout time.Duration
}

// NewGeminiClient never fails: a missing key or a client construction error is
// kept and reported by every Generate call so the process can still start.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) *GeminiClient {
	gc := &GeminiClient{timeout: cfg.Timeout}

	if strings.TrimSpace(cfg.APIKey) == "" {
		logrus.Warn("GEMINI_API_KEY is empty; analysis requests will fail")
		gc.initErr = ErrMissingAPIKey
		return gc
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
		logrus.Infof("Using Gemini endpoint override: %s", cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		logrus.Errorf("Failed to create GenAI client: %v", err)
		gc.initErr = fmt.Errorf("failed to create GenAI client: %w", err)
		return gc
	}
	gc.client = client
	return gc
}

func (gc *GeminiClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if gc.initErr != nil {
		return "", gc.initErr
	}

	if gc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.timeout)
		defer cancel()
	}

	resp, err := gc.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
