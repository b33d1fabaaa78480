package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"tradepost/internal/models"
)

const (
	aiMaxFailures   = 3
	aiCooldown      = time.Minute
	aiClientTimeout = 1500 * time.Millisecond
)

const maskedSummary = "[敏感内容需人工审核]"

var ErrCircuitOpen = errors.New("ai gateway circuit open")

var sensitivePattern = regexp.MustCompile(`(?i)(wechat|qq|http|://)`)

// AIGatewayClient calls the listing-enrichment endpoint. Repeated failures
// open a short circuit so a slow gateway cannot drag publish latency along.
type AIGatewayClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string

	mu           sync.Mutex
	failureCount int
	openUntil    time.Time
}

func NewAIGatewayClient(httpClient *http.Client, baseURL, apiKey string) *AIGatewayClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: aiClientTimeout}
	}
	return &AIGatewayClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *AIGatewayClient) Enrich(ctx context.Context, title, description string) (models.Enrichment, error) {
	if c == nil {
		return models.Enrichment{}, errors.New("ai client is not configured")
	}
	if err := c.ensureCircuit(); err != nil {
		return models.Enrichment{}, err
	}

	body, err := json.Marshal(map[string]string{
		"title":       title,
		"description": description,
	})
	if err != nil {
		return models.Enrichment{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/ai/extract-listing"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Enrichment{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.onFailure()
		return models.Enrichment{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.onFailure()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return models.Enrichment{}, fmt.Errorf("ai gateway error: status %d: %s", resp.StatusCode, string(data))
	}

	var enriched models.Enrichment
	if err := json.NewDecoder(resp.Body).Decode(&enriched); err != nil {
		c.onFailure()
		return models.Enrichment{}, fmt.Errorf("decode response: %w", err)
	}
	c.onSuccess()

	// Summaries carrying contact details would bypass the paid unlock.
	if sensitivePattern.MatchString(enriched.Summary) {
		enriched.Summary = maskedSummary
	}
	return enriched, nil
}

func (c *AIGatewayClient) ensureCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Now().Before(c.openUntil) {
		return ErrCircuitOpen
	}
	return nil
}

func (c *AIGatewayClient) onFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount++
	if c.failureCount >= aiMaxFailures {
		c.openUntil = time.Now().Add(aiCooldown)
		c.failureCount = 0
	}
}

func (c *AIGatewayClient) onSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount = 0
}
