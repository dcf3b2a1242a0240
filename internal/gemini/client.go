// Package gemini is a minimal client for the generateContent endpoint of
// the Google Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// NoResponseText is substituted when a successful response carries no
// candidate text. Wording matches the dashboard this service replaces.
const NoResponseText = "Maaf, tidak ada respons yang diterima."

const verifyPrompt = "Explain how AI works in a few words"

type Client struct {
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(model string) *Client {
	return &Client{
		model:   model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetTestTransport points the client at a test server.
func (c *Client) SetTestTransport(baseURL string) {
	c.baseURL = baseURL
}

type request struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text"`
}

// Response is the success shape: candidates[0].content.parts[0].text.
type Response struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// APIError is a non-success status from the remote service. No body
// schema is guaranteed.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error %d", e.StatusCode)
}

// Generate sends the prompt with the given credential and returns the
// generated text. A structurally empty success response yields
// NoResponseText, never an error.
func (c *Client) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	reqBody := request{
		Contents: []Content{{Parts: []Part{{Text: prompt}}}},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return ExtractText(&apiResp), nil
}

// Verify checks that a credential is accepted by the remote service using
// a short fixed prompt.
func (c *Client) Verify(ctx context.Context, apiKey string) error {
	if _, err := c.Generate(ctx, verifyPrompt, apiKey); err != nil {
		return fmt.Errorf("verify credential: %w", err)
	}
	return nil
}

// ExtractText is total: it always returns a string, falling back to
// NoResponseText when the response has no candidate text.
func ExtractText(resp *Response) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return NoResponseText
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return NoResponseText
	}
	return parts[0].Text
}
