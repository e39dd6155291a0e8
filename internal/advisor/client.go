package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

const systemPrompt = "You are a helpful fintech AI assistant."

// ChatClient calls an OpenAI-compatible chat-completions endpoint
// (OpenRouter by default).
type ChatClient struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	httpClient  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewChatClient creates a client from configuration. Timeouts come from the
// caller's context.
func NewChatClient(cfg domain.AdvisorConfig, httpClient *http.Client) *ChatClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &ChatClient{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}
}

// Ask requests a recommendation. It never returns an error: every failure is
// reported as an Unavailable result with a reason.
func (c *ChatClient) Ask(ctx context.Context, results []domain.CostResult) domain.AIRecommendation {
	if c.apiKey == "" {
		return unavailable(domain.ReasonMissingCredential)
	}

	content, err := c.complete(ctx, buildPrompt(results))
	if err != nil {
		return unavailable(domain.ReasonRequestFailed)
	}

	platform, explanation := parseAnswer(content)
	if platform == "" || explanation == "" {
		return unavailable(domain.ReasonMalformedResponse)
	}

	return domain.AIRecommendation{
		Status:      domain.AIStatusOK,
		Platform:    platform,
		Explanation: explanation,
	}
}

func (c *ChatClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

func buildPrompt(results []domain.CostResult) string {
	var options strings.Builder
	for _, r := range results {
		fmt.Fprintf(&options, "Platform: %s\n", r.Platform)
		fmt.Fprintf(&options, "Net received: %.2f\n", r.NetReceived)
		fmt.Fprintf(&options, "Total fee: %.2f\n", r.TotalFee)
		fmt.Fprintf(&options, "FX loss: %.2f\n", r.FXLoss)
		fmt.Fprintf(&options, "Settlement time: %d days\n\n", r.SettlementTimeDays)
	}

	return `You are a fintech decision assistant.

Compare international payment options and recommend the best one.

Decision rules:
- Highest net received is most important
- Lower total fee and FX loss are important
- Faster settlement time is a bonus

Payment options:
` + options.String() + `
Respond STRICTLY in this format:

Best Platform: <platform name>
Explanation:
- Why this platform is recommended
- Trade-offs involved
- One alternative option
`
}

// parseAnswer extracts the platform from the "Best Platform:" line and joins
// the "-" bullet lines into the explanation.
func parseAnswer(content string) (platform, explanation string) {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToLower(strings.TrimLeft(trimmed, "*# ")), "best platform"):
			if _, after, ok := strings.Cut(trimmed, ":"); ok {
				platform = strings.Trim(after, "* ")
			}
		case strings.HasPrefix(trimmed, "-"):
			if bullet := strings.TrimSpace(strings.TrimLeft(trimmed, "- ")); bullet != "" {
				lines = append(lines, bullet)
			}
		}
	}
	return platform, strings.Join(lines, " ")
}

func unavailable(reason string) domain.AIRecommendation {
	return domain.AIRecommendation{Status: domain.AIStatusUnavailable, Reason: reason}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
