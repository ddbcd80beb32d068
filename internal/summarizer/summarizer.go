package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Client handles the summarization API (OpenAI-compatible chat completions)
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new summarization client
func NewClient(apiKey, model, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// FAQ is a single question/answer pair in a summary
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Summary is the structured summarization result. Every field is
// required; TLDR holds exactly 3 entries and FAQs exactly 5.
type Summary struct {
	Summary  string   `json:"summary"`
	TLDR     []string `json:"tldr"`
	FAQs     []FAQ    `json:"faqs"`
	Heading  string   `json:"heading"`
	Category string   `json:"category"`
}

// MergeSuggestion is one proposed category consolidation
type MergeSuggestion struct {
	From   []string `json:"from"`
	To     string   `json:"to"`
	Reason string   `json:"reason"`
}

// CategoryCount pairs a category name with its article count
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const systemInstruction = "You are a professional news summarizer for Indian readers. " +
	"Always focus on India's perspective and ensure headlines mention India prominently. " +
	"Respond with valid JSON only."

// maxPromptBytes caps the article text included in the prompt
const maxPromptBytes = 10000

// Summarize rewrites an article body into a structured summary. The
// response schema is enforced strictly: malformed model output is an
// error, never a partial result.
func (c *Client) Summarize(ctx context.Context, bodyText string) (*Summary, error) {
	content, err := c.complete(ctx, buildSummaryPrompt(bodyText), 2000)
	if err != nil {
		return nil, err
	}

	var summary Summary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return nil, fmt.Errorf("parsing summary response: %w", err)
	}

	if err := summary.validate(); err != nil {
		return nil, err
	}

	return &summary, nil
}

func (s *Summary) validate() error {
	if s.Summary == "" || s.Heading == "" || s.Category == "" {
		return fmt.Errorf("summary response missing required fields")
	}
	if len(s.TLDR) != 3 {
		return fmt.Errorf("tldr must contain exactly 3 items, got %d", len(s.TLDR))
	}
	for i, point := range s.TLDR {
		if point == "" {
			return fmt.Errorf("tldr item %d is empty", i)
		}
	}
	if len(s.FAQs) != 5 {
		return fmt.Errorf("faqs must contain exactly 5 items, got %d", len(s.FAQs))
	}
	for i, faq := range s.FAQs {
		if faq.Question == "" || faq.Answer == "" {
			return fmt.Errorf("faq %d must have both question and answer", i)
		}
	}
	return nil
}

// SuggestCategoryMerges asks the model which of the current categories
// should be consolidated. Suggested target names are normalized to
// title casing before being returned.
func (c *Client) SuggestCategoryMerges(ctx context.Context, categories []CategoryCount) ([]MergeSuggestion, error) {
	if len(categories) == 0 {
		return nil, nil
	}

	content, err := c.complete(ctx, buildMergePrompt(categories), 1000)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Suggestions []MergeSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("parsing merge suggestions: %w", err)
	}

	for i := range parsed.Suggestions {
		if parsed.Suggestions[i].To == "" || len(parsed.Suggestions[i].From) == 0 {
			return nil, fmt.Errorf("merge suggestion %d missing from/to", i)
		}
		parsed.Suggestions[i].To = NormalizeCategory(parsed.Suggestions[i].To)
	}

	return parsed.Suggestions, nil
}

// NormalizeCategory applies the casing convention used for category
// labels: every word capitalized, single spaces.
func NormalizeCategory(name string) string {
	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.7,
		MaxTokens:      maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("summarization API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no content in summarization response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func buildSummaryPrompt(bodyText string) string {
	if len(bodyText) > maxPromptBytes {
		bodyText = bodyText[:maxPromptBytes]
	}

	return fmt.Sprintf(`Analyze the following article and provide a structured summary response for an Indian audience.

Article to summarize:
%s

Provide your response as a JSON object with this structure:
- summary: Rephrase the article in approximately 500 words. Use 3rd person format, simple vocabulary and a conversational tone. Focus on how this news impacts or relates to India and Indians.
- tldr: Array of exactly 3 key points that highlight the India connection.
- faqs: Array of exactly 5 FAQ objects with "question" and "answer" fields that Indian readers would want to know.
- heading: An engaging headline that mentions India or an Indian city prominently.
- category: Maximum 3 words describing the category (prefer India-focused categories like "India Politics", "India Sports", "India Economy").

Requirements:
- Create exactly 3 tldr bullet points and exactly 5 FAQs.
- Keep the India connection clear throughout.
- The heading must clearly show the India angle.`, bodyText)
}

func buildMergePrompt(categories []CategoryCount) string {
	var list strings.Builder
	for _, c := range categories {
		fmt.Fprintf(&list, "- %s (%d articles)\n", c.Name, c.Count)
	}

	return fmt.Sprintf(`These are the article categories currently in use on a news site, with article counts:

%s
Suggest which categories should be merged because they cover the same topic under different names or casings. Respond as a JSON object:
{"suggestions": [{"from": ["Old Name A", "Old Name B"], "to": "Target Name", "reason": "short explanation"}]}

Only suggest merges that are clearly the same topic. An empty suggestions array is a valid answer.`, list.String())
}
