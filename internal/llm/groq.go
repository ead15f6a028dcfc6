package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"meal-planner/internal/shared"
)

const (
	groqAPIURL       = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel = "llama-3.3-70b-versatile"
)

// GroqSession is a chat session against the Groq OpenAI-compatible API.
// The API is stateless, so the full history is replayed on every call.
type GroqSession struct {
	transcript
	apiKey      string
	url         string
	model       string
	temperature float32
	instruction string
	httpClient  *http.Client
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewGroqSession creates a new Groq chat session.
func NewGroqSession(opts Options, instruction string) (*GroqSession, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: GROQ_API_KEY environment variable not set", ErrMissingCredential)
	}

	s := &GroqSession{
		apiKey:      opts.APIKey,
		url:         groqAPIURL,
		model:       defaultGroqModel,
		temperature: opts.Temperature,
		instruction: instruction,
		httpClient:  opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		s.url = opts.BaseURL
	}
	if opts.Model != "" {
		s.model = opts.Model
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return s, nil
}

func (s *GroqSession) buildMessages(text string) []groqMessage {
	msgs := make([]groqMessage, 0, len(s.transcript.messages)+2)
	msgs = append(msgs, groqMessage{Role: "system", Content: s.instruction})
	for _, m := range s.transcript.messages {
		role := "user"
		if m.Role == RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, groqMessage{Role: role, Content: m.Text})
	}
	return append(msgs, groqMessage{Role: "user", Content: text})
}

// SendMessage sends text to the Groq model and returns the generated reply.
func (s *GroqSession) SendMessage(ctx context.Context, text string) (Reply, error) {
	reqBody := map[string]any{
		"model":       s.model,
		"messages":    s.buildMessages(text),
		"temperature": s.temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return Reply{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Reply{}, &TransportError{Provider: string(ProviderGroq), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return Reply{}, &TransportError{
			Provider: string(ProviderGroq),
			Err:      fmt.Errorf("status=%d body=%s", resp.StatusCode, string(bodyBytes)),
		}
	}

	var groqResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&groqResp); err != nil {
		return Reply{}, &TransportError{Provider: string(ProviderGroq), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(groqResp.Choices) == 0 {
		return Reply{}, &TransportError{Provider: string(ProviderGroq), Err: fmt.Errorf("no content generated")}
	}

	reply := Reply{
		Text: groqResp.Choices[0].Message.Content,
		Usage: shared.TokenUsage{
			PromptTokens:     groqResp.Usage.PromptTokens,
			CompletionTokens: groqResp.Usage.CompletionTokens,
			TotalTokens:      groqResp.Usage.TotalTokens,
			Model:            s.model,
		},
	}
	s.record(text, reply.Text)
	return reply, nil
}
