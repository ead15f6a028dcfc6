package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.0-flash"

// chatSender is satisfied by *genai.ChatSession.
type chatSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiSession is a chat session with the Google Gemini API.
type GeminiSession struct {
	transcript
	client *genai.Client
	chat   chatSender
	model  string
}

// NewGeminiSession creates a Gemini chat session with the given system instruction.
func NewGeminiSession(ctx context.Context, opts Options, instruction string) (*GeminiSession, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY environment variable not set", ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := opts.Model
	if name == "" {
		name = defaultGeminiModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(opts.Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}

	return &GeminiSession{
		client: client,
		chat:   model.StartChat(),
		model:  name,
	}, nil
}

// SendMessage sends text on the chat and returns the model's reply.
func (s *GeminiSession) SendMessage(ctx context.Context, text string) (Reply, error) {
	resp, err := s.chat.SendMessage(ctx, genai.Text(text))
	if err != nil {
		return Reply{}, &TransportError{Provider: string(ProviderGemini), Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Reply{}, &TransportError{Provider: string(ProviderGemini), Err: errors.New("no content generated")}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return Reply{}, &TransportError{Provider: string(ProviderGemini), Err: errors.New("generated content is not text")}
	}

	reply := Reply{
		Text:  sb.String(),
		Usage: shared.TokenUsage{Model: s.model},
	}
	if um := resp.UsageMetadata; um != nil {
		reply.Usage.PromptTokens = int(um.PromptTokenCount)
		reply.Usage.CompletionTokens = int(um.CandidatesTokenCount)
		reply.Usage.TotalTokens = int(um.TotalTokenCount)
	}

	s.record(text, reply.Text)
	return reply, nil
}

// Close closes the underlying Gemini client.
func (s *GeminiSession) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
