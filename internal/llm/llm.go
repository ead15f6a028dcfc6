package llm

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"meal-planner/internal/shared"
)

// Message roles recorded in a session history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one turn of a conversation.
type Message struct {
	Role string
	Text string
}

// Reply contains the generated text and metadata like token usage.
type Reply struct {
	Text  string
	Usage shared.TokenUsage
}

// Session is a conversation with a model under a fixed role instruction.
// Each call to SendMessage extends the history; a new session starts empty.
type Session interface {
	SendMessage(ctx context.Context, text string) (Reply, error)
	History() []Message
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// Provider names a model backend.
type Provider string

const (
	ProviderGemini  Provider = "gemini"
	ProviderGroq    Provider = "groq"
	ProviderBedrock Provider = "bedrock"
)

// Options configures a session.
type Options struct {
	Provider    Provider
	Model       string
	Temperature float32
	// APIKey is the Gemini or Groq key depending on Provider. Bedrock uses the AWS default chain.
	APIKey string

	// HTTPClient and BaseURL override the Groq transport, mostly for tests.
	HTTPClient *http.Client
	BaseURL    string
}

// NewSession opens a session on the configured provider. Credentials are checked here,
// before any message is sent.
func NewSession(ctx context.Context, opts Options, instruction string) (Session, error) {
	switch opts.Provider {
	case ProviderGemini, "":
		return NewGeminiSession(ctx, opts, instruction)
	case ProviderGroq:
		return NewGroqSession(opts, instruction)
	case ProviderBedrock:
		return NewBedrockSession(ctx, opts, instruction)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// transcript is the append-only message log shared by all backends.
type transcript struct {
	messages []Message
}

// record appends a completed exchange. Failed calls are never recorded.
func (t *transcript) record(user, model string) {
	t.messages = append(t.messages,
		Message{Role: RoleUser, Text: user},
		Message{Role: RoleModel, Text: model},
	)
}

// History returns a copy of the conversation so far.
func (t *transcript) History() []Message {
	return slices.Clone(t.messages)
}
