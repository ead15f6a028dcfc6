package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/shared"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultBedrockModelID is an inference profile ID, not the foundation model's ID.
	defaultBedrockModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultBedrockMaxTokens = 4096
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockSession is a chat session on the Bedrock Converse API.
type BedrockSession struct {
	transcript
	brc         bedrockRuntimeClient
	modelID     string
	temperature float32
	instruction string
}

// NewBedrockSession loads the AWS default configuration and opens a session.
// Credentials are resolved here so a missing one fails before the first message.
func NewBedrockSession(ctx context.Context, opts Options, instruction string) (*BedrockSession, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to load AWS config: %v", ErrMissingCredential, err)
	}
	return newBedrockSessionFromConfig(ctx, awsCfg, opts, instruction)
}

func newBedrockSessionFromConfig(ctx context.Context, awsCfg aws.Config, opts Options, instruction string) (*BedrockSession, error) {
	if awsCfg.Credentials == nil {
		return nil, fmt.Errorf("%w: no AWS credentials provider", ErrMissingCredential)
	}
	if _, err := awsCfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("%w: unable to retrieve AWS credentials: %v", ErrMissingCredential, err)
	}
	return newBedrockSession(bedrockruntime.NewFromConfig(awsCfg), opts, instruction), nil
}

func newBedrockSession(brc bedrockRuntimeClient, opts Options, instruction string) *BedrockSession {
	modelID := opts.Model
	if modelID == "" {
		modelID = defaultBedrockModelID
	}
	return &BedrockSession{
		brc:         brc,
		modelID:     modelID,
		temperature: opts.Temperature,
		instruction: instruction,
	}
}

func textMessage(role types.ConversationRole, text string) types.Message {
	return types.Message{
		Role:    role,
		Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: text}},
	}
}

// SendMessage replays the history plus text through Converse.
func (s *BedrockSession) SendMessage(ctx context.Context, text string) (Reply, error) {
	msgs := make([]types.Message, 0, len(s.transcript.messages)+1)
	for _, m := range s.transcript.messages {
		role := types.ConversationRoleUser
		if m.Role == RoleModel {
			role = types.ConversationRoleAssistant
		}
		msgs = append(msgs, textMessage(role, m.Text))
	}
	msgs = append(msgs, textMessage(types.ConversationRoleUser, text))

	in := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(s.modelID),
		System:   []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: s.instruction}},
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(defaultBedrockMaxTokens),
			Temperature: aws.Float32(s.temperature),
		},
	}

	out, err := s.brc.Converse(ctx, in)
	if err != nil {
		return Reply{}, &TransportError{Provider: string(ProviderBedrock), Err: err}
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return Reply{}, &TransportError{Provider: string(ProviderBedrock), Err: errors.New("unexpected converse output type")}
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(tb.Value)
		}
	}
	if sb.Len() == 0 {
		return Reply{}, &TransportError{Provider: string(ProviderBedrock), Err: errors.New("no content generated")}
	}

	reply := Reply{Text: sb.String(), Usage: shared.TokenUsage{Model: s.modelID}}
	if out.Usage != nil {
		reply.Usage.PromptTokens = int(aws.ToInt32(out.Usage.InputTokens))
		reply.Usage.CompletionTokens = int(aws.ToInt32(out.Usage.OutputTokens))
		reply.Usage.TotalTokens = int(aws.ToInt32(out.Usage.TotalTokens))
	}

	s.record(text, reply.Text)
	return reply, nil
}
