// Package reply generates reply suggestions for a tweet with Gemini.
//
// It is a stateless adapter: one request in, one model call, one string out.
// Nothing here depends on the post store.
package reply

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/steemit/tweetstore/pkg/logging"
	"github.com/steemit/tweetstore/pkg/telemetry"
)

const (
	// DefaultModel is used when the context names no model
	DefaultModel = "gemini-2.0-flash"

	// FallbackReply is returned whenever no reply text could be produced
	FallbackReply = "Sorry, I couldn't generate a reply right now."

	systemInstruction = "You write short, friendly replies to tweets. Reply with the tweet text only."
)

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context carries everything a reply request needs
type Context struct {
	APIKey    string    `json:"apiKey"`
	Model     string    `json:"model,omitempty"`
	TweetText string    `json:"tweetText"`
	Thread    []Message `json:"thread,omitempty"`
}

// Generator is the part of the genai client the replier calls
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeneratorFactory builds a Generator for an API key
type GeneratorFactory func(ctx context.Context, apiKey string) (Generator, error)

// NewGenAIGenerator returns the Gemini API models client for apiKey
func NewGenAIGenerator(ctx context.Context, apiKey string) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client.Models, nil
}

// Replier turns a reply request into a single model call
type Replier struct {
	newGenerator GeneratorFactory
	logger       *zap.Logger
}

// NewReplier creates a replier. A nil factory uses NewGenAIGenerator.
func NewReplier(factory GeneratorFactory) *Replier {
	if factory == nil {
		factory = NewGenAIGenerator
	}
	return &Replier{
		newGenerator: factory,
		logger:       logging.WithComponent("reply"),
	}
}

// GenerateReply asks the model for a reply. It never fails: any error, or a
// response without text, yields FallbackReply.
func (r *Replier) GenerateReply(ctx context.Context, prompt string, rc Context) string {
	ctx, span := telemetry.StartSpan(ctx, "reply.generate")
	defer span.End()

	if rc.APIKey == "" {
		r.logger.Warn("Reply requested without an API key")
		return FallbackReply
	}

	model := rc.Model
	if model == "" {
		model = DefaultModel
	}

	gen, err := r.newGenerator(ctx, rc.APIKey)
	if err != nil {
		r.logger.Error("Failed to create generator", zap.Error(err))
		return FallbackReply
	}

	contents := BuildContents(prompt, rc)
	resp, err := gen.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		r.logger.Error("Reply generation failed", zap.String("model", model), zap.Error(err))
		return FallbackReply
	}

	text, ok := extractText(resp)
	if !ok {
		r.logger.Warn("Reply response had no text", zap.String("model", model))
		return FallbackReply
	}

	r.logger.Debug("Generated reply",
		zap.String("model", model),
		zap.Int("turns", len(contents)),
		zap.Int("reply_len", len(text)))
	return text
}

// BuildContents builds the request contents. A thread with more than one
// message and no explicit prompt is sent as a conversation; everything else
// becomes a single templated user turn.
func BuildContents(prompt string, rc Context) []*genai.Content {
	if len(rc.Thread) > 1 && prompt == "" {
		return conversation(rc.Thread)
	}
	return []*genai.Content{
		genai.NewContentFromText(renderPrompt(prompt, rc.TweetText), genai.RoleUser),
	}
}

// conversation maps thread roles onto Gemini roles and merges consecutive
// turns of the same role so that user and model alternate.
func conversation(thread []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(thread))
	var last *genai.Content
	for _, msg := range thread {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := string(mapRole(msg.Role))
		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, &genai.Part{Text: msg.Content})
			continue
		}
		last = &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		}
		contents = append(contents, last)
	}
	return contents
}

func mapRole(role string) genai.Role {
	switch strings.ToLower(role) {
	case "assistant", "model", "bot":
		return genai.RoleModel
	default:
		return genai.RoleUser
	}
}

// extractText joins the text parts of the first candidate
func extractText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", false
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	return text, text != ""
}
