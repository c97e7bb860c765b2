package reply

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/steemit/tweetstore/internal/models"
)

type fakeGenerator struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls int

	model    string
	contents []*genai.Content
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	return f.resp, f.err
}

func factoryFor(gen Generator) GeneratorFactory {
	return func(context.Context, string) (Generator, error) {
		return gen, nil
	}
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: string(genai.RoleModel)}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func partTexts(c *genai.Content) []string {
	var out []string
	for _, p := range c.Parts {
		out = append(out, p.Text)
	}
	return out
}

func TestBuildContents(t *testing.T) {
	thread := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
	}

	t.Run("thread without prompt becomes a conversation", func(t *testing.T) {
		contents := BuildContents("", Context{TweetText: "third", Thread: thread})
		require.Len(t, contents, 3)
		assert.Equal(t, string(genai.RoleUser), contents[0].Role)
		assert.Equal(t, string(genai.RoleModel), contents[1].Role)
		assert.Equal(t, string(genai.RoleUser), contents[2].Role)
		assert.Equal(t, []string{"second"}, partTexts(contents[1]))
	})

	t.Run("explicit prompt wins over thread", func(t *testing.T) {
		contents := BuildContents("Be brief: {{.TweetText}}", Context{TweetText: "hello", Thread: thread})
		require.Len(t, contents, 1)
		assert.Equal(t, string(genai.RoleUser), contents[0].Role)
		assert.Equal(t, []string{"Be brief: hello"}, partTexts(contents[0]))
	})

	t.Run("instruction-only prompt still carries the tweet", func(t *testing.T) {
		contents := BuildContents("Reply in a witty tone", Context{TweetText: "the actual tweet body"})
		require.Len(t, contents, 1)
		assert.Equal(t, []string{"Reply in a witty tone\n\nthe actual tweet body"}, partTexts(contents[0]))
	})

	t.Run("single message thread uses the default template", func(t *testing.T) {
		contents := BuildContents("", Context{TweetText: "hello", Thread: thread[:1]})
		require.Len(t, contents, 1)
		assert.Equal(t, []string{"Write a reply to this tweet:\n\nhello"}, partTexts(contents[0]))
	})

	t.Run("consecutive roles are merged", func(t *testing.T) {
		contents := BuildContents("", Context{Thread: []Message{
			{Role: "user", Content: "a"},
			{Role: "user", Content: "b"},
			{Role: "model", Content: "c"},
			{Role: "stranger", Content: "d"},
			{Role: "user", Content: "  "},
		}})
		require.Len(t, contents, 3)
		assert.Equal(t, []string{"a", "b"}, partTexts(contents[0]))
		assert.Equal(t, string(genai.RoleModel), contents[1].Role)
		assert.Equal(t, string(genai.RoleUser), contents[2].Role)
		assert.Equal(t, []string{"d"}, partTexts(contents[2]))
	})
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name     string
		prompt   string
		tweet    string
		expected string
	}{
		{"default template", "", "gm", "Write a reply to this tweet:\n\ngm"},
		{"custom template", "Roast this: {{.TweetText}}", "gm", "Roast this: gm"},
		{"plain prompt", "Say something nice", "gm", "Say something nice\n\ngm"},
		{"tweet inside a branch", "{{if .TweetText}}Reply to: {{.TweetText}}{{end}}", "gm", "Reply to: gm"},
		{"tweet in a defined template", `{{define "t"}}<{{.TweetText}}>{{end}}Reply {{template "t" .}}`, "gm", "Reply <gm>"},
		{"broken template", "Oops {{.TweetText", "gm", "Oops {{.TweetText\n\ngm"},
		{"unknown field", "{{.Missing}}", "gm", "{{.Missing}}\n\ngm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, renderPrompt(tt.prompt, tt.tweet))
		})
	}
}

func TestGenerateReply(t *testing.T) {
	ctx := context.Background()
	rc := Context{APIKey: "key", TweetText: "hello"}

	t.Run("returns the candidate text", func(t *testing.T) {
		gen := &fakeGenerator{resp: textResponse("Hi ", "there!")}
		got := NewReplier(factoryFor(gen)).GenerateReply(ctx, "", rc)
		assert.Equal(t, "Hi there!", got)
		assert.Equal(t, 1, gen.calls)
		assert.Equal(t, DefaultModel, gen.model)
	})

	t.Run("uses the requested model", func(t *testing.T) {
		gen := &fakeGenerator{resp: textResponse("ok")}
		withModel := rc
		withModel.Model = "gemini-pro"
		NewReplier(factoryFor(gen)).GenerateReply(ctx, "", withModel)
		assert.Equal(t, "gemini-pro", gen.model)
	})

	fallbacks := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"call error", &fakeGenerator{err: errors.New("quota")}},
		{"nil response", &fakeGenerator{}},
		{"no candidates", &fakeGenerator{resp: &genai.GenerateContentResponse{}}},
		{"nil content", &fakeGenerator{resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}}},
		{"blank text", &fakeGenerator{resp: textResponse("   ")}},
	}
	for _, tt := range fallbacks {
		t.Run(tt.name, func(t *testing.T) {
			got := NewReplier(factoryFor(tt.gen)).GenerateReply(ctx, "", rc)
			assert.Equal(t, FallbackReply, got)
		})
	}

	t.Run("missing api key makes no call", func(t *testing.T) {
		gen := &fakeGenerator{resp: textResponse("ok")}
		got := NewReplier(factoryFor(gen)).GenerateReply(ctx, "", Context{TweetText: "x"})
		assert.Equal(t, FallbackReply, got)
		assert.Zero(t, gen.calls)
	})

	t.Run("factory error", func(t *testing.T) {
		factory := func(context.Context, string) (Generator, error) {
			return nil, errors.New("bad key")
		}
		assert.Equal(t, FallbackReply, NewReplier(factory).GenerateReply(ctx, "", rc))
	})
}

func TestServiceWithoutCache(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("sure")}
	svc := NewService(NewReplier(factoryFor(gen)), nil, time.Hour)

	ctx := context.Background()
	rc := Context{APIKey: "key", TweetText: "hello"}
	assert.Equal(t, "sure", svc.Generate(ctx, "", rc))
	assert.Equal(t, "sure", svc.Generate(ctx, "", rc))
	assert.Equal(t, 2, gen.calls)
}

func TestCacheKey(t *testing.T) {
	base := Context{TweetText: "hello", Thread: []Message{{Role: "user", Content: "a"}}}
	other := base
	other.Thread = []Message{{Role: "assistant", Content: "a"}}

	assert.Equal(t, cacheKey("", base), cacheKey("", base))
	assert.NotEqual(t, cacheKey("", base), cacheKey("", other))
	assert.NotEqual(t, cacheKey("", base), cacheKey("p", base))

	explicit := base
	explicit.Model = DefaultModel
	assert.Equal(t, cacheKey("", base), cacheKey("", explicit))
}

func TestThreadMessages(t *testing.T) {
	chain := []*models.Post{
		{ID: "a", Author: "alice", Text: "root"},
		{ID: "b", Author: "me", Text: "mine", ThreadID: "a"},
		{ID: "c", Author: "bob", Text: "reply", ThreadID: "b"},
	}

	msgs := ThreadMessages(chain, "me")
	assert.Equal(t, []Message{
		{Role: "user", Content: "root"},
		{Role: "assistant", Content: "mine"},
		{Role: "user", Content: "reply"},
	}, msgs)

	for _, m := range ThreadMessages(chain, "") {
		assert.Equal(t, "user", m.Role)
	}
}
