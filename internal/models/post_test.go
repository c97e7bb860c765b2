package models

import (
	"testing"
	"time"
)

func strPtr(s string) *string {
	return &s
}

func TestPatchApplyTo(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	media := []string{"https://img/1.png"}

	tests := []struct {
		name         string
		patch        Patch
		expected     Post
		edgesChanged bool
	}{
		{
			name:     "empty patch",
			patch:    Patch{},
			expected: Post{ID: "a", ThreadID: "p", QuoteID: "q", Text: "hi"},
		},
		{
			name:     "text only",
			patch:    Patch{Text: strPtr("edited")},
			expected: Post{ID: "a", ThreadID: "p", QuoteID: "q", Text: "edited"},
		},
		{
			name:         "move thread",
			patch:        Patch{ThreadID: strPtr("other")},
			expected:     Post{ID: "a", ThreadID: "other", QuoteID: "q", Text: "hi"},
			edgesChanged: true,
		},
		{
			name:         "clear quote",
			patch:        Patch{QuoteID: strPtr("")},
			expected:     Post{ID: "a", ThreadID: "p", Text: "hi"},
			edgesChanged: true,
		},
		{
			name:     "same thread is not a change",
			patch:    Patch{ThreadID: strPtr("p")},
			expected: Post{ID: "a", ThreadID: "p", QuoteID: "q", Text: "hi"},
		},
		{
			name:     "payload fields",
			patch:    Patch{Author: strPtr("bob"), Media: &media, Created: &created},
			expected: Post{ID: "a", ThreadID: "p", QuoteID: "q", Text: "hi", Author: "bob", Media: media, Created: created},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Post{ID: "a", ThreadID: "p", QuoteID: "q", Text: "hi"}
			changed := tt.patch.ApplyTo(&p)
			if changed != tt.edgesChanged {
				t.Errorf("ApplyTo() edgesChanged = %v, want %v", changed, tt.edgesChanged)
			}
			if p.ID != tt.expected.ID || p.ThreadID != tt.expected.ThreadID || p.QuoteID != tt.expected.QuoteID ||
				p.Text != tt.expected.Text || p.Author != tt.expected.Author || !p.Created.Equal(tt.expected.Created) ||
				len(p.Media) != len(tt.expected.Media) {
				t.Errorf("ApplyTo() = %+v, want %+v", p, tt.expected)
			}
		})
	}
}

func TestPostClone(t *testing.T) {
	p := &Post{ID: "a", Media: []string{"x"}, ReplyCount: 2}
	c := p.Clone()
	c.Media[0] = "y"
	c.ReplyCount = 5

	if p.Media[0] != "x" || p.ReplyCount != 2 {
		t.Errorf("Clone() shares memory with the original: %+v", p)
	}

	var nilPost *Post
	if nilPost.Clone() != nil {
		t.Error("Clone() of nil should be nil")
	}
}

func TestPostFlags(t *testing.T) {
	tests := []struct {
		name    string
		post    Post
		isReply bool
		isQuote bool
	}{
		{"root", Post{ID: "a"}, false, false},
		{"reply", Post{ID: "a", ThreadID: "b"}, true, false},
		{"quote", Post{ID: "a", QuoteID: "b"}, false, true},
		{"both", Post{ID: "a", ThreadID: "b", QuoteID: "c"}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.IsReply(); got != tt.isReply {
				t.Errorf("IsReply() = %v, want %v", got, tt.isReply)
			}
			if got := tt.post.IsQuote(); got != tt.isQuote {
				t.Errorf("IsQuote() = %v, want %v", got, tt.isQuote)
			}
		})
	}
}
