package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/steemit/tweetstore/internal/reply"
	"github.com/steemit/tweetstore/internal/store"
)

// ReplyDefaults fill in reply requests that carry no key or model
type ReplyDefaults struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ReplyAPI exposes reply generation over JSON-RPC
type ReplyAPI struct {
	service  *reply.Service
	store    *store.Guarded
	defaults ReplyDefaults
}

// NewReplyAPI creates the reply API
func NewReplyAPI(service *reply.Service, s *store.Guarded, defaults ReplyDefaults) *ReplyAPI {
	return &ReplyAPI{
		service:  service,
		store:    s,
		defaults: defaults,
	}
}

// GenerateParams are the parameters of reply.generate. When PostID is set
// the stored post supplies the tweet text and its ancestors the thread;
// Self names the author whose posts count as the assistant's turns.
type GenerateParams struct {
	Prompt    string          `json:"prompt"`
	TweetText string          `json:"tweetText"`
	Thread    []reply.Message `json:"thread,omitempty"`
	PostID    string          `json:"postId,omitempty"`
	Self      string          `json:"self,omitempty"`
	APIKey    string          `json:"apiKey,omitempty"`
	Model     string          `json:"model,omitempty"`
}

// GenerateResult is the generated reply
type GenerateResult struct {
	Reply string `json:"reply"`
}

// Generate produces a reply. Model failures yield the fallback reply, not an error.
func (a *ReplyAPI) Generate(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p GenerateParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}

	rc := reply.Context{
		APIKey:    p.APIKey,
		Model:     p.Model,
		TweetText: p.TweetText,
		Thread:    p.Thread,
	}
	if rc.APIKey == "" {
		rc.APIKey = a.defaults.APIKey
	}
	if rc.Model == "" {
		rc.Model = a.defaults.Model
	}

	if p.PostID != "" {
		chain := a.store.Ancestors(p.PostID)
		if len(chain) == 0 {
			return nil, NewError(ErrServerError, fmt.Sprintf("post %s not found", p.PostID))
		}
		target := chain[len(chain)-1]
		if rc.TweetText == "" {
			rc.TweetText = target.Text
		}
		if len(rc.Thread) == 0 {
			rc.Thread = reply.ThreadMessages(chain[:len(chain)-1], p.Self)
		}
	}

	if rc.TweetText == "" {
		return nil, InvalidParams("tweetText or postId is required")
	}

	ctx := c.Request.Context()
	if a.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.defaults.Timeout)
		defer cancel()
	}

	return GenerateResult{Reply: a.service.Generate(ctx, p.Prompt, rc)}, nil
}
