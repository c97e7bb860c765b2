package reply

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/cache"
	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/pkg/logging"
)

// Service generates replies and remembers them in Redis when a cache is set
type Service struct {
	replier *Replier
	cache   *cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

// NewService creates a reply service. redisCache may be nil.
func NewService(replier *Replier, redisCache *cache.Cache, ttl time.Duration) *Service {
	return &Service{
		replier: replier,
		cache:   redisCache,
		ttl:     ttl,
		logger:  logging.WithComponent("reply-service"),
	}
}

// Generate returns a cached reply for the same request or asks the model.
// Fallback replies are never cached.
func (s *Service) Generate(ctx context.Context, prompt string, rc Context) string {
	key := cacheKey(prompt, rc)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.logger.Debug("Reply cache hit", zap.String("key", key))
		return cached
	case errors.Is(err, cache.ErrCacheDisabled), errors.Is(err, cache.ErrCacheMiss):
	default:
		s.logger.Warn("Reply cache lookup failed", zap.Error(err))
	}

	text := s.replier.GenerateReply(ctx, prompt, rc)
	if text == FallbackReply {
		return text
	}

	if err := s.cache.Set(ctx, key, text, s.ttl); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		s.logger.Warn("Failed to cache reply", zap.Error(err))
	}
	return text
}

func cacheKey(prompt string, rc Context) string {
	model := rc.Model
	if model == "" {
		model = DefaultModel
	}
	parts := []string{model, prompt, rc.TweetText}
	for _, msg := range rc.Thread {
		parts = append(parts, msg.Role+":"+msg.Content)
	}
	return "reply:" + cache.HashKey(parts...)
}

// ThreadMessages turns a reply chain, root first, into conversation turns.
// Posts written by self are the assistant's turns.
func ThreadMessages(chain []*models.Post, self string) []Message {
	msgs := make([]Message, 0, len(chain))
	for _, post := range chain {
		role := "user"
		if self != "" && post.Author == self {
			role = "assistant"
		}
		msgs = append(msgs, Message{Role: role, Content: post.Text})
	}
	return msgs
}
