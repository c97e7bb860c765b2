package store

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/pkg/logging"
	"github.com/steemit/tweetstore/pkg/telemetry"
)

// Guarded serializes access to a PostStore: one mutator at a time, readers
// concurrent with each other while no mutation runs. Reads return copies.
type Guarded struct {
	mu        sync.RWMutex
	store     *PostStore
	mutations metric.Int64Counter
	logger    *zap.Logger
}

// NewGuarded wraps s and registers the store metrics
func NewGuarded(s *PostStore) *Guarded {
	g := &Guarded{
		store:  s,
		logger: logging.WithComponent("guarded-store"),
	}

	meter := telemetry.Meter()
	counter, err := meter.Int64Counter("tweetstore.mutations",
		metric.WithDescription("Store mutations by operation"))
	if err != nil {
		g.logger.Warn("Failed to create mutation counter", zap.Error(err))
	}
	g.mutations = counter

	_, err = meter.Int64ObservableGauge("tweetstore.posts",
		metric.WithDescription("Posts in the primary collection"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			g.mu.RLock()
			defer g.mu.RUnlock()
			o.Observe(int64(g.store.Len()))
			return nil
		}))
	if err != nil {
		g.logger.Warn("Failed to create posts gauge", zap.Error(err))
	}

	return g
}

// ReplaceAll replaces the whole collection
func (g *Guarded) ReplaceAll(ctx context.Context, posts []*models.Post) {
	g.mutate(ctx, "replace_all", func() {
		g.store.ReplaceAll(posts)
	})
}

// Insert adds a new post
func (g *Guarded) Insert(ctx context.Context, post *models.Post) {
	g.mutate(ctx, "insert", func() {
		g.store.Insert(post)
	})
}

// Update patches a post and reports whether it existed
func (g *Guarded) Update(ctx context.Context, id string, patch models.Patch) (found bool) {
	g.mutate(ctx, "update", func() {
		found = g.store.Update(id, patch)
	})
	return found
}

// DeleteOne removes one post and reports whether it existed
func (g *Guarded) DeleteOne(ctx context.Context, id string) (found bool) {
	g.mutate(ctx, "delete_one", func() {
		found = g.store.DeleteOne(id)
	})
	return found
}

// DeleteSubtree removes a reply tree and returns the removed ids
func (g *Guarded) DeleteSubtree(ctx context.Context, rootID string) (ids []string) {
	g.mutate(ctx, "delete_subtree", func() {
		ids = g.store.DeleteSubtree(rootID)
	})
	return ids
}

// GetByID returns a copy of the post with the given id
func (g *Guarded) GetByID(id string) (*models.Post, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	post, ok := g.store.GetByID(id)
	return post.Clone(), ok
}

// GetReplies returns copies of the direct replies of parentID
func (g *Guarded) GetReplies(parentID string) []*models.Post {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePosts(g.store.GetReplies(parentID))
}

// GetQuotePosts returns copies of the posts quoting id
func (g *Guarded) GetQuotePosts(id string) []*models.Post {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePosts(g.store.GetQuotePosts(id))
}

// CollectSubtreeIDs returns the ids of the reply tree rooted at rootID
func (g *Guarded) CollectSubtreeIDs(rootID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.CollectSubtreeIDs(rootID)
}

// Thread returns copies of the posts in the reply tree rooted at rootID
func (g *Guarded) Thread(rootID string) []*models.Post {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePosts(g.store.Thread(rootID))
}

// Ancestors returns copies of the reply chain ending at id
func (g *Guarded) Ancestors(id string) []*models.Post {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePosts(g.store.Ancestors(id))
}

// Posts returns copies of the primary collection
func (g *Guarded) Posts() []*models.Post {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePosts(g.store.Posts())
}

// Len returns the number of stored posts
func (g *Guarded) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.Len()
}

func (g *Guarded) mutate(ctx context.Context, op string, fn func()) {
	_, span := telemetry.StartSpan(ctx, "store."+op)
	defer span.End()

	func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		fn()
	}()

	if g.mutations != nil {
		g.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

func clonePosts(posts []*models.Post) []*models.Post {
	out := make([]*models.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}
