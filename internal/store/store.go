package store

import (
	"time"

	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/pkg/logging"
)

// PostStore keeps the primary post collection and the indices derived from it.
//
// The collection held by the settings container is the source of truth. byID,
// childrenByThreadID and quotesByID are rebuilt from it after every mutation,
// so they are always exactly consistent once a public method returns.
//
// PostStore is not safe for concurrent use. Wrap it in a Guarded when it is
// shared between goroutines.
type PostStore struct {
	settings *models.Settings

	byID               map[string]*models.Post
	childrenByThreadID map[string][]*models.Post
	quotesByID         map[string][]*models.Post

	now    func() time.Time
	logger *zap.Logger
}

// Option configures a PostStore
type Option func(*PostStore)

// WithClock sets the clock used for Updated timestamps
func WithClock(now func() time.Time) Option {
	return func(s *PostStore) {
		s.now = now
	}
}

// WithLogger sets the store logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *PostStore) {
		s.logger = logger
	}
}

// New creates a store over the given settings container and indexes its tweets.
// A nil settings gets an empty container.
func New(settings *models.Settings, opts ...Option) *PostStore {
	if settings == nil {
		settings = &models.Settings{}
	}
	s := &PostStore{
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.WithComponent("post-store")
	}
	s.rebuild()
	return s
}

// Settings returns the settings container the store writes to
func (s *PostStore) Settings() *models.Settings {
	return s.settings
}

// ReplaceAll adopts posts as the new primary collection and rebuilds every
// index. The slice is taken by reference and not validated.
func (s *PostStore) ReplaceAll(posts []*models.Post) {
	s.settings.Tweets = posts
	s.rebuild()

	s.logger.Debug("Replaced collection", zap.Int("posts", len(posts)))
}

// Insert prepends post to the collection and bumps the counters of the post
// it replies to and the post it quotes, when those exist.
func (s *PostStore) Insert(post *models.Post) {
	if post == nil {
		return
	}
	s.settings.Tweets = append([]*models.Post{post}, s.settings.Tweets...)

	now := s.now()
	if parent, ok := s.lookup(post.ThreadID); ok {
		parent.ReplyCount++
		parent.Updated = now
	}
	if target, ok := s.lookup(post.QuoteID); ok {
		target.Retweet++
		target.Updated = now
	}

	s.rebuild()

	s.logger.Debug("Inserted post",
		zap.String("id", post.ID),
		zap.String("thread_id", post.ThreadID),
		zap.String("quote_id", post.QuoteID))
}

// Update merges patch into the post with the given id. It reports false when
// the post does not exist.
//
// Counters of old and new parents or quote targets are left as they are, so
// moving a reply with Update lets ReplyCount and Retweet drift from a recount.
func (s *PostStore) Update(id string, patch models.Patch) bool {
	post, ok := s.byID[id]
	if !ok {
		return false
	}

	edgesChanged := patch.ApplyTo(post)
	post.Updated = s.now()
	s.rebuild()

	if edgesChanged {
		s.logger.Debug("Updated post edges, counters not repaired",
			zap.String("id", id),
			zap.String("thread_id", post.ThreadID),
			zap.String("quote_id", post.QuoteID))
	}
	return true
}

// DeleteOne removes exactly one post. Its replies and quoters are kept and
// their references dangle from then on. It reports false when the post does
// not exist.
func (s *PostStore) DeleteOne(id string) bool {
	post, ok := s.byID[id]
	if !ok {
		return false
	}

	now := s.now()
	if parent, ok := s.lookup(post.ThreadID); ok {
		decrement(parent, &parent.ReplyCount, now)
	}
	if target, ok := s.lookup(post.QuoteID); ok {
		decrement(target, &target.Retweet, now)
	}

	s.filter(map[string]struct{}{id: {}})

	s.logger.Debug("Deleted post", zap.String("id", id))
	return true
}

// DeleteSubtree removes rootID and every post that transitively replies to it.
// Quote edges are not followed. It returns the removed ids in discovery order,
// or nil when rootID is not stored.
func (s *PostStore) DeleteSubtree(rootID string) []string {
	root, ok := s.byID[rootID]
	if !ok {
		return nil
	}

	ids := s.CollectSubtreeIDs(rootID)
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}

	now := s.now()

	// Every other removed post has its parent inside the set.
	if grandparent, ok := s.lookup(root.ThreadID); ok {
		decrement(grandparent, &grandparent.ReplyCount, now)
	}

	for _, id := range ids {
		post, ok := s.byID[id]
		if !ok || post.QuoteID == "" {
			continue
		}
		if _, inside := doomed[post.QuoteID]; inside {
			continue
		}
		if target, ok := s.lookup(post.QuoteID); ok {
			decrement(target, &target.Retweet, now)
		}
	}

	s.filter(doomed)

	s.logger.Debug("Deleted subtree",
		zap.String("root_id", rootID),
		zap.Int("removed", len(ids)))
	return ids
}

// GetByID returns the post with the given id
func (s *PostStore) GetByID(id string) (*models.Post, bool) {
	return s.lookup(id)
}

// GetReplies returns the direct replies of parentID in collection order.
// The returned slice belongs to the index and must not be modified.
func (s *PostStore) GetReplies(parentID string) []*models.Post {
	return s.childrenByThreadID[parentID]
}

// GetQuotePosts returns the posts quoting id in collection order.
// The returned slice belongs to the index and must not be modified.
func (s *PostStore) GetQuotePosts(id string) []*models.Post {
	return s.quotesByID[id]
}

// Posts returns the primary collection, newest first
func (s *PostStore) Posts() []*models.Post {
	return s.settings.Tweets
}

// Len returns the number of posts in the collection
func (s *PostStore) Len() int {
	return len(s.settings.Tweets)
}

func (s *PostStore) lookup(id string) (*models.Post, bool) {
	if id == "" {
		return nil, false
	}
	post, ok := s.byID[id]
	return post, ok
}

// filter drops every post whose id is in ids and rebuilds the indices
func (s *PostStore) filter(ids map[string]struct{}) {
	kept := make([]*models.Post, 0, len(s.settings.Tweets))
	for _, post := range s.settings.Tweets {
		if _, drop := ids[post.ID]; drop {
			continue
		}
		kept = append(kept, post)
	}
	s.settings.Tweets = kept
	s.rebuild()
}

// rebuild recomputes every index from the primary collection in one pass.
// A duplicated id resolves to the last occurrence in collection order.
func (s *PostStore) rebuild() {
	posts := s.settings.Tweets
	s.byID = make(map[string]*models.Post, len(posts))
	s.childrenByThreadID = make(map[string][]*models.Post)
	s.quotesByID = make(map[string][]*models.Post)

	for _, post := range posts {
		s.byID[post.ID] = post
		if post.ThreadID != "" {
			s.childrenByThreadID[post.ThreadID] = append(s.childrenByThreadID[post.ThreadID], post)
		}
		if post.QuoteID != "" {
			s.quotesByID[post.QuoteID] = append(s.quotesByID[post.QuoteID], post)
		}
	}
}

// decrement lowers one of p's counters, floored at zero, and stamps
// Updated when the counter actually changed.
func decrement(p *models.Post, counter *int, now time.Time) {
	if *counter <= 0 {
		*counter = 0
		return
	}
	*counter--
	p.Updated = now
}
