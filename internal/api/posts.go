package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/internal/store"
	"github.com/steemit/tweetstore/pkg/logging"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Saver persists the post collection
type Saver interface {
	Save(ctx context.Context, posts []*models.Post) error
}

// PostsAPI exposes the post store over JSON-RPC
type PostsAPI struct {
	store  *store.Guarded
	saver  Saver
	now    func() time.Time
	logger *zap.Logger
}

// NewPostsAPI creates the posts API. saver may be nil, in which case
// posts.save reports an error.
func NewPostsAPI(s *store.Guarded, saver Saver) *PostsAPI {
	return &PostsAPI{
		store:  s,
		saver:  saver,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.WithComponent("posts-api"),
	}
}

// ListParams pages through the collection, newest first
type ListParams struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ListResult is one page of the collection
type ListResult struct {
	Posts []*models.Post `json:"posts"`
	Total int            `json:"total"`
}

// UpdateParams carries a partial update for one post
type UpdateParams struct {
	ID    string       `json:"id"`
	Patch models.Patch `json:"patch"`
}

// FoundResult reports whether the addressed post existed
type FoundResult struct {
	Found bool `json:"found"`
}

// DeletedResult lists the ids removed by a subtree deletion
type DeletedResult struct {
	IDs []string `json:"ids"`
}

// ReplaceAllParams carries a whole new collection
type ReplaceAllParams struct {
	Posts []*models.Post `json:"posts"`
}

// CountResult reports the collection size after an operation
type CountResult struct {
	Count int `json:"count"`
}

// Get returns a single post
func (a *PostsAPI) Get(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	post, ok := a.store.GetByID(id)
	if !ok {
		return nil, NewError(ErrServerError, fmt.Sprintf("post %s not found", id))
	}
	return post, nil
}

// Replies returns the direct replies to a post
func (a *PostsAPI) Replies(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	return nonNil(a.store.GetReplies(id)), nil
}

// Quotes returns the posts quoting a post
func (a *PostsAPI) Quotes(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	return nonNil(a.store.GetQuotePosts(id)), nil
}

// Thread returns a post and all of its descendants, breadth first
func (a *PostsAPI) Thread(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	return nonNil(a.store.Thread(id)), nil
}

// SubtreeIDs returns the ids of a post and all of its descendants
func (a *PostsAPI) SubtreeIDs(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	return a.store.CollectSubtreeIDs(id), nil
}

// List returns a page of the collection
func (a *PostsAPI) List(c *gin.Context, params json.RawMessage) (interface{}, error) {
	p := ListParams{Limit: defaultListLimit}
	if raw := bytes.TrimSpace(params); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("[]")) {
		if err := bindParams(params, &p); err != nil {
			return nil, err
		}
	}
	if p.Offset < 0 {
		return nil, InvalidParams("offset must not be negative")
	}
	if p.Limit <= 0 || p.Limit > maxListLimit {
		return nil, InvalidParams("limit must be between 1 and %d", maxListLimit)
	}

	posts := a.store.Posts()
	total := len(posts)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)
	return ListResult{Posts: posts[start:end], Total: total}, nil
}

// Insert adds a new post. A missing id is generated and a missing creation
// time is set to now.
func (a *PostsAPI) Insert(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var post models.Post
	if err := bindParams(params, &post); err != nil {
		return nil, err
	}
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Created.IsZero() {
		post.Created = a.now()
	}
	if post.Updated.IsZero() {
		post.Updated = post.Created
	}

	stored := post.Clone()
	a.store.Insert(c.Request.Context(), stored)
	a.logger.Debug("Post inserted", zap.String("id", post.ID), zap.String("request_id", c.GetString(requestIDKey)))
	return &post, nil
}

// Update applies a partial update to a post
func (a *PostsAPI) Update(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p UpdateParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, InvalidParams("id is required")
	}
	return FoundResult{Found: a.store.Update(c.Request.Context(), p.ID, p.Patch)}, nil
}

// Delete removes a single post, leaving its replies in place
func (a *PostsAPI) Delete(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	return FoundResult{Found: a.store.DeleteOne(c.Request.Context(), id)}, nil
}

// DeleteSubtree removes a post and all of its descendants
func (a *PostsAPI) DeleteSubtree(c *gin.Context, params json.RawMessage) (interface{}, error) {
	id, err := bindID(params)
	if err != nil {
		return nil, err
	}
	ids := a.store.DeleteSubtree(c.Request.Context(), id)
	if ids == nil {
		ids = []string{}
	}
	return DeletedResult{IDs: ids}, nil
}

// ReplaceAll swaps the whole collection
func (a *PostsAPI) ReplaceAll(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p ReplaceAllParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	for i, post := range p.Posts {
		if post == nil {
			return nil, InvalidParams("posts[%d] is null", i)
		}
	}
	if p.Posts == nil {
		p.Posts = []*models.Post{}
	}
	a.store.ReplaceAll(c.Request.Context(), p.Posts)
	return CountResult{Count: len(p.Posts)}, nil
}

// Save writes the collection to the settings database
func (a *PostsAPI) Save(c *gin.Context, params json.RawMessage) (interface{}, error) {
	if a.saver == nil {
		return nil, NewError(ErrServerError, "no database configured")
	}
	posts := a.store.Posts()
	if err := a.saver.Save(c.Request.Context(), posts); err != nil {
		return nil, fmt.Errorf("failed to save posts: %w", err)
	}
	a.logger.Info("Posts saved", zap.Int("count", len(posts)))
	return CountResult{Count: len(posts)}, nil
}

func nonNil(posts []*models.Post) []*models.Post {
	if posts == nil {
		return []*models.Post{}
	}
	return posts
}
