package store

import (
	"github.com/steemit/tweetstore/internal/models"
)

// CollectSubtreeIDs returns rootID and the ids of every post reachable from it
// through reply edges, breadth first, in discovery order. rootID is always the
// first element, even when it is not stored.
//
// Reply edges are expected to form a forest. The visited set only bounds the
// walk if the data ever contains a cycle.
func (s *PostStore) CollectSubtreeIDs(rootID string) []string {
	visited := map[string]struct{}{rootID: {}}
	ids := []string{rootID}

	for queue := []string{rootID}; len(queue) > 0; queue = queue[1:] {
		for _, child := range s.childrenByThreadID[queue[0]] {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			visited[child.ID] = struct{}{}
			ids = append(ids, child.ID)
			queue = append(queue, child.ID)
		}
	}

	return ids
}

// Thread returns the stored posts of the reply tree rooted at rootID in the
// order CollectSubtreeIDs discovers them.
func (s *PostStore) Thread(rootID string) []*models.Post {
	ids := s.CollectSubtreeIDs(rootID)
	posts := make([]*models.Post, 0, len(ids))
	for _, id := range ids {
		if post, ok := s.byID[id]; ok {
			posts = append(posts, post)
		}
	}
	return posts
}

// Ancestors returns the chain of posts from the topmost reachable ancestor
// down to id itself. The walk stops at a dangling ThreadID. It returns nil
// when id is not stored.
func (s *PostStore) Ancestors(id string) []*models.Post {
	post, ok := s.byID[id]
	if !ok {
		return nil
	}

	visited := map[string]struct{}{post.ID: {}}
	chain := []*models.Post{post}
	for {
		parent, ok := s.lookup(post.ThreadID)
		if !ok {
			break
		}
		if _, seen := visited[parent.ID]; seen {
			break
		}
		visited[parent.ID] = struct{}{}
		chain = append(chain, parent)
		post = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
