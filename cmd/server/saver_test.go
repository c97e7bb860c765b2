package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemit/tweetstore/internal/models"
	"github.com/steemit/tweetstore/internal/store"
)

func TestFileSaverKeepsHostFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.json")
	settings := &models.Settings{
		Tweets: []*models.Post{{ID: "a", Text: "root"}},
		APIKey: "key",
		Model:  "gemini-test",
	}
	saver := newFileSaver(path, settings)

	require.NoError(t, saver.Save(context.Background(), []*models.Post{{ID: "b"}, {ID: "a"}}))

	out, err := models.ReadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, "key", out.APIKey)
	assert.Equal(t, "gemini-test", out.Model)
	require.Len(t, out.Tweets, 2)
	assert.Equal(t, "b", out.Tweets[0].ID)
}

// Saving snapshots while inserts run must not touch the store's container.
// Run with -race.
func TestFileSaverConcurrentWithInserts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.json")
	settings := &models.Settings{Tweets: []*models.Post{{ID: "root"}}, Model: "gemini-test"}
	posts := store.NewGuarded(store.New(settings))
	saver := newFileSaver(path, settings)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			posts.Insert(ctx, &models.Post{ID: fmt.Sprintf("r%d", i), ThreadID: "root"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			assert.NoError(t, saver.Save(ctx, posts.Posts()))
		}
	}()
	wg.Wait()

	require.NoError(t, saver.Save(ctx, posts.Posts()))
	out, err := models.ReadSettingsFile(path)
	require.NoError(t, err)
	assert.Len(t, out.Tweets, 51)
	assert.Equal(t, "gemini-test", out.Model)
}
