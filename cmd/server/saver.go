package main

import (
	"context"

	"github.com/steemit/tweetstore/internal/models"
)

// fileSaver writes the collection back to the seed file. The host fields of
// the settings container are copied when it is built; the store owns the
// container's tweets from then on.
type fileSaver struct {
	path   string
	apiKey string
	model  string
}

func newFileSaver(path string, settings *models.Settings) fileSaver {
	return fileSaver{
		path:   path,
		apiKey: settings.APIKey,
		model:  settings.Model,
	}
}

func (f fileSaver) Save(_ context.Context, posts []*models.Post) error {
	return models.WriteSettingsFile(f.path, &models.Settings{
		Tweets: posts,
		APIKey: f.apiKey,
		Model:  f.model,
	})
}
