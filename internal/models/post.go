package models

import (
	"slices"
	"time"
)

// Post represents a tweet. It may be a thread root, a reply and a quote at once.
type Post struct {
	ID       string `gorm:"type:varchar(64);not null;index;column:id" json:"id"`
	ThreadID string `gorm:"type:varchar(64);index;column:thread_id" json:"threadId,omitempty"`
	QuoteID  string `gorm:"type:varchar(64);index;column:quote_id" json:"quoteId,omitempty"`

	// Denormalized counters, maintained by the store on insert and delete only.
	ReplyCount int `gorm:"not null;default:0;column:reply_count" json:"replyCount"`
	Retweet    int `gorm:"not null;default:0;column:retweet" json:"retweet"`

	Author  string    `gorm:"type:varchar(64);column:author" json:"author,omitempty"`
	Text    string    `gorm:"type:text;column:text" json:"text"`
	Media   []string  `gorm:"serializer:json;type:text;column:media" json:"media,omitempty"`
	Created time.Time `gorm:"column:created_at" json:"created"`
	Updated time.Time `gorm:"column:updated_at" json:"updated"`

	// Position in the settings collection, newest first. Only meaningful to the table,
	// which is keyed by it so that duplicated ids survive a round trip.
	Position int `gorm:"primaryKey;autoIncrement:false;column:position" json:"-"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "tweets"
}

// IsReply reports whether the post replies to another post
func (p *Post) IsReply() bool {
	return p.ThreadID != ""
}

// IsQuote reports whether the post quotes another post
func (p *Post) IsQuote() bool {
	return p.QuoteID != ""
}

// Clone returns a copy of p that shares no memory with it
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Media = slices.Clone(p.Media)
	return &c
}

// Patch holds the fields of a partial update. Nil fields are left untouched.
// A pointer to "" clears ThreadID or QuoteID.
type Patch struct {
	ThreadID *string    `json:"threadId,omitempty"`
	QuoteID  *string    `json:"quoteId,omitempty"`
	Author   *string    `json:"author,omitempty"`
	Text     *string    `json:"text,omitempty"`
	Media    *[]string  `json:"media,omitempty"`
	Created  *time.Time `json:"created,omitempty"`
}

// ApplyTo shallow-merges the patch onto p and reports whether the reply or
// quote edge changed.
func (pt Patch) ApplyTo(p *Post) (edgesChanged bool) {
	if pt.ThreadID != nil {
		edgesChanged = edgesChanged || p.ThreadID != *pt.ThreadID
		p.ThreadID = *pt.ThreadID
	}
	if pt.QuoteID != nil {
		edgesChanged = edgesChanged || p.QuoteID != *pt.QuoteID
		p.QuoteID = *pt.QuoteID
	}
	if pt.Author != nil {
		p.Author = *pt.Author
	}
	if pt.Text != nil {
		p.Text = *pt.Text
	}
	if pt.Media != nil {
		p.Media = *pt.Media
	}
	if pt.Created != nil {
		p.Created = *pt.Created
	}
	return edgesChanged
}
