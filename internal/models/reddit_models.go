package models

import "encoding/json"

// RedditListing is the envelope reddit wraps every listing in. The comments
// endpoint returns two of them: the post and its comment tree.
type RedditListing struct {
	Kind string            `json:"kind"`
	Data RedditListingData `json:"data"`
}

type RedditListingData struct {
	After    string        `json:"after"`
	Children []RedditThing `json:"children"`
}

type RedditThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type RedditPostData struct {
	ID            string                         `json:"id"`
	Name          string                         `json:"name"`
	Title         string                         `json:"title"`
	Author        string                         `json:"author"`
	Selftext      string                         `json:"selftext"`
	CreatedUTC    float64                        `json:"created_utc"`
	IsVideo       bool                           `json:"is_video"`
	Media         *RedditMedia                   `json:"media"`
	MediaMetadata map[string]RedditMediaMetadata `json:"media_metadata"`
	GalleryData   *RedditGalleryData             `json:"gallery_data"`
}

type RedditMedia struct {
	RedditVideo *struct {
		FallbackURL string `json:"fallback_url"`
	} `json:"reddit_video"`
}

type RedditMediaMetadata struct {
	S struct {
		U string `json:"u"`
	} `json:"s"`
}

type RedditGalleryData struct {
	Items []struct {
		MediaID string `json:"media_id"`
	} `json:"items"`
}

// RedditCommentData covers both t1 comments and "more" stubs.
type RedditCommentData struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Author     string          `json:"author"`
	Body       *string         `json:"body"`
	CreatedUTC float64         `json:"created_utc"`
	ParentID   string          `json:"parent_id"`
	LinkID     string          `json:"link_id"`
	Replies    json.RawMessage `json:"replies"`
	Children   []string        `json:"children"`
}

type RedditMoreChildrenResponse struct {
	JSON struct {
		Errors [][]string `json:"errors"`
		Data   struct {
			Things []RedditThing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}
