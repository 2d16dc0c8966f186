package models

import "time"

const UnknownAuthor = "Unknown"

// Comment is a single comment attached to a post. Body and Author are
// pointers because the source can omit either one.
type Comment struct {
	ID        string    `json:"id"`
	Body      *string   `json:"body"`
	Author    *string   `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	ParentID  string    `json:"parent_id"`
}

// AuthorName returns the author or UnknownAuthor when the source had none.
func (c Comment) AuthorName() string {
	if c.Author == nil {
		return UnknownAuthor
	}
	return *c.Author
}

type PostDetails struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"media_url,omitempty"`
}

// CommentBatch is the payload read from the comment-batches topic. Each batch
// is analyzed as one independent run.
type CommentBatch struct {
	RunID    string    `json:"run_id"`
	PostID   string    `json:"post_id"`
	Filters  Filters   `json:"filters"`
	Comments []Comment `json:"comments"`
}
