package metadata

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"stopsum/pkg/graph"
)

// Layouts used when reading and writing post timestamps
const (
	CreatedTimeLayout = "2006-01-02T15:04:05-0700"
	DateLayout        = "2006-01-02"
	TimeLayout        = "15:04:05"
)

// Post is the flattened summary of one page post
type Post struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
	MessageLength int       `json:"message_length"`
	SharesCount   int       `json:"shares_count"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
}

// FromGraphPost converts a posts-connection node into a Post. Missing
// message, shares, likes and comments fields count as zero.
func FromGraphPost(raw graph.RawPost) (*Post, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("post has no id")
	}

	created, err := time.Parse(CreatedTimeLayout, raw.CreatedTime)
	if err != nil {
		return nil, fmt.Errorf("post %s: invalid created_time %q: %w", raw.ID, raw.CreatedTime, err)
	}

	post := &Post{
		ID:        raw.ID,
		Type:      raw.Type,
		CreatedAt: created,
	}
	if raw.Message != nil {
		post.MessageLength = utf8.RuneCountInString(*raw.Message)
	}
	if raw.Shares != nil {
		post.SharesCount = raw.Shares.Count
	}
	if raw.Likes != nil {
		post.LikesCount = raw.Likes.Summary.TotalCount
	}
	if raw.Comments != nil {
		post.CommentsCount = raw.Comments.Summary.TotalCount
	}

	return post, nil
}

// Header returns the CSV column names matching Record
func Header() []string {
	return []string{"id", "type", "date", "time", "message_length", "shares_count", "likes_count", "comments_count"}
}

// Record returns the CSV row for the post. Date and time are written in the
// offset the post was created in.
func (p *Post) Record() []string {
	return []string{
		p.ID,
		p.Type,
		p.CreatedAt.Format(DateLayout),
		p.CreatedAt.Format(TimeLayout),
		strconv.Itoa(p.MessageLength),
		strconv.Itoa(p.SharesCount),
		strconv.Itoa(p.LikesCount),
		strconv.Itoa(p.CommentsCount),
	}
}

func (p *Post) String() string {
	return fmt.Sprintf("post %s (%s) at %s: message=%d shares=%d likes=%d comments=%d",
		p.ID, p.Type, p.CreatedAt.Format(time.RFC3339), p.MessageLength, p.SharesCount, p.LikesCount, p.CommentsCount)
}
