package models

import "time"

type Post struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Author     Author     `json:"author"`
	View       int        `json:"view"`
	FileName   string     `json:"fileName,omitempty"`
	FilePath   string     `json:"filePath,omitempty"`
	VoteCount  int        `json:"voteCount"`
	CreatedAt  time.Time  `json:"createDate"`
	ModifiedAt *time.Time `json:"modifyDate,omitempty"`
}

// IsOwnedBy reports whether username wrote the post.
func (p *Post) IsOwnedBy(username string) bool {
	return p.Author.Username == username
}
