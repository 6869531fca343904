package models

import "time"

type Reply struct {
	ID         int64      `json:"id"`
	PostID     int64      `json:"postId"`
	Content    string     `json:"content"`
	Author     Author     `json:"author"`
	VoteCount  int        `json:"voteCount"`
	CreatedAt  time.Time  `json:"createDate"`
	ModifiedAt *time.Time `json:"modifyDate,omitempty"`
}

// IsOwnedBy reports whether username wrote the reply.
func (r *Reply) IsOwnedBy(username string) bool {
	return r.Author.Username == username
}
