package votes

import "context"

// Repository keeps at most one vote per user and target.
type Repository interface {
	// TogglePost removes the user's vote on the post if present, otherwise
	// records one. It reports whether the vote is set afterwards.
	TogglePost(ctx context.Context, postID, userID int64) (bool, error)
	ToggleReply(ctx context.Context, replyID, userID int64) (bool, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
