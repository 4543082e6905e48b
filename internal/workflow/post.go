package workflow

import "time"

// PostStatus is the publication state of an announcement post.
type PostStatus string

// Post states.
const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

// PostAction names a post transition.
type PostAction string

// Post transitions.
const (
	PostPublish   PostAction = "publish"
	PostUnpublish PostAction = "unpublish"
)

// NextPostState applies action and returns the new status with its publishedAt value.
func NextPostState(current PostStatus, action PostAction, now time.Time) (PostStatus, *time.Time, error) {
	switch {
	case current == PostDraft && action == PostPublish:
		at := now.UTC()
		return PostPublished, &at, nil
	case current == PostPublished && action == PostUnpublish:
		return PostDraft, nil, nil
	default:
		return current, nil, Invalidf("cannot %s a %s post", action, current)
	}
}
