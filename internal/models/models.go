package models

import "time"

// Identity is an opaque user identifier issued by the auth layer.
// The engine never inspects it beyond equality checks.
type Identity = string

type CommentRequest struct {
	Comment    string   `json:"comment"`
	BlogAuthor Identity `json:"blog_author"`
	ParentID   *int64   `json:"parent_id,omitempty"`
}

type LikeRequest struct {
	CurrentlyLiked bool `json:"currently_liked"`
}

type Comment struct {
	ID          int64      `json:"id,omitempty"`
	BlogID      int64      `json:"blog_id"`
	CommentedBy Identity   `json:"commented_by"`
	Comment     string     `json:"comment"`
	ParentID    *int64     `json:"parent_id,omitempty"`
	IsReply     bool       `json:"is_reply"`
	ChildIDs    []int64    `json:"-"`
	BlogAuthor  Identity   `json:"-"`
	CommentedAt time.Time  `json:"commented_at"`
	Children    []*Comment `json:"children,omitempty"`
}

// CommentCreated is the public view returned by the create operation.
type CommentCreated struct {
	ID          int64     `json:"id"`
	Comment     string    `json:"comment"`
	CommentedAt time.Time `json:"commented_at"`
	Children    []int64   `json:"children"`
}

// Blog carries the denormalized aggregate the engine keeps consistent.
// Post content itself is owned by the blog CRUD layer and not modeled here.
type Blog struct {
	ID                  int64     `json:"id"`
	Author              Identity  `json:"author"`
	TotalComments       int64     `json:"total_comments"`
	TotalParentComments int64     `json:"total_parent_comments"`
	TotalLikes          int64     `json:"total_likes"`
	TotalReads          int64     `json:"total_reads"`
	CommentIDs          []int64   `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

// CounterDelta is a signed adjustment applied atomically at the store
// boundary, never via read-modify-write in application code.
type CounterDelta struct {
	TotalComments       int64
	TotalParentComments int64
	TotalLikes          int64
}

type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationReply   NotificationKind = "reply"
)

// Notification is a tagged record: CommentID is set for comment/reply
// kinds, RepliedOnComment only for replies. The constructors below are
// the only way the service builds one, which keeps the fields of each
// kind honest.
type Notification struct {
	ID               int64            `json:"id,omitempty"`
	Kind             NotificationKind `json:"kind"`
	BlogID           int64            `json:"blog_id"`
	NotificationFor  Identity         `json:"notification_for"`
	Actor            Identity         `json:"actor"`
	CommentID        *int64           `json:"comment_id,omitempty"`
	RepliedOnComment *int64           `json:"replied_on_comment,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// LikeNotification targets the blog author.
func LikeNotification(blogID int64, blogAuthor, actor Identity) *Notification {
	return &Notification{
		Kind:            NotificationLike,
		BlogID:          blogID,
		NotificationFor: blogAuthor,
		Actor:           actor,
	}
}

// CommentNotification targets the blog author for a top-level comment.
func CommentNotification(blogID, commentID int64, blogAuthor, actor Identity) *Notification {
	return &Notification{
		Kind:            NotificationComment,
		BlogID:          blogID,
		NotificationFor: blogAuthor,
		Actor:           actor,
		CommentID:       &commentID,
	}
}

// ReplyNotification targets the parent comment's author.
func ReplyNotification(blogID, commentID, parentID int64, parentAuthor, actor Identity) *Notification {
	return &Notification{
		Kind:             NotificationReply,
		BlogID:           blogID,
		NotificationFor:  parentAuthor,
		Actor:            actor,
		CommentID:        &commentID,
		RepliedOnComment: &parentID,
	}
}

type PaginatedComments struct {
	Comments []*Comment `json:"comments"`
	Skip     int        `json:"skip"`
	Limit    int        `json:"limit"`
}
