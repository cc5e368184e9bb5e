package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/models"
)

// CommentStore is the comment surface of the store.
type CommentStore interface {
	Add(ctx context.Context, comment *models.Comment) error
	FindByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error)
	ExistsOnPost(ctx context.Context, commentID, postID uuid.UUID) (bool, error)
	DeleteOwn(ctx context.Context, id uuid.UUID, authorID string) error
}

// PostFinder is the minimal post lookup CommentService needs.
type PostFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
}

// NotificationStore records and serves admin notifications.
type NotificationStore interface {
	Add(ctx context.Context, notification *models.Notification) error
	FindRecent(ctx context.Context, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
}

// CommentService handles visitor comments. Comments are auto-approved; any
// authenticated principal may comment, and authors may delete their own.
type CommentService struct {
	guard         Guard
	comments      CommentStore
	posts         PostFinder
	notifications NotificationStore
	logger        zerolog.Logger
}

func NewCommentService(guard Guard, comments CommentStore, posts PostFinder, notifications NotificationStore, logger zerolog.Logger) *CommentService {
	return &CommentService{
		guard:         guard,
		comments:      comments,
		posts:         posts,
		notifications: notifications,
		logger:        logger.With().Str("service", "comments").Logger(),
	}
}

// AddComment creates a comment on a post. A reply must reference an existing
// comment on the same post; nothing deeper is checked.
func (s *CommentService) AddComment(ctx context.Context, postID uuid.UUID, content string, replyToID *uuid.UUID) (*models.Comment, error) {
	principal, err := s.guard.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.NewValidationError("content", "comment must not be empty")
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("post")
		}
		return nil, errs.NewPersistenceError("find", "post", err)
	}

	if replyToID != nil {
		exists, err := s.comments.ExistsOnPost(ctx, *replyToID, postID)
		if err != nil {
			return nil, errs.NewPersistenceError("find", "comment", err)
		}
		if !exists {
			return nil, errs.NewValidationError("replyToId", "reply target does not exist on this post")
		}
	}

	authorName := principal.Name
	if authorName == "" {
		authorName = principal.Email
	}

	comment := &models.Comment{
		Content:    content,
		PostID:     postID,
		AuthorID:   principal.ID,
		AuthorName: authorName,
		ReplyToID:  replyToID,
		IsApproved: true,
	}
	if err := s.comments.Add(ctx, comment); err != nil {
		s.logger.Error().Err(err).Str("operation", "add_comment").Str("post_id", postID.String()).Msg("insert failed")
		return nil, errs.NewPersistenceError("create", "comment", err)
	}

	// Best effort; a lost notification is not worth failing the comment.
	notification := &models.Notification{
		Title:   "New comment",
		Message: fmt.Sprintf("%s commented on %q", authorName, post.Title),
		Type:    "comment",
	}
	if err := s.notifications.Add(ctx, notification); err != nil {
		s.logger.Error().Err(err).Str("post_id", postID.String()).Msg("recording comment notification failed")
	}

	return comment, nil
}

// ListComments returns the approved comments of a post, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	comments, err := s.comments.FindByPost(ctx, postID)
	if err != nil {
		return nil, errs.NewPersistenceError("list", "comments", err)
	}
	return comments, nil
}

// DeleteComment removes a comment the calling principal wrote.
func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	principal, err := s.guard.RequirePrincipal(ctx)
	if err != nil {
		return err
	}

	if err := s.comments.DeleteOwn(ctx, id, principal.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("comment")
		}
		return errs.NewPersistenceError("delete", "comment", err)
	}
	return nil
}
