package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/models"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

func (r *CommentRepo) Add(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// FindByPost returns approved comments for a post, oldest first so reply
// threads read top-down.
func (r *CommentRepo) FindByPost(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND is_approved = ?", postID, true).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// ExistsOnPost reports whether the comment exists and belongs to the post.
// Reply targets are only checked for existence, nothing deeper.
func (r *CommentRepo) ExistsOnPost(ctx context.Context, commentID, postID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ? AND post_id = ?", commentID, postID).
		Count(&count).Error
	return count > 0, err
}

// DeleteOwn removes a comment only when authorID wrote it.
func (r *CommentRepo) DeleteOwn(ctx context.Context, id uuid.UUID, authorID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&models.Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
