package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blogfolio/backend/models"
)

type DraftRepo struct {
	db *gorm.DB
}

func NewDraftRepo(db *gorm.DB) *DraftRepo {
	return &DraftRepo{db}
}

// Upsert writes the draft: a zero ID gets a fresh row, a set ID inserts or
// overwrites that row in one statement. Autosave calls this repeatedly; last
// write wins.
func (r *DraftRepo) Upsert(ctx context.Context, draft *models.Draft) error {
	draft.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(draft).Error
}

func (r *DraftRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	var draft models.Draft
	if err := r.db.WithContext(ctx).First(&draft, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *DraftRepo) FindAll(ctx context.Context) ([]models.Draft, error) {
	var drafts []models.Draft
	err := r.db.WithContext(ctx).Order("updated_at DESC").Find(&drafts).Error
	return drafts, err
}

func (r *DraftRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Draft{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
