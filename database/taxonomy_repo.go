package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/models"
)

type TaxonomyRepo struct {
	db *gorm.DB
}

func NewTaxonomyRepo(db *gorm.DB) *TaxonomyRepo {
	return &TaxonomyRepo{db}
}

// FindAllCategories returns all categories sorted ascending by name.
func (r *TaxonomyRepo) FindAllCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// FindAllTags returns all tags sorted ascending by name.
func (r *TaxonomyRepo) FindAllTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *TaxonomyRepo) AddCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *TaxonomyRepo) AddTag(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

// EnsureCategory fetches the category by name, creating it ad hoc when it is
// assigned for the first time.
func (r *TaxonomyRepo) EnsureCategory(ctx context.Context, name, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).
		Where(models.Category{Name: name}).
		Attrs(models.Category{Slug: slug}).
		FirstOrCreate(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// EnsureTag fetches the tag by name, creating it when absent.
func (r *TaxonomyRepo) EnsureTag(ctx context.Context, name, slug string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).
		Where(models.Tag{Name: name}).
		Attrs(models.Tag{Slug: slug}).
		FirstOrCreate(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteCategory drops the category and its association rows. Posts keep
// their other categories; nothing cascades to them.
func (r *TaxonomyRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// DeleteTag mirrors DeleteCategory for tags.
func (r *TaxonomyRepo) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
