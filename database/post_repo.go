package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blogfolio/backend/models"
)

type PostRepo struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) *PostRepo {
	return &PostRepo{db}
}

// PageFilter narrows a published-page query. Slugs are unique, so a post can
// match a category or tag filter at most once and the joins never duplicate
// rows.
type PageFilter struct {
	Search       string
	CategorySlug string
	TagSlug      string
}

// FindPublishedPage returns one page of published posts plus the total count
// matching the filter.
func (r *PostRepo) FindPublishedPage(ctx context.Context, limit, offset int, filter PageFilter) ([]*models.Post, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.published = ?", true)

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("posts.title ILIKE ? OR posts.content::text ILIKE ?", like, like)
	}
	if filter.CategorySlug != "" {
		q = q.Joins("JOIN post_categories pc ON pc.post_id = posts.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.slug = ?", filter.CategorySlug)
	}
	if filter.TagSlug != "" {
		q = q.Joins("JOIN post_tags pt ON pt.post_id = posts.id").
			Joins("JOIN tags t ON t.id = pt.tag_id").
			Where("t.slug = ?", filter.TagSlug)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := q.Preload("Categories").Preload("Tags").
		Order("posts.published_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindAll returns every post, drafts included, newest first. Admin listing.
func (r *PostRepo) FindAll(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("Categories").Preload("Tags").
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// FindBySlug returns a post with its taxonomies. When publishedOnly is set,
// unpublished posts are invisible.
func (r *PostRepo) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	q := r.db.WithContext(ctx).Preload("Categories").Preload("Tags")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}

	var post models.Post
	if err := q.Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Categories").Preload("Tags").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) Add(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// UpdateFields applies a partial update. Returns gorm.ErrRecordNotFound when
// the id does not exist.
func (r *PostRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementViews bumps the monotonic counter. Single statement, no
// read-modify-write.
func (r *PostRepo) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// ReplaceCategories swaps the post's category associations.
func (r *PostRepo) ReplaceCategories(ctx context.Context, post *models.Post, categories []models.Category) error {
	return r.db.WithContext(ctx).Model(post).Association("Categories").Replace(categories)
}

// ReplaceTags swaps the post's tag associations.
func (r *PostRepo) ReplaceTags(ctx context.Context, post *models.Post, tags []models.Tag) error {
	return r.db.WithContext(ctx).Model(post).Association("Tags").Replace(tags)
}

// Delete removes the post together with its association rows; comments go
// with it through the cascade constraint.
func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&models.Post{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
