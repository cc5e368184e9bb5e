package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/models"
)

// PostStore is the write surface PostActions needs from the store.
type PostStore interface {
	Add(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ReplaceCategories(ctx context.Context, post *models.Post, categories []models.Category) error
	ReplaceTags(ctx context.Context, post *models.Post, tags []models.Tag) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaxonomyStore creates and removes categories and tags.
type TaxonomyStore interface {
	EnsureCategory(ctx context.Context, name, slug string) (*models.Category, error)
	EnsureTag(ctx context.Context, name, slug string) (*models.Tag, error)
	AddCategory(ctx context.Context, category *models.Category) error
	AddTag(ctx context.Context, tag *models.Tag) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	DeleteTag(ctx context.Context, id uuid.UUID) error
}

// DraftStore persists autosave drafts.
type DraftStore interface {
	Upsert(ctx context.Context, draft *models.Draft) error
}

// PostInput carries the fields for a new post. Categories and tags are names;
// missing taxonomy rows are created ad hoc on assignment.
type PostInput struct {
	Title      string          `json:"title"`
	Slug       string          `json:"slug"`
	Content    json.RawMessage `json:"content"`
	Excerpt    string          `json:"excerpt"`
	CoverImage *string         `json:"coverImage"`
	Featured   bool            `json:"featured"`
	Categories []string        `json:"categories"`
	Tags       []string        `json:"tags"`
}

// UpdatePostInput has partial-update semantics: nil means "leave alone".
type UpdatePostInput struct {
	Title      *string         `json:"title"`
	Slug       *string         `json:"slug"`
	Content    json.RawMessage `json:"content"`
	Excerpt    *string         `json:"excerpt"`
	CoverImage *string         `json:"coverImage"`
	Featured   *bool           `json:"featured"`
	Categories *[]string       `json:"categories"`
	Tags       *[]string       `json:"tags"`
}

// DraftInput mirrors the loose draft shape. Tags arrive as a list and are
// stored comma-joined.
type DraftInput struct {
	ID          *uuid.UUID `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt"`
	CoverImage  *string    `json:"coverImage"`
	Category    string     `json:"category"`
	Tags        []string   `json:"tags"`
	IsFeatured  bool       `json:"isFeatured"`
	PublishDate *time.Time `json:"publishDate"`
}

// PostActions is the mutation layer. Every entry point checks the guard
// before touching the store.
type PostActions struct {
	guard      Guard
	posts      PostStore
	taxonomies TaxonomyStore
	drafts     DraftStore
	cache      *RenderCache
	logger     zerolog.Logger
}

func NewPostActions(guard Guard, posts PostStore, taxonomies TaxonomyStore, drafts DraftStore, cache *RenderCache, logger zerolog.Logger) *PostActions {
	return &PostActions{
		guard:      guard,
		posts:      posts,
		taxonomies: taxonomies,
		drafts:     drafts,
		cache:      cache,
		logger:     logger.With().Str("service", "post_actions").Logger(),
	}
}

// CreatePost validates, derives the slug when absent, and inserts the post
// unpublished. Concurrent creates racing on the same derived slug are settled
// by the unique constraint; the loser gets a generic persistence error.
func (a *PostActions) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errs.NewValidationError("title", "title is required")
	}
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}

	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	if slug == "" {
		return nil, errs.NewValidationError("title", "title must contain at least one letter or digit")
	}

	authorName := "Admin"
	if p, ok := PrincipalFromContext(ctx); ok && p.Name != "" {
		authorName = p.Name
	}

	post := &models.Post{
		Title:      title,
		Slug:       slug,
		Content:    datatypes.JSON(in.Content),
		Excerpt:    in.Excerpt,
		CoverImage: in.CoverImage,
		Published:  false,
		Featured:   in.Featured,
		AuthorName: authorName,
	}

	if err := a.posts.Add(ctx, post); err != nil {
		a.logger.Error().Err(err).Str("operation", "create_post").Str("slug", slug).Msg("insert failed")
		return nil, errs.NewPersistenceError("create", "post", err)
	}

	if err := a.assignTaxonomies(ctx, post, in.Categories, in.Tags); err != nil {
		return nil, err
	}

	a.invalidate()
	return post, nil
}

// UpdatePost applies only the provided fields. The slug is recomputed only
// when a new title arrives without an explicit slug.
func (a *PostActions) UpdatePost(ctx context.Context, id uuid.UUID, in UpdatePostInput) (*models.Post, error) {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	post, err := a.posts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("post")
		}
		return nil, errs.NewPersistenceError("find", "post", err)
	}

	fields := map[string]any{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errs.NewValidationError("title", "title must not be empty")
		}
		fields["title"] = title
		if in.Slug == nil {
			fields["slug"] = Slugify(title)
		}
	}
	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if slug == "" {
			return nil, errs.NewValidationError("slug", "slug must not be empty")
		}
		fields["slug"] = slug
	}
	if in.Content != nil {
		if err := validateContent(in.Content); err != nil {
			return nil, err
		}
		fields["content"] = datatypes.JSON(in.Content)
	}
	if in.Excerpt != nil {
		fields["excerpt"] = *in.Excerpt
	}
	if in.CoverImage != nil {
		fields["cover_image"] = *in.CoverImage
	}
	if in.Featured != nil {
		fields["featured"] = *in.Featured
	}

	if len(fields) > 0 {
		fields["updated_at"] = time.Now().UTC()
		if err := a.posts.UpdateFields(ctx, id, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.NewNotFound("post")
			}
			a.logger.Error().Err(err).Str("operation", "update_post").Str("post_id", id.String()).Msg("update failed")
			return nil, errs.NewPersistenceError("update", "post", err)
		}
	}

	// Each association is replaced only when its input was provided; the
	// other side keeps its current rows.
	if in.Categories != nil {
		categories, err := a.resolveCategories(ctx, *in.Categories)
		if err != nil {
			return nil, err
		}
		if err := a.posts.ReplaceCategories(ctx, post, categories); err != nil {
			return nil, errs.NewPersistenceError("associate", "categories", err)
		}
	}
	if in.Tags != nil {
		tags, err := a.resolveTags(ctx, *in.Tags)
		if err != nil {
			return nil, err
		}
		if err := a.posts.ReplaceTags(ctx, post, tags); err != nil {
			return nil, errs.NewPersistenceError("associate", "tags", err)
		}
	}

	updated, err := a.posts.FindByID(ctx, id)
	if err != nil {
		return nil, errs.NewPersistenceError("find", "post", err)
	}

	a.invalidate()
	return updated, nil
}

// TogglePublish sets the publish flag. The publishedAt stamp is a pure
// function of the new flag, not of prior state: now() on publish, cleared on
// unpublish.
func (a *PostActions) TogglePublish(ctx context.Context, id uuid.UUID, publish bool) error {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	fields := map[string]any{
		"published":  publish,
		"updated_at": now,
	}
	if publish {
		fields["published_at"] = now
	} else {
		fields["published_at"] = nil
	}

	if err := a.posts.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("post")
		}
		a.logger.Error().Err(err).Str("operation", "toggle_publish").Str("post_id", id.String()).Bool("publish", publish).Msg("update failed")
		return errs.NewPersistenceError("publish", "post", err)
	}

	a.invalidate()
	return nil
}

// DeletePost removes the post; comments cascade with it.
func (a *PostActions) DeletePost(ctx context.Context, id uuid.UUID) error {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return err
	}

	if err := a.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("post")
		}
		a.logger.Error().Err(err).Str("operation", "delete_post").Str("post_id", id.String()).Msg("delete failed")
		return errs.NewPersistenceError("delete", "post", err)
	}

	a.invalidate()
	return nil
}

// SaveDraft upserts an autosave draft. Tags collapse to one comma-joined
// string (lossy for names containing commas, by contract); content is kept
// verbatim, compacted when it happens to be valid JSON.
func (a *PostActions) SaveDraft(ctx context.Context, in DraftInput) (*models.Draft, error) {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	draft := &models.Draft{
		Title:       in.Title,
		Slug:        in.Slug,
		Content:     normalizeDraftContent(in.Content),
		Excerpt:     in.Excerpt,
		CoverImage:  in.CoverImage,
		Category:    in.Category,
		Tags:        strings.Join(in.Tags, ","),
		IsFeatured:  in.IsFeatured,
		PublishDate: in.PublishDate,
	}
	if in.ID != nil {
		draft.ID = *in.ID
	}

	if err := a.drafts.Upsert(ctx, draft); err != nil {
		a.logger.Error().Err(err).Str("operation", "save_draft").Msg("upsert failed")
		return nil, errs.NewPersistenceError("save", "draft", err)
	}
	return draft, nil
}

// CreateCategory inserts a category, deriving the slug from the name when
// absent.
func (a *PostActions) CreateCategory(ctx context.Context, name, slug string, description *string) (*models.Category, error) {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.NewValidationError("name", "name is required")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if !ValidSlug(slug) {
		return nil, errs.NewValidationError("slug", "slug must contain only lowercase letters, digits, and hyphens")
	}

	category := &models.Category{Name: name, Slug: slug, Description: description}
	if err := a.taxonomies.AddCategory(ctx, category); err != nil {
		a.logger.Error().Err(err).Str("operation", "create_category").Str("slug", slug).Msg("insert failed")
		return nil, errs.NewPersistenceError("create", "category", err)
	}
	return category, nil
}

// DeleteCategory removes the category; posts keep their other categories.
func (a *PostActions) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return err
	}

	if err := a.taxonomies.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("category")
		}
		return errs.NewPersistenceError("delete", "category", err)
	}
	return nil
}

// CreateTag mirrors CreateCategory without a description.
func (a *PostActions) CreateTag(ctx context.Context, name, slug string) (*models.Tag, error) {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.NewValidationError("name", "name is required")
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if !ValidSlug(slug) {
		return nil, errs.NewValidationError("slug", "slug must contain only lowercase letters, digits, and hyphens")
	}

	tag := &models.Tag{Name: name, Slug: slug}
	if err := a.taxonomies.AddTag(ctx, tag); err != nil {
		a.logger.Error().Err(err).Str("operation", "create_tag").Str("slug", slug).Msg("insert failed")
		return nil, errs.NewPersistenceError("create", "tag", err)
	}
	return tag, nil
}

func (a *PostActions) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if err := a.guard.RequireAdmin(ctx); err != nil {
		return err
	}

	if err := a.taxonomies.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewNotFound("tag")
		}
		return errs.NewPersistenceError("delete", "tag", err)
	}
	return nil
}

func (a *PostActions) assignTaxonomies(ctx context.Context, post *models.Post, categoryNames, tagNames []string) error {
	categories, err := a.resolveCategories(ctx, categoryNames)
	if err != nil {
		return err
	}
	tags, err := a.resolveTags(ctx, tagNames)
	if err != nil {
		return err
	}

	if err := a.posts.ReplaceCategories(ctx, post, categories); err != nil {
		return errs.NewPersistenceError("associate", "categories", err)
	}
	if err := a.posts.ReplaceTags(ctx, post, tags); err != nil {
		return errs.NewPersistenceError("associate", "tags", err)
	}
	return nil
}

// resolveCategories turns names into rows, creating missing ones ad hoc.
// Blank names are skipped.
func (a *PostActions) resolveCategories(ctx context.Context, names []string) ([]models.Category, error) {
	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		category, err := a.taxonomies.EnsureCategory(ctx, name, Slugify(name))
		if err != nil {
			return nil, errs.NewPersistenceError("create", "category", err)
		}
		categories = append(categories, *category)
	}
	return categories, nil
}

func (a *PostActions) resolveTags(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, err := a.taxonomies.EnsureTag(ctx, name, Slugify(name))
		if err != nil {
			return nil, errs.NewPersistenceError("create", "tag", err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func (a *PostActions) invalidate() {
	if a.cache != nil {
		a.cache.Flush()
	}
}

func validateContent(content json.RawMessage) error {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return errs.NewValidationError("content", "content is required")
	}
	if !json.Valid(trimmed) {
		return errs.NewValidationError("content", "content must be a valid document")
	}
	return nil
}

func normalizeDraftContent(content string) string {
	if !json.Valid([]byte(content)) {
		return content
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(content)); err != nil {
		return content
	}
	return buf.String()
}
