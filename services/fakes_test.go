package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/database"
	"github.com/blogfolio/backend/models"
)

// fakePostStore is an in-memory stand-in for database.PostRepo honoring the
// same query contract: published-only pages, substring search, taxonomy slug
// filters, publishedAt-descending order, unique slugs.
type fakePostStore struct {
	posts       map[uuid.UUID]*models.Post
	bySlugCalls int
	pageCalls   int
	updates     []map[string]any
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[uuid.UUID]*models.Post)}
}

func (f *fakePostStore) seed(post *models.Post) *models.Post {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	f.posts[post.ID] = post
	return post
}

func (f *fakePostStore) FindPublishedPage(_ context.Context, limit, offset int, filter database.PageFilter) ([]*models.Post, int64, error) {
	f.pageCalls++

	var matched []*models.Post
	for _, post := range f.posts {
		if !post.Published {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			title := strings.ToLower(post.Title)
			content := strings.ToLower(string(post.Content))
			if !strings.Contains(title, search) && !strings.Contains(content, search) {
				continue
			}
		}
		if filter.CategorySlug != "" && !hasCategorySlug(post, filter.CategorySlug) {
			continue
		}
		if filter.TagSlug != "" && !hasTagSlug(post, filter.TagSlug) {
			continue
		}
		matched = append(matched, post)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].PublishedAt, matched[j].PublishedAt
		if a == nil || b == nil {
			return b == nil
		}
		return a.After(*b)
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func hasCategorySlug(post *models.Post, slug string) bool {
	for _, c := range post.Categories {
		if c.Slug == slug {
			return true
		}
	}
	return false
}

func hasTagSlug(post *models.Post, slug string) bool {
	for _, t := range post.Tags {
		if t.Slug == slug {
			return true
		}
	}
	return false
}

func (f *fakePostStore) FindBySlug(_ context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	f.bySlugCalls++
	for _, post := range f.posts {
		if post.Slug != slug {
			continue
		}
		if publishedOnly && !post.Published {
			continue
		}
		return post, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePostStore) FindByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return post, nil
}

func (f *fakePostStore) IncrementViews(_ context.Context, id uuid.UUID) error {
	if post, ok := f.posts[id]; ok {
		post.Views++
	}
	return nil
}

func (f *fakePostStore) Add(_ context.Context, post *models.Post) error {
	for _, existing := range f.posts {
		if existing.Slug == post.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	post.ID = uuid.New()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	f.posts[post.ID] = post
	return nil
}

func (f *fakePostStore) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	post, ok := f.posts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.updates = append(f.updates, fields)

	for key, value := range fields {
		switch key {
		case "title":
			post.Title = value.(string)
		case "slug":
			post.Slug = value.(string)
		case "content":
			post.Content = toRawMessage(value)
		case "excerpt":
			post.Excerpt = value.(string)
		case "cover_image":
			s := value.(string)
			post.CoverImage = &s
		case "featured":
			post.Featured = value.(bool)
		case "published":
			post.Published = value.(bool)
		case "published_at":
			if value == nil {
				post.PublishedAt = nil
			} else {
				ts := value.(time.Time)
				post.PublishedAt = &ts
			}
		case "updated_at":
			post.UpdatedAt = value.(time.Time)
		}
	}
	return nil
}

func toRawMessage(value any) []byte {
	switch v := value.(type) {
	case datatypes.JSON:
		return v
	case json.RawMessage:
		return v
	case []byte:
		return v
	case string:
		return []byte(v)
	}
	return nil
}

func (f *fakePostStore) ReplaceCategories(_ context.Context, post *models.Post, categories []models.Category) error {
	if stored, ok := f.posts[post.ID]; ok {
		stored.Categories = categories
	}
	return nil
}

func (f *fakePostStore) ReplaceTags(_ context.Context, post *models.Post, tags []models.Tag) error {
	if stored, ok := f.posts[post.ID]; ok {
		stored.Tags = tags
	}
	return nil
}

func (f *fakePostStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.posts[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.posts, id)
	return nil
}

type fakeTaxonomyStore struct {
	categories map[uuid.UUID]*models.Category
	tags       map[uuid.UUID]*models.Tag
}

func newFakeTaxonomyStore() *fakeTaxonomyStore {
	return &fakeTaxonomyStore{
		categories: make(map[uuid.UUID]*models.Category),
		tags:       make(map[uuid.UUID]*models.Tag),
	}
}

func (f *fakeTaxonomyStore) FindAllCategories(_ context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTaxonomyStore) FindAllTags(_ context.Context) ([]models.Tag, error) {
	var out []models.Tag
	for _, t := range f.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeTaxonomyStore) AddCategory(_ context.Context, category *models.Category) error {
	for _, existing := range f.categories {
		if existing.Name == category.Name || existing.Slug == category.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	category.ID = uuid.New()
	f.categories[category.ID] = category
	return nil
}

func (f *fakeTaxonomyStore) AddTag(_ context.Context, tag *models.Tag) error {
	for _, existing := range f.tags {
		if existing.Name == tag.Name || existing.Slug == tag.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	tag.ID = uuid.New()
	f.tags[tag.ID] = tag
	return nil
}

func (f *fakeTaxonomyStore) EnsureCategory(_ context.Context, name, slug string) (*models.Category, error) {
	for _, existing := range f.categories {
		if existing.Name == name {
			return existing, nil
		}
	}
	category := &models.Category{ID: uuid.New(), Name: name, Slug: slug}
	f.categories[category.ID] = category
	return category, nil
}

func (f *fakeTaxonomyStore) EnsureTag(_ context.Context, name, slug string) (*models.Tag, error) {
	for _, existing := range f.tags {
		if existing.Name == name {
			return existing, nil
		}
	}
	tag := &models.Tag{ID: uuid.New(), Name: name, Slug: slug}
	f.tags[tag.ID] = tag
	return tag, nil
}

func (f *fakeTaxonomyStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := f.categories[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeTaxonomyStore) DeleteTag(_ context.Context, id uuid.UUID) error {
	if _, ok := f.tags[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.tags, id)
	return nil
}

type fakeDraftStore struct {
	drafts map[uuid.UUID]*models.Draft
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{drafts: make(map[uuid.UUID]*models.Draft)}
}

func (f *fakeDraftStore) Upsert(_ context.Context, draft *models.Draft) error {
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	draft.UpdatedAt = time.Now().UTC()
	f.drafts[draft.ID] = draft
	return nil
}

type fakeCommentStore struct {
	comments map[uuid.UUID]*models.Comment
	seq      int
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[uuid.UUID]*models.Comment)}
}

func (f *fakeCommentStore) Add(_ context.Context, comment *models.Comment) error {
	f.seq++
	comment.ID = uuid.New()
	comment.CreatedAt = time.Now().UTC().Add(time.Duration(f.seq) * time.Millisecond)
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentStore) FindByPost(_ context.Context, postID uuid.UUID) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID && c.IsApproved {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeCommentStore) ExistsOnPost(_ context.Context, commentID, postID uuid.UUID) (bool, error) {
	c, ok := f.comments[commentID]
	return ok && c.PostID == postID, nil
}

func (f *fakeCommentStore) DeleteOwn(_ context.Context, id uuid.UUID, authorID string) error {
	c, ok := f.comments[id]
	if !ok || c.AuthorID != authorID {
		return gorm.ErrRecordNotFound
	}
	delete(f.comments, id)
	return nil
}

type fakeNotificationStore struct {
	notifications []*models.Notification
}

func (f *fakeNotificationStore) Add(_ context.Context, n *models.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationStore) FindRecent(_ context.Context, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for i := len(f.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *f.notifications[i])
	}
	return out, nil
}

func (f *fakeNotificationStore) CountUnread(_ context.Context) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationStore) MarkRead(_ context.Context, id uuid.UUID) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeNotificationStore) MarkAllRead(_ context.Context) error {
	for _, n := range f.notifications {
		n.Read = true
	}
	return nil
}

const testAdminEmail = "admin@example.com"

func adminCtx() context.Context {
	return ContextWithPrincipal(context.Background(), Principal{
		ID:    "admin-1",
		Email: testAdminEmail,
		Name:  "Site Owner",
	})
}

func visitorCtx() context.Context {
	return ContextWithPrincipal(context.Background(), Principal{
		ID:    "visitor-1",
		Email: "visitor@example.com",
		Name:  "Visitor",
	})
}

func publishedPost(title string, publishedAt time.Time) *models.Post {
	ts := publishedAt
	return &models.Post{
		Title:       title,
		Slug:        Slugify(title),
		Content:     []byte(`{"type":"doc","content":[{"text":"hello there"}]}`),
		Published:   true,
		PublishedAt: &ts,
		AuthorName:  "Site Owner",
	}
}
