package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/database"
	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/models"
)

// PageSize is the fixed published-page size. Pinned by the pagination tests.
const PageSize = 6

// PostReader is the read surface PostService needs from the store.
type PostReader interface {
	FindPublishedPage(ctx context.Context, limit, offset int, filter database.PageFilter) ([]*models.Post, int64, error)
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// TaxonomyReader lists categories and tags for selection UIs.
type TaxonomyReader interface {
	FindAllCategories(ctx context.Context) ([]models.Category, error)
	FindAllTags(ctx context.Context) ([]models.Tag, error)
}

// ListFilter narrows GetPosts. Search composes with either slug filter.
type ListFilter struct {
	Search       string
	CategorySlug string
	TagSlug      string
}

// PostView is a post plus the derived display fields the presentation layer
// consumes as-is.
type PostView struct {
	models.Post
	ReadingTime int    `json:"readingTime"`
	DisplayDate string `json:"displayDate"`
}

// PostPage is one page of published posts.
type PostPage struct {
	Posts      []PostView `json:"posts"`
	TotalPages int        `json:"totalPages"`
	TotalPosts int64      `json:"totalPosts"`
}

type Taxonomies struct {
	Categories []models.Category `json:"categories"`
	Tags       []models.Tag      `json:"tags"`
}

// PostService is the read-only query layer over published content.
type PostService struct {
	posts      PostReader
	taxonomies TaxonomyReader
	cache      *RenderCache
	logger     zerolog.Logger
}

func NewPostService(posts PostReader, taxonomies TaxonomyReader, cache *RenderCache, logger zerolog.Logger) *PostService {
	return &PostService{
		posts:      posts,
		taxonomies: taxonomies,
		cache:      cache,
		logger:     logger.With().Str("service", "posts").Logger(),
	}
}

// GetPosts returns one 1-indexed page of published posts. Pages at or below
// zero behave exactly like page one.
func (s *PostService) GetPosts(ctx context.Context, page int, filter ListFilter) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(CacheKeyPostPage(page, filter)); ok {
			return cached.(*PostPage), nil
		}
	}

	offset := (page - 1) * PageSize
	posts, total, err := s.posts.FindPublishedPage(ctx, PageSize, offset, database.PageFilter{
		Search:       filter.Search,
		CategorySlug: filter.CategorySlug,
		TagSlug:      filter.TagSlug,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("page", page).Msg("listing published posts failed")
		return nil, errs.NewPersistenceError("list", "posts", err)
	}

	result := &PostPage{
		Posts:      decorate(posts),
		TotalPages: int((total + PageSize - 1) / PageSize),
		TotalPosts: total,
	}

	if s.cache != nil {
		s.cache.Set(CacheKeyPostPage(page, filter), result)
	}
	return result, nil
}

// GetPostBySlug returns the unique published post for slug, memoized within
// the request so repeated calls share one store round-trip. The memo lives on
// the request context and never outlives it.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*PostView, error) {
	memo := memoFromContext(ctx)
	if memo != nil {
		if view, ok := memo.get(slug); ok {
			return view, nil
		}
	}

	post, err := s.posts.FindBySlug(ctx, slug, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("post")
		}
		s.logger.Error().Err(err).Str("slug", slug).Msg("fetching post by slug failed")
		return nil, errs.NewPersistenceError("find", "post", err)
	}

	view := newPostView(post)
	if memo != nil {
		memo.put(slug, view)
	}
	return view, nil
}

// RecordView bumps the post's view counter. Monotonic, fire-and-forget for
// the caller; failures are logged and swallowed.
func (s *PostService) RecordView(ctx context.Context, id uuid.UUID) {
	if err := s.posts.IncrementViews(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("post_id", id.String()).Msg("incrementing views failed")
	}
}

// GetTaxonomies returns all categories and tags ascending by name.
func (s *PostService) GetTaxonomies(ctx context.Context) (*Taxonomies, error) {
	categories, err := s.taxonomies.FindAllCategories(ctx)
	if err != nil {
		return nil, errs.NewPersistenceError("list", "categories", err)
	}
	tags, err := s.taxonomies.FindAllTags(ctx)
	if err != nil {
		return nil, errs.NewPersistenceError("list", "tags", err)
	}
	return &Taxonomies{Categories: categories, Tags: tags}, nil
}

func decorate(posts []*models.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		views = append(views, *newPostView(post))
	}
	return views
}

func newPostView(post *models.Post) *PostView {
	displayed := post.CreatedAt
	if post.PublishedAt != nil {
		displayed = *post.PublishedAt
	}
	return &PostView{
		Post:        *post,
		ReadingTime: CalculateReadingTime(post.Content),
		DisplayDate: displayed.Format("Jan 2, 2006"),
	}
}

// postMemo is the request-scoped by-slug cache. It is installed by middleware
// on every request context and discarded with it.
type postMemo struct {
	mu     sync.Mutex
	bySlug map[string]*PostView
}

type memoKey struct{}

func ContextWithPostMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoKey{}, &postMemo{bySlug: make(map[string]*PostView)})
}

func memoFromContext(ctx context.Context) *postMemo {
	memo, _ := ctx.Value(memoKey{}).(*postMemo)
	return memo
}

func (m *postMemo) get(slug string) (*PostView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	view, ok := m.bySlug[slug]
	return view, ok
}

func (m *postMemo) put(slug string, view *PostView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySlug[slug] = view
}
