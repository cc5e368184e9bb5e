package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogfolio/backend/errs"
)

type actionsFixture struct {
	actions    *PostActions
	posts      *fakePostStore
	taxonomies *fakeTaxonomyStore
	drafts     *fakeDraftStore
	cache      *RenderCache
}

func newActionsFixture() actionsFixture {
	posts := newFakePostStore()
	taxonomies := newFakeTaxonomyStore()
	drafts := newFakeDraftStore()
	cache := NewRenderCache(time.Minute, time.Minute)
	guard := NewGuard(testAdminEmail)
	return actionsFixture{
		actions:    NewPostActions(guard, posts, taxonomies, drafts, cache, zerolog.Nop()),
		posts:      posts,
		taxonomies: taxonomies,
		drafts:     drafts,
		cache:      cache,
	}
}

func validInput(title string) PostInput {
	return PostInput{
		Title:   title,
		Content: json.RawMessage(`{"type":"doc","content":[]}`),
	}
}

func TestCreatePost(t *testing.T) {
	fx := newActionsFixture()

	post, err := fx.actions.CreatePost(adminCtx(), validInput("Hello World"))
	require.NoError(t, err)

	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, "hello-world", post.Slug)
	assert.False(t, post.Published, "new posts start unpublished")
	assert.Nil(t, post.PublishedAt)
	assert.Equal(t, "Site Owner", post.AuthorName)
	assert.NotEqual(t, uuid.Nil, post.ID)
}

func TestCreatePostRequiresAdmin(t *testing.T) {
	fx := newActionsFixture()

	for name, ctx := range map[string]context.Context{
		"unauthenticated": context.Background(),
		"non-admin":       visitorCtx(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := fx.actions.CreatePost(ctx, validInput("Blocked"))
			require.Error(t, err)
			assert.True(t, errs.IsUnauthorized(err))
			assert.Empty(t, fx.posts.posts, "store must not be touched")
		})
	}
}

func TestCreatePostValidation(t *testing.T) {
	fx := newActionsFixture()

	tests := []struct {
		name  string
		input PostInput
		field string
	}{
		{"empty title", validInput("   "), "title"},
		{"missing content", PostInput{Title: "No Content"}, "content"},
		{"null content", PostInput{Title: "Null", Content: json.RawMessage(`null`)}, "content"},
		{"invalid content", PostInput{Title: "Broken", Content: json.RawMessage(`{"oops`)}, "content"},
		{"unsluggable title", validInput("!!!"), "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.actions.CreatePost(adminCtx(), tt.input)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
			var apiErr *errs.ApiErr
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.field, apiErr.Field)
		})
	}
	assert.Empty(t, fx.posts.posts)
}

func TestCreatePostExplicitSlugWins(t *testing.T) {
	fx := newActionsFixture()

	in := validInput("Some Long Title")
	in.Slug = "custom-slug"
	post, err := fx.actions.CreatePost(adminCtx(), in)
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", post.Slug)
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	fx := newActionsFixture()

	_, err := fx.actions.CreatePost(adminCtx(), validInput("Same Title"))
	require.NoError(t, err)

	_, err = fx.actions.CreatePost(adminCtx(), validInput("Same Title"))
	require.Error(t, err)
	assert.True(t, errs.IsPersistence(err))

	var apiErr *errs.ApiErr
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.StatusCode)
}

func TestCreatePostAssignsTaxonomiesByName(t *testing.T) {
	fx := newActionsFixture()

	in := validInput("Tagged Post")
	in.Categories = []string{"Engineering", " "}
	in.Tags = []string{"Go", "Testing"}

	post, err := fx.actions.CreatePost(adminCtx(), in)
	require.NoError(t, err)

	stored := fx.posts.posts[post.ID]
	require.Len(t, stored.Categories, 1)
	assert.Equal(t, "engineering", stored.Categories[0].Slug)
	require.Len(t, stored.Tags, 2)

	// Missing taxonomy rows were created on the fly.
	assert.Len(t, fx.taxonomies.categories, 1)
	assert.Len(t, fx.taxonomies.tags, 2)
}

func TestUpdatePostPartialSemantics(t *testing.T) {
	fx := newActionsFixture()

	in := validInput("Original Title")
	in.Excerpt = "original excerpt"
	created, err := fx.actions.CreatePost(adminCtx(), in)
	require.NoError(t, err)

	newExcerpt := "new excerpt"
	updated, err := fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Excerpt: &newExcerpt})
	require.NoError(t, err)

	assert.Equal(t, "Original Title", updated.Title, "absent fields stay untouched")
	assert.Equal(t, "original-title", updated.Slug)
	assert.Equal(t, "new excerpt", updated.Excerpt)
}

func TestUpdatePostSlugRecomputedOnlyFromNewTitle(t *testing.T) {
	fx := newActionsFixture()

	created, err := fx.actions.CreatePost(adminCtx(), validInput("First Title"))
	require.NoError(t, err)

	newTitle := "Second Title"
	updated, err := fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "second-title", updated.Slug, "title change without slug recomputes it")

	thirdTitle := "Third Title"
	keepSlug := "second-title"
	updated, err = fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Title: &thirdTitle, Slug: &keepSlug})
	require.NoError(t, err)
	assert.Equal(t, "second-title", updated.Slug, "explicit slug is kept verbatim")
}

func TestUpdatePostReplacesOnlyProvidedTaxonomies(t *testing.T) {
	fx := newActionsFixture()

	in := validInput("Well Organized")
	in.Categories = []string{"Engineering"}
	in.Tags = []string{"Go", "Testing"}
	created, err := fx.actions.CreatePost(adminCtx(), in)
	require.NoError(t, err)

	// Only categories change; tags must keep their current rows.
	newCategories := []string{"Travel"}
	_, err = fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Categories: &newCategories})
	require.NoError(t, err)

	stored := fx.posts.posts[created.ID]
	require.Len(t, stored.Categories, 1)
	assert.Equal(t, "travel", stored.Categories[0].Slug)
	assert.Len(t, stored.Tags, 2, "absent tags input leaves tags alone")

	// And the mirror case: only tags change.
	newTags := []string{"Go"}
	_, err = fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Tags: &newTags})
	require.NoError(t, err)

	stored = fx.posts.posts[created.ID]
	assert.Len(t, stored.Categories, 1, "absent categories input leaves categories alone")
	require.Len(t, stored.Tags, 1)

	// An explicitly empty list still clears.
	empty := []string{}
	_, err = fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Tags: &empty})
	require.NoError(t, err)
	assert.Empty(t, fx.posts.posts[created.ID].Tags)
	assert.Len(t, fx.posts.posts[created.ID].Categories, 1)
}

func TestUpdatePostRejectsEmptyTitle(t *testing.T) {
	fx := newActionsFixture()

	created, err := fx.actions.CreatePost(adminCtx(), validInput("Stable Title"))
	require.NoError(t, err)
	writesBefore := len(fx.posts.updates)

	empty := "   "
	_, err = fx.actions.UpdatePost(adminCtx(), created.ID, UpdatePostInput{Title: &empty})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Len(t, fx.posts.updates, writesBefore, "no write on validation failure")
	assert.Equal(t, "Stable Title", fx.posts.posts[created.ID].Title)
}

func TestUpdatePostNotFound(t *testing.T) {
	fx := newActionsFixture()

	title := "Anything"
	_, err := fx.actions.UpdatePost(adminCtx(), uuid.New(), UpdatePostInput{Title: &title})
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestTogglePublishStampsPublishedAt(t *testing.T) {
	fx := newActionsFixture()

	created, err := fx.actions.CreatePost(adminCtx(), validInput("Publish Me"))
	require.NoError(t, err)

	require.NoError(t, fx.actions.TogglePublish(adminCtx(), created.ID, true))

	fields := fx.posts.updates[len(fx.posts.updates)-1]
	assert.Equal(t, true, fields["published"])
	publishedAt, ok := fields["published_at"].(time.Time)
	require.True(t, ok, "publish writes a concrete timestamp")
	assert.WithinDuration(t, time.Now().UTC(), publishedAt, time.Minute)

	stored := fx.posts.posts[created.ID]
	assert.True(t, stored.Published)
	require.NotNil(t, stored.PublishedAt)
}

func TestTogglePublishUnpublishClearsStamp(t *testing.T) {
	fx := newActionsFixture()

	created, err := fx.actions.CreatePost(adminCtx(), validInput("Retract Me"))
	require.NoError(t, err)
	require.NoError(t, fx.actions.TogglePublish(adminCtx(), created.ID, true))

	require.NoError(t, fx.actions.TogglePublish(adminCtx(), created.ID, false))

	fields := fx.posts.updates[len(fx.posts.updates)-1]
	assert.Equal(t, false, fields["published"])
	value, present := fields["published_at"]
	assert.True(t, present)
	assert.Nil(t, value, "unpublish always clears the stamp")

	stored := fx.posts.posts[created.ID]
	assert.False(t, stored.Published)
	assert.Nil(t, stored.PublishedAt)
}

func TestTogglePublishNotFound(t *testing.T) {
	fx := newActionsFixture()

	err := fx.actions.TogglePublish(adminCtx(), uuid.New(), true)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDeletePost(t *testing.T) {
	fx := newActionsFixture()

	created, err := fx.actions.CreatePost(adminCtx(), validInput("Short Lived"))
	require.NoError(t, err)

	require.NoError(t, fx.actions.DeletePost(adminCtx(), created.ID))
	assert.Empty(t, fx.posts.posts)

	err = fx.actions.DeletePost(adminCtx(), created.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestMutationsFlushRenderCache(t *testing.T) {
	fx := newActionsFixture()
	fx.cache.Set(CacheKeyFeed(), []byte("stale"))

	_, err := fx.actions.CreatePost(adminCtx(), validInput("Invalidator"))
	require.NoError(t, err)

	_, ok := fx.cache.Get(CacheKeyFeed())
	assert.False(t, ok, "post mutations flush rendered projections")
}

func TestSaveDraft(t *testing.T) {
	fx := newActionsFixture()

	draft, err := fx.actions.SaveDraft(adminCtx(), DraftInput{
		Title:   "Work In Progress",
		Content: `{ "type": "doc" }`,
		Tags:    []string{"go", "draft", "notes"},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, draft.ID)
	assert.Equal(t, "go,draft,notes", draft.Tags, "tags collapse to one comma-joined string")
	assert.Equal(t, `{"type":"doc"}`, draft.Content, "valid JSON content is compacted")
}

func TestSaveDraftKeepsNonJSONContentVerbatim(t *testing.T) {
	fx := newActionsFixture()

	draft, err := fx.actions.SaveDraft(adminCtx(), DraftInput{
		Title:   "Plain Text",
		Content: "not json at all",
	})
	require.NoError(t, err)
	assert.Equal(t, "not json at all", draft.Content)
}

func TestSaveDraftUpdatesExisting(t *testing.T) {
	fx := newActionsFixture()

	first, err := fx.actions.SaveDraft(adminCtx(), DraftInput{Title: "Autosave v1"})
	require.NoError(t, err)

	second, err := fx.actions.SaveDraft(adminCtx(), DraftInput{ID: &first.ID, Title: "Autosave v2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, fx.drafts.drafts, 1)
	assert.Equal(t, "Autosave v2", fx.drafts.drafts[first.ID].Title)
}

func TestSaveDraftInsertsUnderExplicitID(t *testing.T) {
	fx := newActionsFixture()

	// A client-chosen id that was never saved before still lands as a new
	// row; autosave does not care whether the row existed.
	id := uuid.New()
	draft, err := fx.actions.SaveDraft(adminCtx(), DraftInput{ID: &id, Title: "Imported"})
	require.NoError(t, err)
	assert.Equal(t, id, draft.ID)
	require.Contains(t, fx.drafts.drafts, id)
	assert.Equal(t, "Imported", fx.drafts.drafts[id].Title)
}

func TestCreateCategory(t *testing.T) {
	fx := newActionsFixture()

	category, err := fx.actions.CreateCategory(adminCtx(), "Deep Dives", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "deep-dives", category.Slug)

	_, err = fx.actions.CreateCategory(adminCtx(), "", "", nil)
	assert.True(t, errs.IsValidation(err))

	_, err = fx.actions.CreateCategory(adminCtx(), "Bad Slug", "Not A Slug", nil)
	assert.True(t, errs.IsValidation(err))
}

func TestCreateAndDeleteTag(t *testing.T) {
	fx := newActionsFixture()

	tag, err := fx.actions.CreateTag(adminCtx(), "Side Projects", "")
	require.NoError(t, err)
	assert.Equal(t, "side-projects", tag.Slug)

	require.NoError(t, fx.actions.DeleteTag(adminCtx(), tag.ID))
	assert.Empty(t, fx.taxonomies.tags)

	err = fx.actions.DeleteTag(adminCtx(), tag.ID)
	assert.True(t, errs.IsNotFound(err))
}

func TestCreatePublishThenReadBySlug(t *testing.T) {
	fx := newActionsFixture()
	reader := NewPostService(fx.posts, fx.taxonomies, nil, zerolog.Nop())

	created, err := fx.actions.CreatePost(adminCtx(), validInput("Round Trip"))
	require.NoError(t, err)

	// Unpublished, so invisible to the public read.
	_, err = reader.GetPostBySlug(context.Background(), "round-trip")
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, fx.actions.TogglePublish(adminCtx(), created.ID, true))

	view, err := reader.GetPostBySlug(context.Background(), "round-trip")
	require.NoError(t, err)
	assert.Equal(t, created.ID, view.ID)
	assert.Equal(t, "Round Trip", view.Title)
}

func TestMutationsRequireAdmin(t *testing.T) {
	fx := newActionsFixture()
	created, err := fx.actions.CreatePost(adminCtx(), validInput("Guarded"))
	require.NoError(t, err)

	ctx := visitorCtx()
	title := "x"

	_, err = fx.actions.UpdatePost(ctx, created.ID, UpdatePostInput{Title: &title})
	assert.True(t, errs.IsUnauthorized(err))

	assert.True(t, errs.IsUnauthorized(fx.actions.TogglePublish(ctx, created.ID, true)))
	assert.True(t, errs.IsUnauthorized(fx.actions.DeletePost(ctx, created.ID)))

	_, err = fx.actions.SaveDraft(ctx, DraftInput{Title: "nope"})
	assert.True(t, errs.IsUnauthorized(err))

	_, err = fx.actions.CreateCategory(ctx, "Nope", "", nil)
	assert.True(t, errs.IsUnauthorized(err))

	_, err = fx.actions.CreateTag(ctx, "Nope", "")
	assert.True(t, errs.IsUnauthorized(err))

	assert.True(t, errs.IsUnauthorized(fx.actions.DeleteCategory(ctx, uuid.New())))
	assert.True(t, errs.IsUnauthorized(fx.actions.DeleteTag(ctx, uuid.New())))

	// The guarded post is untouched.
	assert.False(t, fx.posts.posts[created.ID].Published)
	assert.Equal(t, "Guarded", fx.posts.posts[created.ID].Title)
}
