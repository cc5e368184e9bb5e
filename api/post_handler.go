package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/services"
)

type postHandler struct {
	responder Responder
	logger    zerolog.Logger
	posts     *services.PostService
	feed      *services.FeedBuilder
}

func newPostHandler(posts *services.PostService, feed *services.FeedBuilder) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()

	return postHandler{
		responder: NewResponder(logger),
		logger:    logger,
		posts:     posts,
		feed:      feed,
	}
}

// listPosts serves the published page. Query params: page (1-indexed),
// search, category, tag.
func (h postHandler) listPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		filter := services.ListFilter{
			Search:       r.URL.Query().Get("search"),
			CategorySlug: r.URL.Query().Get("category"),
			TagSlug:      r.URL.Query().Get("tag"),
		}

		result, err := h.posts.GetPosts(r.Context(), page, filter)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, result)
	}
}

// getPostBySlug serves one published post and bumps its view counter.
func (h postHandler) getPostBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			h.responder.WriteError(w, errs.NewNotFound("post"))
			return
		}

		post, err := h.posts.GetPostBySlug(r.Context(), slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.posts.RecordView(r.Context(), post.ID)

		h.responder.WriteJSON(w, http.StatusOK, post)
	}
}

func (h postHandler) getTaxonomies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taxonomies, err := h.posts.GetTaxonomies(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, taxonomies)
	}
}

func (h postHandler) getFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := h.feed.Render(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			h.logger.Error().Err(err).Msg("error writing feed response")
		}
	}
}

// parseUUIDParam reads a UUID path parameter or reports it missing/invalid.
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewValidationError(name, "missing "+name)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewValidationError(name, "invalid "+name)
	}
	return id, nil
}
