package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/blogfolio/backend/database"
	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/services"
)

const maxUploadSize = 10 << 20 // 10MB

// adminHandler serves the single-admin panel. Mutations go through
// PostActions, which checks the guard itself; admin reads check it here.
type adminHandler struct {
	responder     Responder
	logger        zerolog.Logger
	guard         services.Guard
	actions       *services.PostActions
	postRepo      *database.PostRepo
	draftRepo     *database.DraftRepo
	media         *services.MediaStore
	notifications *services.NotificationService
}

func newAdminHandler(guard services.Guard, actions *services.PostActions, postRepo *database.PostRepo, draftRepo *database.DraftRepo, media *services.MediaStore, notifications *services.NotificationService) adminHandler {
	logger := log.With().Str("handlerName", "adminHandler").Logger()

	return adminHandler{
		responder:     NewResponder(logger),
		logger:        logger,
		guard:         guard,
		actions:       actions,
		postRepo:      postRepo,
		draftRepo:     draftRepo,
		media:         media,
		notifications: notifications,
	}
}

// listAllPosts includes unpublished posts; the admin listing view.
func (h adminHandler) listAllPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.guard.RequireAdmin(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		posts, err := h.postRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewPersistenceError("list", "posts", err))
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]any{
			"posts": posts,
			"total": len(posts),
		})
	}
}

func (h adminHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.PostInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode post request body")
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		post, err := h.actions.CreatePost(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		w.Header().Set("Location", "/admin/posts")
		h.responder.WriteJSON(w, http.StatusCreated, post)
	}
}

func (h adminHandler) updatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := parseUUIDParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var in services.UpdatePostInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode post request body")
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		post, err := h.actions.UpdatePost(r.Context(), postID, in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, post)
	}
}

type publishRequest struct {
	Publish bool `json:"publish"`
}

func (h adminHandler) togglePublish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := parseUUIDParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req publishRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		if err := h.actions.TogglePublish(r.Context(), postID, req.Publish); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "success",
			"published": req.Publish,
		})
	}
}

func (h adminHandler) deletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := parseUUIDParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.actions.DeletePost(r.Context(), postID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "post deleted successfully",
		})
	}
}

func (h adminHandler) saveDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in services.DraftInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode draft request body")
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		draft, err := h.actions.SaveDraft(r.Context(), in)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, draft)
	}
}

func (h adminHandler) listDrafts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.guard.RequireAdmin(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		drafts, err := h.draftRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, errs.NewPersistenceError("list", "drafts", err))
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]any{
			"drafts": drafts,
			"total":  len(drafts),
		})
	}
}

func (h adminHandler) getDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.guard.RequireAdmin(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		draftID, err := parseUUIDParam(r, "draftID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		draft, err := h.draftRepo.FindByID(r.Context(), draftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.responder.WriteError(w, errs.NewNotFound("draft"))
				return
			}
			h.responder.WriteError(w, errs.NewPersistenceError("find", "draft", err))
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, draft)
	}
}

func (h adminHandler) deleteDraft() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.guard.RequireAdmin(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		draftID, err := parseUUIDParam(r, "draftID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.draftRepo.Delete(r.Context(), draftID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				h.responder.WriteError(w, errs.NewNotFound("draft"))
				return
			}
			h.responder.WriteError(w, errs.NewPersistenceError("delete", "draft", err))
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "draft deleted successfully",
		})
	}
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

func (h adminHandler) createCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		category, err := h.actions.CreateCategory(r.Context(), req.Name, req.Slug, req.Description)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusCreated, category)
	}
}

func (h adminHandler) deleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := parseUUIDParam(r, "categoryID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.actions.DeleteCategory(r.Context(), categoryID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "category deleted successfully",
		})
	}
}

type tagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (h adminHandler) createTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		tag, err := h.actions.CreateTag(r.Context(), req.Name, req.Slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusCreated, tag)
	}
}

func (h adminHandler) deleteTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tagID, err := parseUUIDParam(r, "tagID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.actions.DeleteTag(r.Context(), tagID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "tag deleted successfully",
		})
	}
}

// uploadImage accepts a multipart "file" field and returns the hosted URL.
func (h adminHandler) uploadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.guard.RequireAdmin(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if h.media == nil {
			h.responder.WriteError(w, errs.NewValidationError("media", "media storage is not configured"))
			return
		}

		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.responder.WriteError(w, errs.NewValidationError("file", "file too large or malformed upload"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			h.responder.WriteError(w, errs.NewValidationError("file", "missing file"))
			return
		}
		defer file.Close()

		url, err := h.media.UploadImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}

func (h adminHandler) listNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.notifications.List(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, list)
	}
}

func (h adminHandler) markNotificationRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := parseUUIDParam(r, "notificationID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.notifications.MarkRead(r.Context(), notificationID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

func (h adminHandler) markAllNotificationsRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.notifications.MarkAllRead(r.Context()); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
