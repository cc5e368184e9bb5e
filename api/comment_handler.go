package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blogfolio/backend/errs"
	"github.com/blogfolio/backend/services"
)

type commentHandler struct {
	responder Responder
	logger    zerolog.Logger
	comments  *services.CommentService
}

func newCommentHandler(comments *services.CommentService) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder: NewResponder(logger),
		logger:    logger,
		comments:  comments,
	}
}

type createCommentRequest struct {
	Content   string     `json:"content"`
	ReplyToID *uuid.UUID `json:"replyToId"`
}

func (h commentHandler) listComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := parseUUIDParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		comments, err := h.comments.ListComments(r.Context(), postID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]any{
			"comments": comments,
			"total":    len(comments),
		})
	}
}

func (h commentHandler) createComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := parseUUIDParam(r, "postID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode comment request body")
			h.responder.WriteError(w, errs.NewValidationError("body", "malformed request body"))
			return
		}

		comment, err := h.comments.AddComment(r.Context(), postID, req.Content, req.ReplyToID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusCreated, comment)
	}
}

func (h commentHandler) deleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		commentID, err := parseUUIDParam(r, "commentID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.comments.DeleteComment(r.Context(), commentID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.responder.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "comment deleted successfully",
		})
	}
}
