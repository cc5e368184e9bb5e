package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, startupTime time.Time) {
	r.Get("/health", healthHandler(startupTime))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.authenticate)
		r.Use(HTTPLoggingMiddleware)
		r.Use(withPostMemo)

		// Public content
		r.Get("/posts", handlers.postHandler.listPosts())
		r.Get("/posts/{slug}", handlers.postHandler.getPostBySlug())
		r.Get("/taxonomies", handlers.postHandler.getTaxonomies())
		r.Get("/feed.xml", handlers.postHandler.getFeed())
		r.Get("/posts/{postID}/comments", handlers.commentHandler.listComments())

		// Authenticated visitors
		r.Post("/posts/{postID}/comments", handlers.commentHandler.createComment())
		r.Delete("/comments/{commentID}", handlers.commentHandler.deleteComment())

		// Admin panel
		r.Route("/admin", func(r chi.Router) {
			r.Get("/posts", handlers.adminHandler.listAllPosts())
			r.Post("/posts", handlers.adminHandler.createPost())
			r.Put("/posts/{postID}", handlers.adminHandler.updatePost())
			r.Post("/posts/{postID}/publish", handlers.adminHandler.togglePublish())
			r.Delete("/posts/{postID}", handlers.adminHandler.deletePost())

			r.Get("/drafts", handlers.adminHandler.listDrafts())
			r.Post("/drafts", handlers.adminHandler.saveDraft())
			r.Get("/drafts/{draftID}", handlers.adminHandler.getDraft())
			r.Delete("/drafts/{draftID}", handlers.adminHandler.deleteDraft())

			r.Post("/categories", handlers.adminHandler.createCategory())
			r.Delete("/categories/{categoryID}", handlers.adminHandler.deleteCategory())
			r.Post("/tags", handlers.adminHandler.createTag())
			r.Delete("/tags/{tagID}", handlers.adminHandler.deleteTag())

			r.Post("/media", handlers.adminHandler.uploadImage())

			r.Get("/notifications", handlers.adminHandler.listNotifications())
			r.Post("/notifications/{notificationID}/read", handlers.adminHandler.markNotificationRead())
			r.Post("/notifications/read-all", handlers.adminHandler.markAllNotificationsRead())
		})
	})
}

func healthHandler(startupTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","uptime":"` + time.Since(startupTime).Round(time.Second).String() + `"}`))
	}
}
