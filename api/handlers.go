package api

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blogfolio/backend/config"
	"github.com/blogfolio/backend/database"
	"github.com/blogfolio/backend/services"
)

// initializeHandlers wires the service graph from the shared store handle and
// hands each handler its dependencies.
func initializeHandlers(db database.Database, c map[string]string) (*routeHandlers, error) {
	cache := services.NewRenderCache(5*time.Minute, 10*time.Minute)
	guard := services.NewGuard(config.GetString(c, "ADMIN_EMAIL", ""))

	postService := services.NewPostService(db.PostRepo(), db.TaxonomyRepo(), cache, log.Logger)
	postActions := services.NewPostActions(guard, db.PostRepo(), db.TaxonomyRepo(), db.DraftRepo(), cache, log.Logger)
	commentService := services.NewCommentService(guard, db.CommentRepo(), db.PostRepo(), db.NotificationRepo(), log.Logger)
	notificationService := services.NewNotificationService(guard, db.NotificationRepo(), log.Logger)

	feed := services.NewFeedBuilder(
		postService,
		cache,
		config.GetString(c, "SITE_URL", "http://localhost:8080"),
		config.GetString(c, "SITE_TITLE", "Blog"),
		config.GetString(c, "SITE_DESCRIPTION", "Latest posts"),
	)

	var media *services.MediaStore
	if bucket := config.GetString(c, "S3_BUCKET", ""); bucket != "" {
		var err error
		media, err = services.NewMediaStore(
			context.Background(),
			bucket,
			config.GetString(c, "S3_REGION", "us-east-1"),
			log.Logger,
		)
		if err != nil {
			return nil, err
		}
	}

	return &routeHandlers{
		postHandler:    newPostHandler(postService, feed),
		commentHandler: newCommentHandler(commentService),
		adminHandler:   newAdminHandler(guard, postActions, db.PostRepo(), db.DraftRepo(), media, notificationService),
	}, nil
}
