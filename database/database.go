package database

import (
	"gorm.io/gorm"

	"github.com/blogfolio/backend/models"
)

type Database struct {
	postRepo         *PostRepo
	taxonomyRepo     *TaxonomyRepo
	commentRepo      *CommentRepo
	draftRepo        *DraftRepo
	notificationRepo *NotificationRepo
}

// New initializes a new Database struct with each repository using a shared
// GORM database instance.
func New(db *gorm.DB) Database {
	return Database{
		postRepo:         NewPostRepo(db),
		taxonomyRepo:     NewTaxonomyRepo(db),
		commentRepo:      NewCommentRepo(db),
		draftRepo:        NewDraftRepo(db),
		notificationRepo: NewNotificationRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) PostRepo() *PostRepo {
	return d.postRepo
}

func (d Database) TaxonomyRepo() *TaxonomyRepo {
	return d.taxonomyRepo
}

func (d Database) CommentRepo() *CommentRepo {
	return d.commentRepo
}

func (d Database) DraftRepo() *DraftRepo {
	return d.draftRepo
}

func (d Database) NotificationRepo() *NotificationRepo {
	return d.notificationRepo
}

// Migrate brings the schema up to date for all entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Post{},
		&models.Category{},
		&models.Tag{},
		&models.Comment{},
		&models.Draft{},
		&models.Notification{},
	)
}
