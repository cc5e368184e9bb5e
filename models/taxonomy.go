package models

import "github.com/google/uuid"

// Category groups posts. Deleting a category only removes the association
// rows, never the posts.
type Category struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name        string    `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Slug        string    `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
}

// Tag has the same shape as Category minus the description.
type Tag struct {
	ID   uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Name string    `json:"name" gorm:"type:text;not null;uniqueIndex"`
	Slug string    `json:"slug" gorm:"type:text;not null;uniqueIndex"`
}
