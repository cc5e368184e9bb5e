package models

import (
	"time"

	"github.com/google/uuid"
)

// Draft is an autosaved scratch copy of post fields, intentionally looser
// typed than Post: the category is a single string and the tags are one
// comma-joined string (lossy for tag names containing commas, by contract).
// A draft never becomes a Post automatically.
type Draft struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Title       string     `json:"title" gorm:"type:text"`
	Slug        string     `json:"slug" gorm:"type:text"`
	Content     string     `json:"content" gorm:"type:text"`
	Excerpt     string     `json:"excerpt" gorm:"type:text"`
	CoverImage  *string    `json:"coverImage,omitempty" gorm:"type:text"`
	Category    string     `json:"category" gorm:"type:text"`
	Tags        string     `json:"tags" gorm:"type:text"`
	IsFeatured  bool       `json:"isFeatured" gorm:"not null;default:false"`
	PublishDate *time.Time `json:"publishDate,omitempty" gorm:"type:timestamptz"`
	UpdatedAt   time.Time  `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
