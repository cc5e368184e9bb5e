package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Post is a blog post. Content holds the editor's structured document as an
// opaque JSON tree; nothing in this service interprets it beyond the
// reading-time walk.
type Post struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Title       string          `json:"title" gorm:"type:text;not null"`
	Slug        string          `json:"slug" gorm:"type:text;not null;uniqueIndex"`
	Content     datatypes.JSON  `json:"content" gorm:"type:jsonb;not null"`
	Excerpt     string          `json:"excerpt,omitempty" gorm:"type:text"`
	CoverImage  *string         `json:"coverImage,omitempty" gorm:"type:text"`
	Published   bool            `json:"published" gorm:"not null;default:false;index"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty" gorm:"type:timestamptz;index"`
	Featured    bool            `json:"featured" gorm:"not null;default:false"`
	Views       int64           `json:"views" gorm:"not null;default:0"`
	AuthorName  string          `json:"authorName" gorm:"type:text;not null"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time       `json:"updatedAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`

	Categories []Category `json:"categories,omitempty" gorm:"many2many:post_categories"`
	Tags       []Tag      `json:"tags,omitempty" gorm:"many2many:post_tags"`
	Comments   []Comment  `json:"-" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}
