package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment belongs to a post. ReplyToID forms a flat one-level reply relation;
// replies to replies are not modeled specially.
type Comment struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	PostID     uuid.UUID  `json:"postId" gorm:"type:uuid;not null;index"`
	AuthorID   string     `json:"authorId" gorm:"type:text;not null"`
	AuthorName string     `json:"authorName" gorm:"type:text;not null"`
	ReplyToID  *uuid.UUID `json:"replyToId,omitempty" gorm:"type:uuid"`
	IsApproved bool       `json:"isApproved" gorm:"not null;default:true"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}
