package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Comment is a flat comment on an article. Deleting is soft so the comment_count
reconciliation can tell live rows from removed ones.

*/

type Comment struct {
	Id        string    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	ArticleID string         `gorm:"index;not null"`
	Article   *Article       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID    string         `gorm:"index;not null"`
	User      *User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Body      string         `gorm:"not null"`
}
