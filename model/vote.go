package model

import "time"

/*

Vote is a user's up or down vote on an article

Id: primary key
UserID / ArticleID: unique together, a user holds at most one vote per article
Direction: +1 or -1

*/

type Vote struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    string   `gorm:"uniqueIndex:idx_votes_user_article;not null"`
	User      *User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ArticleID string   `gorm:"uniqueIndex:idx_votes_user_article;index;not null"`
	Article   *Article `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Direction int      `gorm:"not null"`
}

const (
	VoteUp   = 1
	VoteDown = -1
)

// IsValidDirection accepts only +1 and -1.
func IsValidDirection(d int) bool {
	return d == VoteUp || d == VoteDown
}
