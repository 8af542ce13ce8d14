package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Article is one ingested news item

Id: primary key
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Title / Summary / Content / Author / ImageUrl: ingested from the feed, Summary
is plain text, Content is sanitized html
Url: canonical link, unique, used to dedupe ingestion
Category: enum-like string, copied from the source at ingestion
SourceID:
Source: publisher, "belongs-to" relation
PublishedAt: immutable once set

VoteScore: sum of vote directions, may be negative
VoteCount: number of votes, never negative
CommentCount: number of live comments, never negative
The three counters are denormalized and only ever changed with
"col = col + delta" inside the transaction that changes the vote/comment row.

FactCheckStatus: UNCHECKED -> PENDING -> COMPLETE | FAILED
CredibilityScore .. FactCheckedAt: mirror of the latest FactCheckRecord, null
until a fact check completes
*/

type Article struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	Title       string         `gorm:"not null"`
	Url         string         `gorm:"uniqueIndex;not null"`
	Summary     string
	Content     string
	Author      string
	ImageUrl    string
	Category    string    `gorm:"index"`
	SourceID    string    `gorm:"index;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Source      *Source   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	PublishedAt time.Time `gorm:"index;not null"`

	VoteScore    int `gorm:"not null;default:0"`
	VoteCount    int `gorm:"not null;default:0"`
	CommentCount int `gorm:"not null;default:0"`

	FactCheckStatus  FactCheckStatus `gorm:"type:varchar(16);not null;default:'UNCHECKED'"`
	CredibilityScore *int
	Verdict          *Verdict         `gorm:"type:varchar(16);index"`
	ConfidenceLevel  *ConfidenceLevel `gorm:"type:varchar(16)"`
	NumSources       *int
	SourceConsensus  *SourceConsensus `gorm:"type:varchar(16)"`
	FactCheckSummary *string
	FactCheckedAt    *time.Time `gorm:"index"`
}

// BeforeCreate fills defaults the database cannot infer.
func (a *Article) BeforeCreate(db *gorm.DB) error {
	if a.FactCheckStatus == "" {
		a.FactCheckStatus = FactCheckStatusUnchecked
	}
	return nil
}
