package model

import (
	"time"

	"gorm.io/gorm"
)

/*

Source is a publisher of articles, usually backed by one RSS feed

Id: primary key, use to identify a source
CreatedAt: time when entity is created
DeletedAt: time when entity is deleted

Name: the display name of the source for example "Reuters", unique
Domain: the domain of a source, for example "reuters.com"
FeedUrl: RSS/Atom url polled by the ingest job, empty for manually curated sources
Category: default category applied to ingested articles
Enabled: whether the ingest job polls this source

LastFetchedAt: last successful poll
LastError: error of the last failed poll, cleared on success
ETag / LastModified: validators of the last response, sent back on the next
poll to get a 304

Reliability aggregates are never stored here, they are computed from articles.
*/

type Source struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	DeletedAt     gorm.DeletedAt
	Name          string `gorm:"uniqueIndex;not null"`
	Domain        string
	FeedUrl       string
	Category      string `gorm:"index"`
	Enabled       bool   `gorm:"not null;default:true"`
	LastFetchedAt *time.Time
	LastError     string
	ETag          string
	LastModified  string
}
