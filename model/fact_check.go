package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

/*

FactCheckJob tracks one submission to the external fact-check service

Mode: standard | thorough | synthesis, decides the timeout
ExternalJobID: id returned by the service, empty until submit succeeded
Status: PENDING until COMPLETE or FAILED
Phase / Progress: last values reported by the service, exposed so a caller can
tell a slow job from a silent one
Error: why the job failed, "timed out after ..." for local timeouts
StartedAt / LastPolledAt / FinishedAt: lifecycle timestamps
TimeoutMs: budget the job was started with

*/

type FactCheckJob struct {
	Id            string `gorm:"primaryKey"`
	CreatedAt     time.Time
	ArticleID     string        `gorm:"index;not null"`
	Article       *Article      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Mode          FactCheckMode `gorm:"type:varchar(16);not null"`
	ExternalJobID string
	Status        FactCheckStatus `gorm:"type:varchar(16);index;not null"`
	Phase         string
	Progress      float64
	Error         string
	StartedAt     time.Time `gorm:"not null"`
	LastPolledAt  *time.Time
	FinishedAt    *time.Time
	TimeoutMs     int64 `gorm:"not null"`
}

// Timeout is the budget of the job.
func (j FactCheckJob) Timeout() time.Duration {
	return time.Duration(j.TimeoutMs) * time.Millisecond
}

/*

FactCheckRecord is the authoritative result of a completed job, mirrored onto
the article. Evidence holds the evidence array exactly as the service returned
it; NumSources and SourceConsensus are derived from it.

*/

type FactCheckRecord struct {
	Id               string        `gorm:"primaryKey"`
	CreatedAt        time.Time     `gorm:"index"`
	ArticleID        string        `gorm:"index;not null"`
	Article          *Article      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	JobID            string        `gorm:"index"`
	Mode             FactCheckMode `gorm:"type:varchar(16)"`
	Verdict          Verdict       `gorm:"type:varchar(16);not null"`
	CredibilityScore int
	ConfidenceLevel  ConfidenceLevel `gorm:"type:varchar(16)"`
	Summary          string
	Synthesis        string
	Evidence         datatypes.JSON
	EvidenceUrls     pq.StringArray `gorm:"type:text[]"`
	NumSources       int
	SourceConsensus  SourceConsensus `gorm:"type:varchar(16)"`
}
