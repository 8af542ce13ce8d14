package factcheck

import (
	"encoding/json"
	"strings"
)

// Job states reported by the fact-check service.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type SubmitRequest struct {
	ArticleID string `json:"article_id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Mode      string `json:"mode"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

// JobStatus is one poll answer.
type JobStatus struct {
	JobID    string  `json:"job_id"`
	Status   string  `json:"status"`
	Phase    string  `json:"phase"`
	Progress float64 `json:"progress"`
	Result   *Result `json:"result,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// IsTerminal reports whether the service will not change the job anymore.
func (s JobStatus) IsTerminal() bool {
	switch strings.ToLower(s.Status) {
	case StatusCompleted, "complete", "done", StatusFailed, "error":
		return true
	}
	return false
}

// Succeeded is true for a terminal status carrying a result.
func (s JobStatus) Succeeded() bool {
	st := strings.ToLower(s.Status)
	return (st == StatusCompleted || st == "complete" || st == "done") && s.Result != nil
}

// Result is the verdict payload. Counter fields the service sends next to the
// evidence (num_sources, source_consensus) are ignored, they are derived from
// Evidence instead.
type Result struct {
	Verdict          string          `json:"verdict"`
	CredibilityScore float64         `json:"credibility_score"`
	Confidence       string          `json:"confidence"`
	Summary          string          `json:"summary"`
	Synthesis        string          `json:"synthesis"`
	RawEvidence      json.RawMessage `json:"evidence"`
}

// Evidence is the part of an evidence item factfeed interprets. The raw item
// is kept verbatim in the record.
type Evidence struct {
	URL     string `json:"url"`
	Source  string `json:"source"`
	Stance  string `json:"stance"`
	Snippet string `json:"snippet"`
}

// Evidence decodes RawEvidence, tolerating a missing or null array.
func (r Result) Evidence() ([]Evidence, error) {
	if len(r.RawEvidence) == 0 || string(r.RawEvidence) == "null" {
		return nil, nil
	}
	var items []Evidence
	if err := json.Unmarshal(r.RawEvidence, &items); err != nil {
		return nil, err
	}
	return items, nil
}
