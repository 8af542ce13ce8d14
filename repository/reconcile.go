package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// The counters on articles are only ever moved by delta updates. These
// statements recompute them from the authoritative rows and touch only the
// articles that drifted.
const (
	reconcileVotesSQL = `
UPDATE articles AS a
SET vote_score = agg.score, vote_count = agg.cnt
FROM (
	SELECT ar.id, COALESCE(SUM(v.direction), 0) AS score, COUNT(v.id) AS cnt
	FROM articles ar
	LEFT JOIN votes v ON v.article_id = ar.id
	GROUP BY ar.id
) AS agg
WHERE agg.id = a.id AND (a.vote_score <> agg.score OR a.vote_count <> agg.cnt)`

	reconcileCommentsSQL = `
UPDATE articles AS a
SET comment_count = agg.cnt
FROM (
	SELECT ar.id, COUNT(c.id) AS cnt
	FROM articles ar
	LEFT JOIN comments c ON c.article_id = ar.id AND c.deleted_at IS NULL
	GROUP BY ar.id
) AS agg
WHERE agg.id = a.id AND a.comment_count <> agg.cnt`
)

// ReconcileResult counts the articles whose counters were repaired.
type ReconcileResult struct {
	VoteCountersFixed    int64
	CommentCountersFixed int64
}

// ReconcileCounters repairs drifted vote and comment counters.
func ReconcileCounters(ctx context.Context, db *gorm.DB) (ReconcileResult, error) {
	var out ReconcileResult
	res := db.WithContext(ctx).Exec(reconcileVotesSQL)
	if res.Error != nil {
		return out, errors.Wrap(res.Error, "reconcile vote counters")
	}
	out.VoteCountersFixed = res.RowsAffected

	res = db.WithContext(ctx).Exec(reconcileCommentsSQL)
	if res.Error != nil {
		return out, errors.Wrap(res.Error, "reconcile comment counters")
	}
	out.CommentCountersFixed = res.RowsAffected
	return out, nil
}
