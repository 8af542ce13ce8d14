package repository

import (
	"context"

	"github.com/Luismorlan/factfeed/model"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteTally is the state of an article's vote counters after a mutation.
type VoteTally struct {
	ArticleID string
	VoteScore int
	VoteCount int
	// UserVote is the direction held by the caller, nil when none.
	UserVote *int
}

type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// ensureUser lazily creates the user row owning votes and comments.
func ensureUser(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.User{Id: userID}).Error
}

// lockArticle takes a row lock on the article for the rest of the
// transaction. Concurrent writers on the same article queue up here.
func lockArticle(tx *gorm.DB, articleID string) error {
	var article model.Article
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", articleID).
		First(&article).Error
	if notFound(err) {
		return ErrNotFound
	}
	return err
}

func bumpVotes(tx *gorm.DB, articleID string, scoreDelta, countDelta int) error {
	return tx.Model(&model.Article{}).
		Where("id = ?", articleID).
		UpdateColumns(map[string]interface{}{
			"vote_score": gorm.Expr("vote_score + ?", scoreDelta),
			"vote_count": gorm.Expr("vote_count + ?", countDelta),
		}).Error
}

func readTally(tx *gorm.DB, articleID string, userVote *int) (VoteTally, error) {
	var article model.Article
	if err := tx.Select("id", "vote_score", "vote_count").Where("id = ?", articleID).First(&article).Error; err != nil {
		return VoteTally{}, err
	}
	return VoteTally{
		ArticleID: article.Id,
		VoteScore: article.VoteScore,
		VoteCount: article.VoteCount,
		UserVote:  userVote,
	}, nil
}

// Cast records direction for (userID, articleID). A first vote adds the
// direction, flipping a vote moves the score by twice the direction and
// repeating the held direction returns ErrDuplicate.
func (r *VoteRepository) Cast(ctx context.Context, userID, articleID string, direction int) (VoteTally, error) {
	var tally VoteTally
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUser(tx, userID); err != nil {
			return err
		}
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}

		var existing model.Vote
		err := tx.Where("user_id = ? AND article_id = ?", userID, articleID).Take(&existing).Error
		switch {
		case notFound(err):
			vote := model.Vote{Id: uuid.New().String(), UserID: userID, ArticleID: articleID, Direction: direction}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrDuplicate
			}
			if err := bumpVotes(tx, articleID, direction, 1); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.Direction == direction:
			return ErrDuplicate
		default:
			if err := tx.Model(&existing).UpdateColumn("direction", direction).Error; err != nil {
				return err
			}
			if err := bumpVotes(tx, articleID, 2*direction, 0); err != nil {
				return err
			}
		}

		d := direction
		tally, err = readTally(tx, articleID, &d)
		return err
	})
	if err == ErrNotFound || err == ErrDuplicate {
		return VoteTally{}, err
	}
	if err != nil {
		return VoteTally{}, errors.Wrap(err, "cast vote")
	}
	return tally, nil
}

// Remove deletes the user's vote and reverses its effect on the counters.
func (r *VoteRepository) Remove(ctx context.Context, userID, articleID string) (VoteTally, error) {
	var tally VoteTally
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockArticle(tx, articleID); err != nil {
			return err
		}
		var existing model.Vote
		err := tx.Where("user_id = ? AND article_id = ?", userID, articleID).Take(&existing).Error
		if notFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Delete(&existing).Error; err != nil {
			return err
		}
		if err := bumpVotes(tx, articleID, -existing.Direction, -1); err != nil {
			return err
		}
		tally, err = readTally(tx, articleID, nil)
		return err
	})
	if err == ErrNotFound {
		return VoteTally{}, err
	}
	if err != nil {
		return VoteTally{}, errors.Wrap(err, "remove vote")
	}
	return tally, nil
}

// DirectionsFor returns userID's vote per article in one query. Articles the
// user did not vote on are absent from the map.
func (r *VoteRepository) DirectionsFor(ctx context.Context, userID string, articleIDs []string) (map[string]int, error) {
	out := map[string]int{}
	if userID == "" || len(articleIDs) == 0 {
		return out, nil
	}
	var votes []model.Vote
	err := r.db.WithContext(ctx).
		Select("article_id", "direction").
		Where("user_id = ? AND article_id IN ?", userID, articleIDs).
		Find(&votes).Error
	if err != nil {
		return nil, errors.Wrap(err, "load user votes")
	}
	for _, v := range votes {
		out[v.ArticleID] = v.Direction
	}
	return out, nil
}
