package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/utils"
	"github.com/Luismorlan/factfeed/utils/dotenv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	db, _ := utils.CreateTempDB(t)
	return db
}

func seedSource(t *testing.T, db *gorm.DB, name, category string) model.Source {
	source := model.Source{Id: uuid.New().String(), Name: name, Domain: name + ".com", Category: category, Enabled: true}
	require.NoError(t, db.Create(&source).Error)
	return source
}

type articleOpt func(*model.Article)

func withVerdict(v model.Verdict, credibility int) articleOpt {
	return func(a *model.Article) {
		a.Verdict = &v
		a.CredibilityScore = &credibility
		checked := a.PublishedAt.Add(time.Hour)
		a.FactCheckedAt = &checked
		a.FactCheckStatus = model.FactCheckStatusComplete
	}
}

func seedArticle(t *testing.T, db *gorm.DB, source model.Source, category string, publishedAt time.Time, opts ...articleOpt) model.Article {
	id := uuid.New().String()
	article := model.Article{
		Id:          id,
		Title:       "article " + id,
		Url:         fmt.Sprintf("https://%s/%s", source.Domain, id),
		Category:    category,
		SourceID:    source.Id,
		PublishedAt: publishedAt,
	}
	for _, opt := range opts {
		opt(&article)
	}
	require.NoError(t, db.Create(&article).Error)
	return article
}

func reload(t *testing.T, db *gorm.DB, id string) model.Article {
	var a model.Article
	require.NoError(t, db.Where("id = ?", id).First(&a).Error)
	return a
}

var bg = context.Background()
