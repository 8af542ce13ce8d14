// Package ingest polls the RSS and Atom feeds of the configured sources and
// stores new articles.
package ingest

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/utils"
	. "github.com/Luismorlan/factfeed/utils/log"
	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultUserAgent = "factfeed-ingest/1.0"
	maxSummaryRunes  = 1000
)

type SourceStore interface {
	ListFeedSources(ctx context.Context) ([]model.Source, error)
	RecordFetchSuccess(ctx context.Context, id, etag, lastModified string, at time.Time) error
	RecordFetchError(ctx context.Context, id string, fetchErr error) error
}

type ArticleSink interface {
	InsertIfAbsent(ctx context.Context, article *model.Article) (bool, error)
}

// Result summarizes one pass over every feed source.
type Result struct {
	Sources     int
	NotModified int
	Failed      int
	Inserted    int
}

type Poller struct {
	sources   SourceStore
	articles  ArticleSink
	client    *http.Client
	parser    *gofeed.Parser
	sanitizer *bluemonday.Policy
	content   *bluemonday.Policy
	metrics   statsd.ClientInterface
	userAgent string
	now       func() time.Time
}

func NewPoller(sources SourceStore, articles ArticleSink, client *http.Client, userAgent string, metrics statsd.ClientInterface) *Poller {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if metrics == nil {
		metrics = &statsd.NoOpClient{}
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &Poller{
		sources:   sources,
		articles:  articles,
		client:    client,
		parser:    parser,
		sanitizer: bluemonday.StrictPolicy(),
		content:   bluemonday.UGCPolicy(),
		metrics:   metrics,
		userAgent: userAgent,
		now:       time.Now,
	}
}

// PollAll polls every enabled source once. A failing source is recorded on
// the source and does not stop the pass.
func (p *Poller) PollAll(ctx context.Context) (Result, error) {
	sources, err := p.sources.ListFeedSources(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Sources: len(sources)}
	for _, source := range sources {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		logger := Log.WithFields(logrus.Fields{"source": source.Name, "feed_url": source.FeedUrl})
		inserted, notModified, err := p.PollSource(ctx, source)
		if err != nil {
			res.Failed++
			logger.WithError(err).Warn("feed poll failed")
			p.incr(utils.DDOG_INGEST_FAIL_COUNTER, source.Name, 1)
			if rerr := p.sources.RecordFetchError(ctx, source.Id, err); rerr != nil {
				logger.WithError(rerr).Error("cannot record fetch error")
			}
			continue
		}
		if notModified {
			res.NotModified++
		}
		res.Inserted += inserted
		p.incr(utils.DDOG_INGEST_COUNTER, source.Name, int64(inserted))
	}
	Log.WithFields(logrus.Fields{
		"sources":      res.Sources,
		"inserted":     res.Inserted,
		"not_modified": res.NotModified,
		"failed":       res.Failed,
	}).Info("ingest pass finished")
	return res, nil
}

func (p *Poller) incr(name, source string, value int64) {
	if err := p.metrics.Count(name, value, []string{"source:" + source}, 1); err != nil {
		Log.Infoln("cannot report ingest metric")
	}
}

// PollSource fetches the feed of source with a conditional GET and inserts the
// items not stored yet.
func (p *Poller) PollSource(ctx context.Context, source model.Source) (inserted int, notModified bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.FeedUrl, nil)
	if err != nil {
		return 0, false, errors.Wrap(err, "build feed request")
	}
	req.Header.Set("User-Agent", p.userAgent)
	if source.ETag != "" {
		req.Header.Set("If-None-Match", source.ETag)
	}
	if source.LastModified != "" {
		req.Header.Set("If-Modified-Since", source.LastModified)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, false, errors.Wrap(err, "fetch feed")
	}
	defer resp.Body.Close()

	fetchedAt := p.now().UTC()
	if resp.StatusCode == http.StatusNotModified {
		err := p.sources.RecordFetchSuccess(ctx, source.Id, source.ETag, source.LastModified, fetchedAt)
		return 0, true, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	feed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return 0, false, errors.Wrap(err, "parse feed")
	}

	for _, item := range feed.Items {
		article, ok := p.toArticle(item, source)
		if !ok {
			continue
		}
		created, err := p.articles.InsertIfAbsent(ctx, article)
		if err != nil {
			return inserted, false, err
		}
		if created {
			inserted++
		}
	}

	err = p.sources.RecordFetchSuccess(ctx, source.Id, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), fetchedAt)
	return inserted, false, err
}

// toArticle maps a feed item, items without a link or title are skipped.
func (p *Poller) toArticle(item *gofeed.Item, source model.Source) (*model.Article, bool) {
	link := strings.TrimSpace(item.Link)
	title := p.plainText(item.Title)
	if link == "" || title == "" {
		return nil, false
	}
	raw := item.Description
	if raw == "" {
		raw = item.Content
	}
	article := &model.Article{
		Id:          uuid.New().String(),
		Title:       title,
		Url:         link,
		Summary:     truncate(p.plainText(raw), maxSummaryRunes),
		Content:     strings.TrimSpace(p.content.Sanitize(item.Content)),
		Author:      author(item),
		ImageUrl:    leadImage(item),
		Category:    source.Category,
		SourceID:    source.Id,
		PublishedAt: p.publishedAt(item),
	}
	return article, true
}

// plainText strips every tag and collapses whitespace.
func (p *Poller) plainText(body string) string {
	text := html.UnescapeString(p.sanitizer.Sanitize(body))
	return strings.Join(strings.Fields(text), " ")
}

// publishedAt prefers the parsed feed dates, then whatever dateparse makes of
// the raw strings. Dates in the future are clamped to now.
func (p *Poller) publishedAt(item *gofeed.Item) time.Time {
	now := p.now().UTC()
	var t time.Time
	switch {
	case item.PublishedParsed != nil:
		t = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		t = *item.UpdatedParsed
	default:
		for _, raw := range []string{item.Published, item.Updated} {
			if raw == "" {
				continue
			}
			if parsed, err := dateparse.ParseAny(raw); err == nil {
				t = parsed
				break
			}
		}
	}
	if t.IsZero() || t.After(now) {
		return now
	}
	return t.UTC()
}

func author(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// leadImage uses the item image, then an image enclosure, then the first img
// tag of the html body.
func leadImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	for _, body := range []string{item.Content, item.Description} {
		if body == "" {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err != nil {
			continue
		}
		if src, ok := doc.Find("img[src]").First().Attr("src"); ok && src != "" {
			return src
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "…"
}

// Run adapts Poller to the scheduler job signature.
func (p *Poller) Run(ctx context.Context) error {
	_, err := p.PollAll(ctx)
	return err
}
