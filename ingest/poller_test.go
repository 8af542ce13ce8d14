package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/factfeed/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Wire</title>
  <link>https://wire.example</link>
  <item>
    <title>Dam &amp; levee report</title>
    <link>https://wire.example/dam</link>
    <description><![CDATA[<p>Engineers <b>inspected</b> the dam.</p><img src="https://img.example/dam.jpg"/>]]></description>
    <content:encoded><![CDATA[<p onclick="x()">Engineers <b>inspected</b> the dam.</p><script>alert(1)</script>]]></content:encoded>
    <pubDate>Mon, 10 Jun 2024 08:30:00 GMT</pubDate>
    <dc:creator>Ana Ruiz</dc:creator>
  </item>
  <item>
    <title>Odd date format</title>
    <link>https://wire.example/odd</link>
    <description>plain text</description>
    <pubDate>2024-06-11 09:15</pubDate>
    <enclosure url="https://img.example/odd.png" type="image/png" length="10"/>
  </item>
  <item>
    <title>From the future</title>
    <link>https://wire.example/future</link>
    <pubDate>Wed, 01 Jan 2031 00:00:00 GMT</pubDate>
  </item>
  <item>
    <title>No link</title>
  </item>
</channel>
</rss>`

var pollNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeSources struct {
	mu        sync.Mutex
	sources   []model.Source
	successes map[string][2]string
	errs      map[string]string
}

func (f *fakeSources) ListFeedSources(context.Context) ([]model.Source, error) {
	return f.sources, nil
}

func (f *fakeSources) RecordFetchSuccess(_ context.Context, id, etag, lastModified string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes[id] = [2]string{etag, lastModified}
	return nil
}

func (f *fakeSources) RecordFetchError(_ context.Context, id string, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = err.Error()
	return nil
}

type fakeSink struct {
	byURL map[string]*model.Article
	err   error
}

func (f *fakeSink) InsertIfAbsent(_ context.Context, a *model.Article) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.byURL[a.Url]; ok {
		return false, nil
	}
	f.byURL[a.Url] = a
	return true, nil
}

func newTestPoller(sources ...model.Source) (*Poller, *fakeSources, *fakeSink) {
	src := &fakeSources{sources: sources, successes: map[string][2]string{}, errs: map[string]string{}}
	sink := &fakeSink{byURL: map[string]*model.Article{}}
	p := NewPoller(src, sink, nil, "", nil)
	p.now = func() time.Time { return pollNow }
	return p, src, sink
}

func feedServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Sat, 15 Jun 2024 11:00:00 GMT")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPollSourceMapsItems(t *testing.T) {
	srv := feedServer(t)
	source := model.Source{Id: "s1", Name: "Wire", FeedUrl: srv.URL, Category: "world"}
	p, sources, sink := newTestPoller(source)

	res, err := p.PollAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Sources: 1, Inserted: 3}, res)
	assert.Equal(t, [2]string{`"v1"`, "Sat, 15 Jun 2024 11:00:00 GMT"}, sources.successes["s1"])

	dam := sink.byURL["https://wire.example/dam"]
	require.NotNil(t, dam)
	assert.Equal(t, "Dam & levee report", dam.Title)
	assert.Equal(t, "Engineers inspected the dam.", dam.Summary)
	assert.Equal(t, "<p>Engineers <b>inspected</b> the dam.</p>", dam.Content)
	assert.Equal(t, "https://img.example/dam.jpg", dam.ImageUrl)
	assert.Equal(t, "Ana Ruiz", dam.Author)
	assert.Equal(t, "world", dam.Category)
	assert.Equal(t, "s1", dam.SourceID)
	assert.Equal(t, time.Date(2024, 6, 10, 8, 30, 0, 0, time.UTC), dam.PublishedAt)

	odd := sink.byURL["https://wire.example/odd"]
	require.NotNil(t, odd)
	assert.Equal(t, "https://img.example/odd.png", odd.ImageUrl)
	assert.Empty(t, odd.Content)
	assert.Equal(t, 2024, odd.PublishedAt.Year())
	assert.Equal(t, time.June, odd.PublishedAt.Month())
	assert.Equal(t, 11, odd.PublishedAt.Day())

	assert.Equal(t, pollNow, sink.byURL["https://wire.example/future"].PublishedAt)
}

func TestPollIsIdempotentAndConditional(t *testing.T) {
	srv := feedServer(t)
	source := model.Source{Id: "s1", Name: "Wire", FeedUrl: srv.URL}
	p, _, _ := newTestPoller(source)

	inserted, notModified, err := p.PollSource(context.Background(), source)
	require.NoError(t, err)
	assert.False(t, notModified)
	assert.Equal(t, 3, inserted)

	inserted, _, err = p.PollSource(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	source.ETag = `"v1"`
	inserted, notModified, err = p.PollSource(context.Background(), source)
	require.NoError(t, err)
	assert.True(t, notModified)
	assert.Equal(t, 0, inserted)
}

func TestFailingSourceIsRecorded(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer broken.Close()
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer garbage.Close()
	good := feedServer(t)

	p, sources, _ := newTestPoller(
		model.Source{Id: "bad", Name: "Bad", FeedUrl: broken.URL},
		model.Source{Id: "junk", Name: "Junk", FeedUrl: garbage.URL},
		model.Source{Id: "ok", Name: "Ok", FeedUrl: good.URL},
	)
	res, err := p.PollAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 3, res.Inserted)
	assert.Contains(t, sources.errs["bad"], "status 500")
	assert.Contains(t, sources.errs["junk"], "parse feed")
	assert.Contains(t, sources.successes, "ok")
}

func TestInsertErrorFailsSource(t *testing.T) {
	srv := feedServer(t)
	p, sources, sink := newTestPoller(model.Source{Id: "s1", Name: "Wire", FeedUrl: srv.URL})
	sink.err = errors.New("db down")

	res, err := p.PollAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "db down", sources.errs["s1"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé…", truncate("héllo", 2))
}
