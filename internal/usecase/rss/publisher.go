// Package rss implements the RSS Publisher: a bounded, revision-tracked
// feed of recently archived items, rendered as RSS 2.0 with encoding/xml.
// gofeed only parses feeds, it cannot write them, so generation stays on
// the standard library.
package rss

import (
	"encoding/xml"
	"sync"
	"time"
)

// DefaultCapacity bounds the feed's in-memory item deque.
const DefaultCapacity = 100

// item is one published entry.
type item struct {
	Title       string
	Link        string
	Description string
	PubDate     time.Time
}

// Publisher is the RSS Publisher. Thread-safe under a single lock; cached
// XML is only regenerated when the revision counter advances since the
// last GenerateFeed call.
type Publisher struct {
	mu       sync.Mutex
	capacity int
	items    []item // front = newest
	revision uint64

	cachedRevision uint64
	cachedXML      string
}

// New creates an RSS Publisher with the given item-deque capacity.
func New(capacity int) *Publisher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Publisher{capacity: capacity}
}

// AddItem puts a newly archived item at the front of the feed (newest
// first), drops the oldest beyond capacity, and advances the revision
// counter.
func (p *Publisher) AddItem(title, link, description string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.items = append([]item{{Title: title, Link: link, Description: description, PubDate: time.Now().UTC()}}, p.items...)
	if len(p.items) > p.capacity {
		p.items = p.items[:p.capacity]
	}
	p.revision++
}

type rssFeed struct {
	XMLName xml.Name  `xml:"rss"`
	Version string    `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

// GenerateFeed renders the current item set as RSS 2.0 XML, returning a
// cached copy when the revision has not advanced since the last call.
func (p *Publisher) GenerateFeed(channelTitle, channelLink, channelDescription string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedXML != "" && p.cachedRevision == p.revision {
		return p.cachedXML, nil
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       channelTitle,
			Link:        channelLink,
			Description: channelDescription,
			Items:       make([]rssItem, 0, len(p.items)),
		},
	}
	for _, it := range p.items {
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Description,
			GUID:        it.Link,
			PubDate:     it.PubDate.Format(time.RFC1123Z),
		})
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", err
	}
	xmlDoc := xml.Header + string(out)

	p.cachedXML = xmlDoc
	p.cachedRevision = p.revision
	return xmlDoc, nil
}
