package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
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
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// FeedBuilder projects the first published page into RSS 2.0. The rendered
// bytes share the post-mutation render cache.
type FeedBuilder struct {
	posts       *PostService
	cache       *RenderCache
	siteURL     string
	title       string
	description string
}

func NewFeedBuilder(posts *PostService, cache *RenderCache, siteURL, title, description string) *FeedBuilder {
	return &FeedBuilder{
		posts:       posts,
		cache:       cache,
		siteURL:     siteURL,
		title:       title,
		description: description,
	}
}

// Render returns the feed XML, cached until the next post mutation.
func (f *FeedBuilder) Render(ctx context.Context) ([]byte, error) {
	if f.cache != nil {
		if cached, ok := f.cache.Get(CacheKeyFeed()); ok {
			return cached.([]byte), nil
		}
	}

	page, err := f.posts.GetPosts(ctx, 1, ListFilter{})
	if err != nil {
		return nil, err
	}

	items := make([]rssItem, 0, len(page.Posts))
	for _, post := range page.Posts {
		link := fmt.Sprintf("%s/blog/%s", f.siteURL, post.Slug)
		pubDate := ""
		if post.PublishedAt != nil {
			pubDate = post.PublishedAt.Format(time.RFC1123Z)
		}
		items = append(items, rssItem{
			Title:       post.Title,
			Link:        link,
			Description: post.Excerpt,
			PubDate:     pubDate,
			GUID:        link,
		})
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       f.title,
			Link:        f.siteURL,
			Description: f.description,
			Items:       items,
		},
	}

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	rendered := append([]byte(xml.Header), body...)

	if f.cache != nil {
		f.cache.Set(CacheKeyFeed(), rendered)
	}
	return rendered, nil
}
