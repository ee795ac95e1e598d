package duosite

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/thxtduo/duosite/markdown"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

const feedSummaryRunes = 280

func (a *App) renderRSS(c echo.Context, posts []PostRow) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	var lastBuild time.Time
	for _, p := range posts {
		if p.UpdatedAt.After(lastBuild) {
			lastBuild = p.UpdatedAt
		}
		description := p.Excerpt
		if description == "" {
			description = markdown.Summary(p.Content, feedSummaryRunes)
		}
		postURL := BuildURL(base, "blog", p.ID)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: description,
			Author:      p.Author,
			PubDate:     p.CreatedAt.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	channel := rssChannel{
		Title:       a.Config.Name,
		Link:        base,
		Description: a.Config.Description,
		Items:       items,
	}
	if !lastBuild.IsZero() {
		channel.LastBuildDate = lastBuild.Format(time.RFC1123Z)
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(rssXML{Version: "2.0", Channel: channel})
}
