package duosite

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

const sitemapDate = "2006-01-02"

func (a *App) renderSitemap(c echo.Context, feed Feed) error {
	base := a.Config.URL
	urls := make([]sitemapURL, 0, 1+len(feed.Posts)+len(feed.Quotes))
	urls = append(urls, sitemapURL{Loc: BuildURL(base)})
	for _, p := range feed.Posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.ID),
			LastMod: p.UpdatedAt.UTC().Format(sitemapDate),
		})
	}
	for _, q := range feed.Quotes {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "lyrics", q.ID),
			LastMod: q.UpdatedAt.UTC().Format(sitemapDate),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
