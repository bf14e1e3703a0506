// Package seo extracts on-page SEO signals from HTML and scores them.
package seo

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"promptdesk-backend/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed document: its facts and its visible text.
type Page struct {
	Facts models.PageFacts
	Text  string
}

// Parse reads html and collects its facts. pageURL, when set, decides which
// links are internal.
func Parse(html, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var base *url.URL
	if pageURL != "" {
		if base, err = url.Parse(pageURL); err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}
	}

	facts := models.PageFacts{
		URL:             pageURL,
		Title:           strings.TrimSpace(doc.Find("title").First().Text()),
		MetaDescription: metaContent(doc, "description"),
		H1Count:         doc.Find("h1").Length(),
		H2Count:         doc.Find("h2").Length(),
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		facts.Canonical = strings.TrimSpace(href)
	}

	imgs := doc.Find("img")
	facts.ImageCount = imgs.Length()
	imgs.Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			facts.ImagesWithoutAlt++
		}
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		switch classifyLink(base, href) {
		case linkInternal:
			facts.InternalLinks++
		case linkExternal:
			facts.ExternalLinks++
		}
	})

	body := doc.Find("body")
	body.Find("script, style, noscript, template").Remove()
	text := strings.Join(strings.Fields(body.Text()), " ")
	facts.WordCount = len(strings.Fields(text))

	return &Page{Facts: facts, Text: text}, nil
}

// Excerpt returns at most n bytes of the page text, cut on a rune boundary.
func (p *Page) Excerpt(n int) string {
	if len(p.Text) <= n {
		return p.Text
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(p.Text[cut]) {
		cut--
	}
	return p.Text[:cut]
}

func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if n, _ := s.Attr("name"); strings.EqualFold(n, name) {
			content, _ = s.Attr("content")
			return false
		}
		return true
	})
	return strings.TrimSpace(content)
}

type linkKind int

const (
	linkSkip linkKind = iota
	linkInternal
	linkExternal
)

func classifyLink(base *url.URL, href string) linkKind {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return linkSkip
	}
	u, err := url.Parse(href)
	if err != nil {
		return linkSkip
	}
	switch u.Scheme {
	case "", "http", "https":
	default:
		return linkSkip
	}
	if u.Host == "" {
		return linkInternal
	}
	if base != nil && sameSite(base.Hostname(), u.Hostname()) {
		return linkInternal
	}
	return linkExternal
}

func sameSite(a, b string) bool {
	trim := func(h string) string { return strings.TrimPrefix(strings.ToLower(h), "www.") }
	return trim(a) == trim(b)
}
