package seo

import (
	"fmt"

	"promptdesk-backend/internal/models"
)

const (
	minTitleLen       = 30
	maxTitleLen       = 60
	minDescriptionLen = 70
	maxDescriptionLen = 160
	minWords          = 300
)

// check is one heuristic rule. penalty is subtracted when pass is false.
type check struct {
	pass           bool
	penalty        int
	strength       string
	issue          string
	recommendation string
}

// Score rates facts on a 0..100 scale without calling out.
func Score(f models.PageFacts) models.SEOReport {
	titleLen := len([]rune(f.Title))
	descLen := len([]rune(f.MetaDescription))

	checks := []check{
		{f.Title != "", 20, "Page has a title", "Missing <title>", "Add a descriptive title of 30 to 60 characters"},
		{f.Title == "" || (titleLen >= minTitleLen && titleLen <= maxTitleLen), 5, "Title length is within 30 to 60 characters",
			fmt.Sprintf("Title is %d characters long", titleLen), "Keep the title between 30 and 60 characters"},
		{f.MetaDescription != "", 15, "Page has a meta description", "Missing meta description", "Add a meta description summarising the page"},
		{f.MetaDescription == "" || (descLen >= minDescriptionLen && descLen <= maxDescriptionLen), 5, "Meta description length is within 70 to 160 characters",
			fmt.Sprintf("Meta description is %d characters long", descLen), "Keep the meta description between 70 and 160 characters"},
		{f.H1Count > 0, 15, "Page has an h1 heading", "No h1 heading", "Add a single h1 that states the page topic"},
		{f.H1Count <= 1, 5, "Page has a single h1", fmt.Sprintf("%d h1 headings", f.H1Count), "Use exactly one h1 and move the rest to h2"},
		{f.H2Count > 0, 5, "Content is structured with h2 headings", "No h2 headings", "Break the content into sections with h2 headings"},
		{f.WordCount >= minWords, 10, "Content has at least 300 words", fmt.Sprintf("Thin content: %d words", f.WordCount), "Expand the content to at least 300 words"},
		{f.ImagesWithoutAlt == 0, min(10, 2*f.ImagesWithoutAlt), "All images have alt text",
			fmt.Sprintf("%d of %d images lack alt text", f.ImagesWithoutAlt, f.ImageCount), "Describe every image with an alt attribute"},
		{f.InternalLinks > 0, 5, "Page links to other pages of the site", "No internal links", "Link to related pages of the same site"},
	}
	if f.URL != "" {
		checks = append(checks,
			check{f.Canonical != "", 5, "Canonical URL is declared", "No canonical link", "Declare a rel=canonical link"},
			check{f.HasRobotsTxt, 5, "Site serves robots.txt", "No robots.txt found", "Publish a robots.txt at the site root"},
			check{f.HasSitemap, 5, "Site serves sitemap.xml", "No sitemap.xml found", "Publish a sitemap.xml and reference it from robots.txt"},
		)
	}

	report := models.SEOReport{
		Score:           100,
		Strengths:       []string{},
		Issues:          []string{},
		Recommendations: []string{},
		Facts:           f,
		Source:          models.SourceFallback,
	}
	for _, c := range checks {
		if c.pass {
			report.Strengths = append(report.Strengths, c.strength)
			continue
		}
		report.Score -= c.penalty
		report.Issues = append(report.Issues, c.issue)
		report.Recommendations = append(report.Recommendations, c.recommendation)
	}
	report.Score = Clamp(report.Score)
	report.Summary = fmt.Sprintf("Heuristic score %d/100 with %d issue(s) and %d strength(s).",
		report.Score, len(report.Issues), len(report.Strengths))
	return report
}

// Clamp bounds a score to 0..100.
func Clamp(score int) int {
	return max(0, min(100, score))
}
