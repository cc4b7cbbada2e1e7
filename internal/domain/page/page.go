package page

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxArticleExcerpt is how many bytes of each article body feed the
// searchable-text projection. Keeps embeddings focused on the lede.
const MaxArticleExcerpt = 200

// Article is one article on a newspaper page.
type Article struct {
	Headline string `json:"headline"`
	Body     string `json:"body"`
}

// Page is one ingested newspaper page (immutable value object).
// The ID is stable across re-ingestion; re-upserting the same page is a no-op.
type Page struct {
	id         string
	title      string
	state      string
	date       string
	pageNumber int
	articles   []Article
}

// New validates and creates a Page.
// ID: ^[a-zA-Z0-9_-]+$, 1-256 chars. Title and date are required metadata;
// a page must carry at least one headline or article body so that the
// searchable-text projection is non-empty.
func New(id, title, state, date string, pageNumber int, articles []Article) (Page, error) {
	if id == "" {
		return Page{}, fmt.Errorf("page ID is required")
	}
	if len(id) > 256 {
		return Page{}, fmt.Errorf("page ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return Page{}, fmt.Errorf("page ID must be alphanumeric with underscores and hyphens")
	}
	if title == "" {
		return Page{}, fmt.Errorf("title is required")
	}
	if date == "" {
		return Page{}, fmt.Errorf("date is required")
	}
	if pageNumber < 0 {
		return Page{}, fmt.Errorf("page number must not be negative")
	}

	return Page{
		id:         id,
		title:      title,
		state:      state,
		date:       date,
		pageNumber: pageNumber,
		articles:   cloneArticles(articles),
	}, nil
}

// Reconstruct creates a Page without validation (storage hydration).
func Reconstruct(id, title, state, date string, pageNumber int, articles []Article) Page {
	return Page{id: id, title: title, state: state, date: date, pageNumber: pageNumber, articles: articles}
}

// ID returns the stable page identifier.
func (p *Page) ID() string { return p.id }

// Title returns the newspaper title.
func (p *Page) Title() string { return p.title }

// State returns the US state of publication.
func (p *Page) State() string { return p.state }

// Date returns the edition date (YYYY-MM-DD).
func (p *Page) Date() string { return p.date }

// PageNumber returns the page number within the edition.
func (p *Page) PageNumber() int { return p.pageNumber }

// Articles returns the articles on the page.
func (p *Page) Articles() []Article { return p.articles }

// SearchableText is the deterministic projection embedded for retrieval:
// title, state, date, every headline, then the opening excerpt of each
// article body.
func (p *Page) SearchableText() string {
	parts := make([]string, 0, 5)
	parts = append(parts, "Title: "+p.title)
	if p.state != "" {
		parts = append(parts, "State: "+p.state)
	}
	parts = append(parts, "Date: "+p.date)

	headlines := make([]string, 0, len(p.articles))
	excerpts := make([]string, 0, len(p.articles))
	for _, a := range p.articles {
		if a.Headline != "" {
			headlines = append(headlines, a.Headline)
		}
		if a.Body != "" {
			excerpts = append(excerpts, excerpt(a.Body, MaxArticleExcerpt))
		}
	}
	if len(headlines) > 0 {
		parts = append(parts, "Headlines: "+strings.Join(headlines, " "))
	}
	if len(excerpts) > 0 {
		parts = append(parts, "Content: "+strings.Join(excerpts, " "))
	}

	return strings.Join(parts, " ")
}

// Tags returns the indexed tag metadata fields.
func (p *Page) Tags() map[string]string {
	return map[string]string{
		"title": p.title,
		"state": p.state,
		"date":  p.date,
	}
}

// Numerics returns the indexed numeric metadata fields.
func (p *Page) Numerics() map[string]float64 {
	return map[string]float64{
		"year":          float64(p.Year()),
		"page":          float64(p.pageNumber),
		"article_count": float64(len(p.articles)),
	}
}

// Year parses the leading year from the edition date; 0 if absent.
func (p *Page) Year() int {
	y, _, _ := strings.Cut(p.date, "-")
	n, err := strconv.Atoi(y)
	if err != nil {
		return 0
	}
	return n
}

// excerpt truncates s to at most n bytes without splitting a UTF-8 rune.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}

func cloneArticles(in []Article) []Article {
	if in == nil {
		return nil
	}
	out := make([]Article, len(in))
	copy(out, in)
	return out
}
