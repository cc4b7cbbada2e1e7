package archive

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/gazette/internal/domain/page"
)

// pageDoc is the JSON shape stored at gazette:pages:<id>.
// __content and __vector are the indexed projection; the remaining fields are
// filterable metadata plus the full article payload.
type pageDoc struct {
	Content      string         `json:"__content"`
	Vector       []float32      `json:"__vector"`
	Title        string         `json:"title"`
	State        string         `json:"state"`
	Date         string         `json:"date"`
	Year         int            `json:"year"`
	Page         int            `json:"page"`
	ArticleCount int            `json:"article_count"`
	Articles     []page.Article `json:"articles"`
}

func buildPageDoc(p *page.Page, vector []float32) pageDoc {
	return pageDoc{
		Content:      p.SearchableText(),
		Vector:       vector,
		Title:        p.Title(),
		State:        p.State(),
		Date:         p.Date(),
		Year:         p.Year(),
		Page:         p.PageNumber(),
		ArticleCount: len(p.Articles()),
		Articles:     p.Articles(),
	}
}

func (d *pageDoc) toPage(id string) page.Page {
	return page.Reconstruct(id, d.Title, d.State, d.Date, d.Page, d.Articles)
}

// parseJSONGetResult unwraps a JSON.GET $ response ("[{...}]") into a pageDoc.
func parseJSONGetResult(raw []byte) (pageDoc, error) {
	var docs []pageDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return pageDoc{}, fmt.Errorf("unmarshal page document: %w", err)
	}
	if len(docs) == 0 {
		return pageDoc{}, fmt.Errorf("empty JSON.GET result")
	}
	return docs[0], nil
}
