package rag

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/gazette/internal/domain/page"
	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

const systemPrompt = "You are an archivist assistant for a historical newspaper archive. " +
	"Answer concisely and only from the material provided."

// contextExcerptLen caps the per-result body excerpt in prompt context blocks.
const contextExcerptLen = 300

// buildContextBlock renders the top results into a numbered context block,
// one entry per result in rank order.
func buildContextBlock(results []result.Result) string {
	var b strings.Builder
	for i := range results {
		p := results[i].Page()
		fmt.Fprintf(&b, "[%d] %s", i+1, p.Title())
		if p.State() != "" {
			fmt.Fprintf(&b, ", %s", p.State())
		}
		fmt.Fprintf(&b, ", %s, page %d\n", p.Date(), p.PageNumber())
		if excerpt := pageExcerpt(p, contextExcerptLen); excerpt != "" {
			fmt.Fprintf(&b, "    %s\n", excerpt)
		}
	}
	return b.String()
}

// pageExcerpt returns headlines plus the opening of the first article body.
func pageExcerpt(p page.Page, maxBody int) string {
	var parts []string
	for _, a := range p.Articles() {
		if a.Headline != "" {
			parts = append(parts, a.Headline)
		}
	}
	for _, a := range p.Articles() {
		if a.Body != "" {
			body := a.Body
			if len(body) > maxBody {
				body = truncateUTF8(body, maxBody)
			}
			parts = append(parts, body)
			break
		}
	}
	return strings.Join(parts, ". ")
}

func summaryPrompt(query string, results []result.Result) string {
	return fmt.Sprintf(
		"A reader searched the newspaper archive for: %q\n\n"+
			"These pages matched, best first:\n%s\n"+
			"Write a short summary (2-4 sentences) of what these pages cover and how they relate to the search.",
		query, buildContextBlock(results))
}

func recommendPrompt(intent string, results []result.Result) string {
	return fmt.Sprintf(
		"A reader is looking for: %q\n\n"+
			"Candidate newspaper pages, best match first:\n%s\n"+
			"Pick the single best page for the reader. Reply with exactly two lines:\n"+
			"NUMBER: <the candidate number>\n"+
			"REASON: <one sentence explaining the pick>",
		intent, buildContextBlock(results))
}

func summarizePrompt(p page.Page) string {
	return fmt.Sprintf(
		"Summarize this newspaper page in 2-4 sentences.\n\n%s",
		pageText(p))
}

func questionPrompt(p page.Page, question string) string {
	return fmt.Sprintf(
		"Answer the question using only this newspaper page. "+
			"If the page does not contain the answer, reply exactly: not found in this document\n\n"+
			"Page:\n%s\n\nQuestion: %s",
		pageText(p), question)
}

// pageText renders the full page content for single-document prompts.
func pageText(p page.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", p.Title())
	if p.State() != "" {
		fmt.Fprintf(&b, ", %s", p.State())
	}
	fmt.Fprintf(&b, ", %s, page %d\n", p.Date(), p.PageNumber())
	for _, a := range p.Articles() {
		if a.Headline != "" {
			fmt.Fprintf(&b, "\n%s\n", a.Headline)
		}
		if a.Body != "" {
			fmt.Fprintf(&b, "%s\n", a.Body)
		}
	}
	return b.String()
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
