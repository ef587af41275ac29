package extractor

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
)

// Elements that never hold article text.
const noiseSelector = "script, style, noscript, template, iframe, object, embed, svg, canvas, " +
	"form, button, input, select, textarea, nav, aside, footer, " +
	`[role="navigation"], [role="banner"], [role="contentinfo"], [role="complementary"], ` +
	`[aria-hidden="true"], [hidden]`

// Candidate containers for the main text, most specific first.
var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	`[itemprop="articleBody"]`,
	".entry-content, .post-content, .article-content, .article-body, .post-body, .story-body",
	"#content, #main, .content, .main",
}

var contentSelector = strings.Join(contentSelectors, ", ")

// A class or id token is noise when it is one of these words, alone or as
// the first part of a hyphenated name ("comments", "comment-list"). Tokens
// that merely end in one ("has-sidebar") are layout hints and kept.
var noisyToken = regexp.MustCompile(
	`(?i)^(comments?|disqus|respond|share|sharing|social|related|recommended|sidebar|` +
		`newsletter|subscribe|promo|advert|ads|sponsor|cookie|popup|modal|breadcrumbs?|byline|` +
		`author-bio|meta|tags|pagination|menu|navbar)([-_].*)?$`,
)

// readable returns the main text of an HTML page rendered as GitHub flavoured
// markdown. Tables are kept; comments, navigation and metadata blocks are not.
func readable(page []byte, pageURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find("*").FilterFunction(isNoisy).Remove()
	doc.Find("article header, main header, h1 + time, address").Remove()

	root := mainContent(doc)

	conv := md.NewConverter(hostOf(pageURL), true, nil)
	conv.Use(plugin.GitHubFlavored())

	return strings.TrimSpace(conv.Convert(root)), nil
}

// isNoisy never matches an element that is or wraps a content candidate.
func isNoisy(_ int, s *goquery.Selection) bool {
	switch goquery.NodeName(s) {
	case "html", "body", "article", "main", "table", "thead", "tbody", "tr", "td", "th":
		return false
	}

	class, _ := s.Attr("class")
	id, _ := s.Attr("id")

	if !hasNoisyToken(class) && !hasNoisyToken(id) {
		return false
	}

	return !s.Is(contentSelector) && s.Find(contentSelector).Length() == 0
}

func hasNoisyToken(attr string) bool {
	for _, token := range strings.Fields(attr) {
		if noisyToken.MatchString(token) {
			return true
		}
	}

	return false
}

// mainContent picks the candidate with the most text. The body is used when
// nothing matches.
func mainContent(doc *goquery.Document) *goquery.Selection {
	var (
		best    *goquery.Selection
		bestLen int
	)

	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if n := len(strings.TrimSpace(s.Text())); n > bestLen {
				best, bestLen = s, n
			}
		})

		if best != nil {
			return best
		}
	}

	if body := doc.Find("body"); body.Length() > 0 {
		return body
	}

	return doc.Selection
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return u.Host
}
