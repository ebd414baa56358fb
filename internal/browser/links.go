package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FindLinkByText returns the absolute href of the first anchor whose visible
// text equals text, ignoring case and surrounding whitespace. Relative hrefs
// are resolved against base.
func FindLinkByText(html, base, text string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	want := normalizeLinkText(text)
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if normalizeLinkText(sel.Text()) != want {
			return true
		}
		href, _ = sel.Attr("href")
		return false
	})
	if href == "" {
		return "", fmt.Errorf("no link with text %q", text)
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %s: %w", base, err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid link href %s: %w", href, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func normalizeLinkText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
