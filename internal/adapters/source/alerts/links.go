package alerts

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/scout/internal/domain/story"
)

const (
	linkedInHost  = "linkedin.com"
	redirectParam = "url?q="
)

// storyPaths are the LinkedIn paths that can hold a member's story.
var storyPaths = []string{"/posts/", "/feed/", "/pulse/"} //nolint:gochecknoglobals // read-only

// ExtractLinks returns the LinkedIn post, feed and article links in an alert body.
// Google redirect wrappers (".../url?q=<target>&...") are unwrapped.
func ExtractLinks(r io.Reader) ([]story.Link, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var links []story.Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(href, linkedInHost) && !strings.Contains(text, linkedInHost) {
			return
		}

		target := unwrapRedirect(href)
		if !strings.Contains(target, linkedInHost) || !isStoryPath(target) {
			return
		}
		links = append(links, story.Link{URL: target, Text: text})
	})
	return links, nil
}

func unwrapRedirect(href string) string {
	i := strings.Index(href, redirectParam)
	if i < 0 {
		return href
	}
	target := href[i+len(redirectParam):]
	if j := strings.IndexByte(target, '&'); j >= 0 {
		target = target[:j]
	}
	decoded, err := url.PathUnescape(target)
	if err != nil {
		return href
	}
	return decoded
}

func isStoryPath(u string) bool {
	for _, p := range storyPaths {
		if strings.Contains(u, p) {
			return true
		}
	}
	return false
}
