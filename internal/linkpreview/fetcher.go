package linkpreview

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Preview is what the composer shows next to a button link before the
// advertiser attaches it.
type Preview struct {
	URL         string    `json:"url"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	SiteName    string    `json:"siteName,omitempty"`
	IsStoreLink bool      `json:"isStoreLink"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

type Fetcher struct {
	httpClient *http.Client
	log        *zap.Logger
	maxRetries int
}

func NewFetcher(timeoutMS, maxRetries int, log *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutMS) * time.Millisecond,
		},
		log:        log,
		maxRetries: maxRetries,
	}
}

// Fetch loads the page and pulls its Open Graph metadata, falling back to
// plain HTML tags when the og: variants are absent.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Preview, error) {
	var doc *goquery.Document
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
			continue
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, lastErr
	}

	p := &Preview{
		URL:         url,
		IsStoreLink: IsStoreLink(url),
		FetchedAt:   time.Now(),
	}

	p.Title = metaContent(doc, "og:title")
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	p.Description = metaContent(doc, "og:description")
	if p.Description == "" {
		doc.Find(`meta[name="description"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if c, ok := s.Attr("content"); ok {
				p.Description = strings.TrimSpace(c)
				return false
			}
			return true
		})
	}
	p.ImageURL = metaContent(doc, "og:image")
	p.SiteName = metaContent(doc, "og:site_name")

	p.Title = truncateRunes(p.Title, 120)
	p.Description = truncateRunes(p.Description, 300)
	return p, nil
}

func metaContent(doc *goquery.Document, property string) string {
	var out string
	doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if c, ok := s.Attr("content"); ok && strings.TrimSpace(c) != "" {
			out = strings.TrimSpace(c)
			return false
		}
		return true
	})
	return out
}

// IsStoreLink reports whether the URL points at a mobile app store listing.
func IsStoreLink(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "play.google.com/store") ||
		strings.Contains(lower, "apps.apple.com") ||
		strings.Contains(lower, "itunes.apple.com")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
