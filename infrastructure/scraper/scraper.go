package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/avelara/instagate/config"
	domainContent "github.com/avelara/instagate/domains/content"
	pkgError "github.com/avelara/instagate/pkg/error"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// ProfileScraper fetches a public profile page and extracts post
// permalinks. Credentials, when configured, are sent as a session
// cookie; unauthenticated scraping works for public profiles only.
type ProfileScraper struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

func NewProfileScraper(cfg config.ScraperConfig) *ProfileScraper {
	if cfg.Username != "" {
		logrus.Infof("[SCRAPER] Authenticating with username %s", cfg.Username)
	}
	return &ProfileScraper{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns up to count posts for the target profile, newest first
// as laid out on the page. Unknown targets yield NotFoundError.
func (s *ProfileScraper) Fetch(ctx context.Context, target string, count int) ([]domainContent.Post, error) {
	if count <= 0 {
		return []domainContent.Post{}, nil
	}

	profileURL := fmt.Sprintf("%s/%s/", s.baseURL, url.PathEscape(target))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgError.NotFoundError(fmt.Sprintf("profile %s not found", target))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile %s: status %d", target, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", target, err)
	}

	posts := s.extractPosts(doc, count)
	if len(posts) == 0 {
		// Some profile layouts expose only the og:image preview.
		if preview, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && preview != "" {
			posts = append(posts, domainContent.Post{DisplayURL: preview})
		}
	}

	logrus.Debugf("[SCRAPER] Extracted %d post(s) for %s", len(posts), target)
	return posts, nil
}

func (s *ProfileScraper) extractPosts(doc *goquery.Document, count int) []domainContent.Post {
	posts := make([]domainContent.Post, 0, count)
	seen := make(map[string]bool)

	doc.Find(`a[href^="/p/"], a[href^="/reel/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok || seen[href] {
			return true
		}
		seen[href] = true
		posts = append(posts, domainContent.Post{
			ID:         strings.Trim(strings.TrimPrefix(strings.TrimPrefix(href, "/reel"), "/p"), "/"),
			DisplayURL: s.baseURL + href,
		})
		return len(posts) < count
	})

	return posts
}
