// Package scraper harvests the upstream assessment catalog into the JSON file
// the service loads at startup. It walks the paginated catalog tables, then
// visits each product page for a description, trying structured data first and
// degrading to progressively cruder extraction.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Record is the scraper's output shape; internal/repository/catalog loads it.
type Record struct {
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	TestType        []string `json:"test_type"`
	AdaptiveSupport string   `json:"adaptive_support"`
	RemoteSupport   string   `json:"remote_support"`
}

// Scraper walks the product catalog.
type Scraper struct {
	baseURL      string
	allowedHost  string
	maxPages     int
	pageSize     int
	fetchDetails bool
	logger       *zap.Logger
}

// Option configures the Scraper.
type Option func(*Scraper)

// WithMaxPages caps the number of catalog list pages visited.
func WithMaxPages(n int) Option {
	return func(s *Scraper) { s.maxPages = n }
}

// WithoutDetails skips the per-product description pass.
func WithoutDetails() Option {
	return func(s *Scraper) { s.fetchDetails = false }
}

// New creates a catalog scraper rooted at baseURL.
func New(baseURL string, logger *zap.Logger, opts ...Option) (*Scraper, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	s := &Scraper{
		baseURL:      strings.TrimRight(baseURL, "/") + "/",
		allowedHost:  u.Hostname(), // colly matches domains without the port
		maxPages:     40,
		pageSize:     12,
		fetchDetails: true,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scrape walks the list pages and, unless disabled, each product page.
func (s *Scraper) Scrape(ctx context.Context) ([]Record, error) {
	records, err := s.scrapeListPages(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no assessments found at %s", s.baseURL)
	}

	if s.fetchDetails {
		for i := range records {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("scrape interrupted: %w", err)
			}
			if err := s.scrapeDetailPage(&records[i]); err != nil {
				// A missing description is not worth aborting the run.
				s.logger.Warn("Detail page failed",
					zap.String("url", records[i].URL),
					zap.Error(err),
				)
			}
		}
	}

	s.logger.Info("Catalog scrape complete", zap.Int("assessments", len(records)))
	return records, nil
}

// scrapeListPages pages through the catalog table until a page yields nothing.
func (s *Scraper) scrapeListPages(ctx context.Context) ([]Record, error) {
	var records []Record
	seen := make(map[string]struct{})

	for page := 0; page < s.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scrape interrupted: %w", err)
		}

		listURL := fmt.Sprintf("%s?start=%d", s.baseURL, page*s.pageSize)
		found, err := s.scrapeListPage(listURL, seen, &records)
		if err != nil {
			return nil, fmt.Errorf("list page %d: %w", page, err)
		}
		if found == 0 {
			break
		}
		s.logger.Debug("List page scraped",
			zap.String("url", listURL),
			zap.Int("assessments", found),
		)
	}

	return records, nil
}

func (s *Scraper) scrapeListPage(listURL string, seen map[string]struct{}, records *[]Record) (int, error) {
	c := colly.NewCollector(colly.AllowedDomains(s.allowedHost))

	found := 0
	c.OnHTML("table tbody tr, table tr", func(e *colly.HTMLElement) {
		link := e.DOM.Find("td a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		name := strings.TrimSpace(link.Text())
		if name == "" {
			return
		}

		fullURL := e.Request.AbsoluteURL(href)
		if _, dup := seen[fullURL]; dup {
			return
		}
		seen[fullURL] = struct{}{}

		cells := e.DOM.Find("td")
		rec := Record{
			Name:            name,
			URL:             fullURL,
			RemoteSupport:   yesNo(cellText(cells, 1)),
			AdaptiveSupport: yesNo(cellText(cells, 2)),
			TestType:        splitTypes(cellText(cells, cells.Length()-1)),
		}

		*records = append(*records, rec)
		found++
	})

	if err := c.Visit(listURL); err != nil {
		return 0, fmt.Errorf("visit: %w", err)
	}
	c.Wait()

	return found, nil
}

// scrapeDetailPage fills in the description and duration for one product.
// Extraction layers, best first: JSON-LD, meta description, og:description,
// known description containers.
func (s *Scraper) scrapeDetailPage(rec *Record) error {
	c := colly.NewCollector(colly.AllowedDomains(s.allowedHost))

	var jsonLD, metaDesc, ogDesc, container string
	var bodyText string

	c.OnHTML(`script[type="application/ld+json"]`, func(e *colly.HTMLElement) {
		if jsonLD == "" {
			jsonLD = descriptionFromJSONLD(e.Text)
		}
	})
	c.OnHTML(`meta[name="description"]`, func(e *colly.HTMLElement) {
		if metaDesc == "" {
			metaDesc = strings.TrimSpace(e.Attr("content"))
		}
	})
	c.OnHTML(`meta[property="og:description"]`, func(e *colly.HTMLElement) {
		if ogDesc == "" {
			ogDesc = strings.TrimSpace(e.Attr("content"))
		}
	})
	c.OnHTML(".product-description, .assessment-description, .description-content", func(e *colly.HTMLElement) {
		if container == "" {
			container = strings.TrimSpace(e.Text)
		}
	})
	c.OnHTML("body", func(e *colly.HTMLElement) {
		bodyText = e.Text
	})

	if err := c.Visit(rec.URL); err != nil {
		return fmt.Errorf("visit: %w", err)
	}
	c.Wait()

	desc := firstNonEmpty(jsonLD, metaDesc, ogDesc, container)
	if desc == "" {
		desc = descriptionFromBody(bodyText)
	}
	if desc != "" {
		rec.Description = cleanDescription(desc)
	}
	if d := durationFromBody(bodyText); d > 0 {
		rec.Duration = d
	}

	return nil
}

// descriptionFromJSONLD pulls the description field out of a JSON-LD blob.
// Some pages wrap the object in an array.
func descriptionFromJSONLD(raw string) string {
	var obj struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil && obj.Description != "" {
		return strings.TrimSpace(obj.Description)
	}

	var list []struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		for _, o := range list {
			if o.Description != "" {
				return strings.TrimSpace(o.Description)
			}
		}
	}
	return ""
}

var bodyDescPattern = regexp.MustCompile(`(?s)Description\s*\n+\s*(.{20,500})`)

// descriptionFromBody is the last-resort extraction: grab the text following
// a "Description" heading.
func descriptionFromBody(body string) string {
	m := bodyDescPattern.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var durationPattern = regexp.MustCompile(`Completion Time.{0,20}?(\d+)`)

// durationFromBody parses "Approximate Completion Time in minutes = 49".
func durationFromBody(body string) int {
	m := durationPattern.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

const maxDescriptionLen = 1000

var descLabelPattern = regexp.MustCompile(`(?i)Description\s*:?`)

func cleanDescription(desc string) string {
	desc = strings.TrimSpace(descLabelPattern.ReplaceAllString(desc, ""))
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}
	return desc
}

func cellText(cells *goquery.Selection, i int) string {
	if i < 0 || i >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(i).Text())
}

func splitTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func yesNo(cell string) string {
	v := strings.ToLower(strings.TrimSpace(cell))
	if strings.Contains(v, "yes") || strings.Contains(v, "\U0001F7E2") || v == "y" {
		return "Yes"
	}
	return "No"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
