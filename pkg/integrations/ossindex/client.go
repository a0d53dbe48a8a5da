package ossindex

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/matzehuels/stackaudit/pkg/audit"
	"github.com/matzehuels/stackaudit/pkg/buildinfo"
	"github.com/matzehuels/stackaudit/pkg/httputil"
	"github.com/matzehuels/stackaudit/pkg/integrations"
)

const (
	// DefaultBaseURL is the public OSS Index API.
	DefaultBaseURL = "https://ossindex.sonatype.org"

	// MaxCoordinates is the service limit of coordinates per request.
	MaxCoordinates = 128

	reportPath = "/api/v3/component-report"
)

// Config configures a [Client]. Zero values select the defaults.
type Config struct {
	BaseURL     string        // API root (default: DefaultBaseURL)
	Username    string        // Optional account e-mail for higher rate limits
	Token       string        // API token paired with Username
	ChunkSize   int           // Coordinates per request, capped at MaxCoordinates
	Concurrency int           // Requests in flight (default: 4)
	RateLimit   float64       // Requests per second (default: 2, negative disables)
	Burst       int           // Rate limiter burst (default: Concurrency)
	Timeout     time.Duration // Per-request timeout (default: HTTP client default)
}

// Client queries the OSS Index component-report API. It implements
// [audit.Service] and is safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL     string
	chunkSize   int
	concurrency int
	limiter     *rate.Limiter
}

// NewClient creates a client from cfg. Responses are never cached here;
// report caching belongs to [audit.Request].
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChunkSize <= 0 || cfg.ChunkSize > MaxCoordinates {
		cfg.ChunkSize = MaxCoordinates
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Concurrency
	}

	c := &Client{
		Client:      integrations.NewClient(nil, "ossindex", 0, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		chunkSize:   cfg.ChunkSize,
		concurrency: cfg.Concurrency,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	c.SetBasicAuth(cfg.Username, cfg.Token)
	return c
}

type reportRequest struct {
	Coordinates []string `json:"coordinates"`
}

type componentReport struct {
	Coordinates     string          `json:"coordinates"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference"`
	Vulnerabilities []vulnerability `json:"vulnerabilities"`
}

type vulnerability struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CVSSScore   float64 `json:"cvssScore"`
	CVSSVector  string  `json:"cvssVector"`
	CWE         string  `json:"cwe"`
	CVE         string  `json:"cve"`
	Reference   string  `json:"reference"`
}

// ComponentReports fetches reports for ids. Identities are sent as package
// URLs in chunks of at most [MaxCoordinates]; chunks are requested
// concurrently and paced by the rate limiter. Responses are matched back to
// identities by case-insensitive package URL; identities the service does not
// answer for are omitted.
//
// Returns [integrations.ErrUnauthorized] for rejected credentials and
// [integrations.ErrRateLimited] when retries are exhausted on 429 responses.
func (c *Client) ComponentReports(ctx context.Context, ids []audit.Identity) ([]*audit.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byPURL := make(map[string]audit.Identity, len(ids))
	for _, id := range ids {
		byPURL[strings.ToLower(id.PURL())] = id
	}

	chunks := chunk(ids, c.chunkSize)
	results := make([][]componentReport, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, ch := range chunks {
		g.Go(func() error {
			body := reportRequest{Coordinates: make([]string, len(ch))}
			for j, id := range ch {
				body.Coordinates[j] = id.PURL()
			}
			return httputil.RetryWithBackoff(ctx, func() error {
				if c.limiter != nil {
					if err := c.limiter.Wait(ctx); err != nil {
						return err
					}
				}
				var out []componentReport
				if err := c.PostJSON(ctx, c.baseURL+reportPath, body, &out); err != nil {
					return err
				}
				results[i] = out
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reports []*audit.Report
	seen := make(map[audit.Identity]bool, len(ids))
	for _, chunkResults := range results {
		for _, cr := range chunkResults {
			id, ok := byPURL[strings.ToLower(cr.Coordinates)]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			reports = append(reports, toReport(id, cr))
		}
	}
	return reports, nil
}

func toReport(id audit.Identity, cr componentReport) *audit.Report {
	r := &audit.Report{
		Identity:        id,
		Reference:       cr.Reference,
		Description:     cr.Description,
		Vulnerabilities: make([]audit.Vulnerability, 0, len(cr.Vulnerabilities)),
	}
	for _, v := range cr.Vulnerabilities {
		title := v.Title
		if title == "" {
			title = v.DisplayName
		}
		r.Vulnerabilities = append(r.Vulnerabilities, audit.Vulnerability{
			ID:          v.ID,
			Title:       title,
			Description: v.Description,
			CVSSScore:   v.CVSSScore,
			CVSSVector:  v.CVSSVector,
			CVE:         v.CVE,
			CWE:         v.CWE,
			Reference:   v.Reference,
		})
	}
	return r
}

func chunk(ids []audit.Identity, size int) [][]audit.Identity {
	var out [][]audit.Identity
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}

var _ audit.Service = (*Client)(nil)
