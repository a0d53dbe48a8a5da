package maven

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/stackaudit/pkg/buildinfo"
	"github.com/matzehuels/stackaudit/pkg/cache"
	apperrors "github.com/matzehuels/stackaudit/pkg/errors"
	"github.com/matzehuels/stackaudit/pkg/integrations"
)

const (
	// DefaultRepositoryURL is Maven Central in Maven 2 layout.
	DefaultRepositoryURL = "https://repo1.maven.org/maven2"
	// DefaultSearchURL is the Maven Central Solr search endpoint.
	DefaultSearchURL = "https://search.maven.org/solrsearch/select"
)

// Client provides access to a Maven 2 repository and the Maven Central
// search API. It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	repoURL   string
	searchURL string
}

// NewClient creates a Maven client that caches responses in c for cacheTTL.
// A nil c disables caching.
func NewClient(c cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:    integrations.NewClient(c, "maven", cacheTTL, map[string]string{"User-Agent": buildinfo.UserAgent()}),
		repoURL:   DefaultRepositoryURL,
		searchURL: DefaultSearchURL,
	}
}

// WithRepository points the client at another Maven 2 layout repository
// (a mirror or a proxy such as Nexus or Artifactory).
func (c *Client) WithRepository(url string) *Client {
	if url != "" {
		c.repoURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithSearch overrides the Solr search endpoint used by [Client.LatestVersion].
func (c *Client) WithSearch(url string) *Client {
	if url != "" {
		c.searchURL = url
	}
	return c
}

// POMURL returns the repository URL of the POM for group:artifact:version.
func (c *Client) POMURL(group, artifact, version string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s-%s.pom",
		c.repoURL, strings.ReplaceAll(group, ".", "/"), artifact, version, artifact, version)
}

// FetchPOM retrieves and parses the raw POM of group:artifact:version.
//
// If refresh is true, the cache is bypassed and the repository is queried.
//
// Returns:
//   - [integrations.ErrNotFound] if the repository has no such POM
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - an INVALID_COORDINATE error for malformed coordinates
func (c *Client) FetchPOM(ctx context.Context, group, artifact, version string, refresh bool) (*POM, error) {
	if err := apperrors.ValidateCoordinate(group, artifact, version); err != nil {
		return nil, err
	}
	if version == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidCoordinate, "missing version for %s:%s", group, artifact)
	}

	key := "pom:" + group + ":" + artifact + ":" + version

	var pom POM
	err := c.Cached(ctx, key, refresh, &pom, func() error {
		text, err := c.GetText(ctx, c.POMURL(group, artifact, version))
		if err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: pom %s:%s:%s", err, group, artifact, version)
			}
			return err
		}
		p, err := ParsePOM([]byte(text))
		if err != nil {
			return err
		}
		pom = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pom, nil
}

// EffectivePOM computes the effective model of p, fetching parents and
// imported BOMs from the repository. See [Effective].
func (c *Client) EffectivePOM(ctx context.Context, p *POM, refresh bool) (*POM, error) {
	return Effective(ctx, p, c.fetcher(refresh))
}

// FetchEffectivePOM fetches the POM of group:artifact:version and returns
// its effective model.
func (c *Client) FetchEffectivePOM(ctx context.Context, group, artifact, version string, refresh bool) (*POM, error) {
	p, err := c.FetchPOM(ctx, group, artifact, version, refresh)
	if err != nil {
		return nil, err
	}
	return c.EffectivePOM(ctx, p, refresh)
}

func (c *Client) fetcher(refresh bool) Fetcher {
	return func(ctx context.Context, group, artifact, version string) (*POM, error) {
		return c.FetchPOM(ctx, group, artifact, version, refresh)
	}
}

// LatestVersion looks up the newest released version of group:artifact
// using the search API.
func (c *Client) LatestVersion(ctx context.Context, group, artifact string, refresh bool) (string, error) {
	if err := apperrors.ValidateCoordinate(group, artifact, ""); err != nil {
		return "", err
	}

	var version string
	err := c.Cached(ctx, "latest:"+group+":"+artifact, refresh, &version, func() error {
		query := fmt.Sprintf("g:%q AND a:%q", group, artifact)
		url := fmt.Sprintf("%s?q=%s&rows=1&wt=json", c.searchURL, integrations.URLEncode(query))

		var resp searchResponse
		if err := c.Get(ctx, url, &resp); err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: maven artifact %s:%s", err, group, artifact)
			}
			return err
		}
		if resp.Response.NumFound == 0 || len(resp.Response.Docs) == 0 {
			return fmt.Errorf("%w: maven artifact %s:%s", integrations.ErrNotFound, group, artifact)
		}

		doc := resp.Response.Docs[0]
		version = doc.LatestVersion
		if version == "" {
			version = doc.Version
		}
		if version == "" {
			return fmt.Errorf("%w: no version for %s:%s", integrations.ErrNotFound, group, artifact)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	GroupID       string `json:"g"`
	ArtifactID    string `json:"a"`
	Version       string `json:"v"`
	LatestVersion string `json:"latestVersion"`
}
