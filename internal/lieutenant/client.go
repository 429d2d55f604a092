// Package lieutenant implements a typed REST client for the Lieutenant
// cluster-metadata collaborator (spec §6.2), modeled on the teacher's
// internal/provider/provider.go client-struct-with-http.Client shape. No
// generated SDK is used: this is a bespoke API with no ecosystem client
// library, so net/http is used directly (see DESIGN.md).
package lieutenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// Client talks to a Lieutenant-compatible HTTP API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient creates a Client with the configurable request timeout spec §5
// requires (default 5s).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Cluster is the shape returned by GET /clusters/<id>. GitRepo, when
// present, overrides the tenant's config repository for this cluster;
// GlobalGitRepoRevision, when present, overrides the tenant's global
// revision (spec §6.2: "optional gitRepo.{url,revision} for global/tenant
// override"), grounded on the original's Cluster._extract_field
// cluster-preferred-over-tenant precedence.
type Cluster struct {
	ID                    string            `json:"id"`
	Tenant                string            `json:"tenant"`
	DisplayName           string            `json:"displayName"`
	Facts                 map[string]string `json:"facts"`
	DynamicFacts          map[string]any    `json:"dynamicFacts"`
	CatalogURL            string            `json:"catalog_url"`
	GitRepo               *GitRepoRef       `json:"gitRepo,omitempty"`
	GlobalGitRepoRevision string            `json:"globalGitRepoRevision,omitempty"`
}

// Tenant is the shape returned by GET /tenants/<id>. GlobalGitRepoURL is
// the global defaults repository; GitRepo is the tenant's own config
// repository, also used as the cluster's target-class repository.
type Tenant struct {
	DisplayName           string     `json:"displayName"`
	GlobalGitRepoURL      string     `json:"globalGitRepoUrl"`
	GitRepo               GitRepoRef `json:"gitRepo"`
	GlobalGitRepoRevision string     `json:"globalGitRepoRevision,omitempty"`
}

// GitRepoRef is an override Git repository reference embedded in cluster
// or tenant metadata.
type GitRepoRef struct {
	URL      string `json:"url"`
	Revision string `json:"revision,omitempty"`
}

// GetCluster fetches a cluster's metadata.
func (c *Client) GetCluster(ctx context.Context, id string) (*Cluster, error) {
	var out Cluster
	if err := c.get(ctx, fmt.Sprintf("/clusters/%s", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTenant fetches a tenant's metadata.
func (c *Client) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	var out Tenant
	if err := c.get(ctx, fmt.Sprintf("/tenants/%s", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompileMeta is the metadata Commodore reports after a successful
// catalog push (spec §6.2).
type CompileMeta struct {
	Components        map[string]DependencyMeta `json:"components"`
	Packages          map[string]DependencyMeta `json:"packages"`
	GlobalRepo        RepoMeta                  `json:"globalRepo"`
	TenantRepo        RepoMeta                  `json:"tenantRepo"`
	CommodoreVersion  string                    `json:"commodoreVersion"`
	CompiledAt        time.Time                 `json:"compiledAt"`
}

// DependencyMeta reports one component or package's resolved coordinates.
type DependencyMeta struct {
	URL       string `json:"url"`
	Version   string `json:"version"`
	Subpath   string `json:"subpath,omitempty"`
	CommitSHA string `json:"commitSha"`
}

// RepoMeta reports the global/tenant repository's resolved coordinates.
type RepoMeta struct {
	URL       string `json:"url"`
	Revision  string `json:"revision"`
	CommitSHA string `json:"commitSha"`
}

// PostCompileMeta registers compilation metadata after a successful push.
func (c *Client) PostCompileMeta(ctx context.Context, clusterID string, meta CompileMeta) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "encoding compile metadata", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+fmt.Sprintf("/clusters/%s/compile-meta", clusterID), bytes.NewReader(body))
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "building compile-meta request", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "posting compile metadata", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return commodoreerrors.New(commodoreerrors.ErrConfig,
			fmt.Sprintf("lieutenant: compile-meta post failed with status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "building lieutenant request", err)
	}
	c.authorize(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, fmt.Sprintf("requesting %s", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return commodoreerrors.New(commodoreerrors.ErrConfig,
			fmt.Sprintf("lieutenant: %s returned status %d", path, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, "reading lieutenant response", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return commodoreerrors.Wrap(commodoreerrors.ErrConfig, fmt.Sprintf("decoding response from %s", path), err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
