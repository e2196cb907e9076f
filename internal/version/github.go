// Package version resolves release versions for command templates that
// reference {version}. Versions come from GitHub releases, falling back
// to tags for repositories that publish none, optionally filtered by a
// recipe's semver constraint.
package version

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/config"
	"github.com/tsukumogami/naosu/internal/httputil"
)

// Info pairs a tag as published with its normalized version.
type Info struct {
	Tag     string // "v1.7.1"
	Version string // "1.7.1"
}

// Resolver answers version queries against the GitHub API. Zero-value
// construction is not supported; use New or NewWithClient.
type Resolver struct {
	client        *github.Client
	authenticated bool
}

// New builds a resolver on the hardened HTTP client. A GITHUB_TOKEN in
// the environment upgrades requests to authenticated, which raises the
// API quota from 60 to 5000 requests per hour.
func New() *Resolver {
	httpClient := NewHTTPClient()
	authenticated := false
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, ts)
		authenticated = true
	}
	return &Resolver{client: github.NewClient(httpClient), authenticated: authenticated}
}

// NewWithClient builds a resolver around an existing GitHub client.
// Tests point the client at a stub server.
func NewWithClient(client *github.Client, authenticated bool) *Resolver {
	return &Resolver{client: client, authenticated: authenticated}
}

// NewHTTPClient returns the hardened HTTP client version lookups ride
// on: SSRF-guarded redirects, hard dial and response timeouts.
func NewHTTPClient() *http.Client {
	return httputil.NewSecureClient(httputil.ClientOptions{
		Timeout:      config.GetAPITimeout(),
		DialTimeout:  10 * time.Second,
		MaxRedirects: 5,
	})
}

// RecipeVersion resolves the version a recipe's command templates need.
// Its signature matches the chain resolver's VersionSource. Recipes
// without a github_repo cannot resolve versions; that is an authoring
// error surfaced as configuration, not guessed around.
func (r *Resolver) RecipeVersion(ctx context.Context, rec *catalog.Recipe) (string, error) {
	repo := rec.Version.GitHubRepo
	if repo == "" {
		return "", &catalog.ConfigurationError{
			Source: "recipe " + rec.Name(),
			Problems: []catalog.ValidationError{{
				Recipe:  rec.Name(),
				Field:   "version.github_repo",
				Message: "a method references {version} but the recipe names no version source",
			}},
		}
	}
	if c := rec.Version.Constraint; c != "" {
		info, err := r.Satisfying(ctx, repo, c)
		if err != nil {
			return "", err
		}
		return info.Version, nil
	}
	info, err := r.Latest(ctx, repo)
	if err != nil {
		return "", err
	}
	return info.Version, nil
}

// Latest returns the newest stable version of a repository: the
// published latest release when one exists, otherwise the highest
// stable tag.
func (r *Resolver) Latest(ctx context.Context, repo string) (Info, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return Info{}, err
	}
	source := "github:" + repo

	release, _, err := r.client.Repositories.GetLatestRelease(ctx, owner, name)
	if err != nil {
		if rle := r.rateLimited(err); rle != nil {
			return Info{}, rle
		}
		// Repositories that tag without publishing releases 404 here.
		if isNotFound(err) {
			return r.latestFromTags(ctx, owner, name)
		}
		return Info{}, wrapNetworkError(err, source, "fetching latest release")
	}

	tag := release.GetTagName()
	v, ok := parseTag(tag)
	if !ok {
		// The latest release has an unparseable tag; fall back to the
		// full listing and semver ordering.
		return r.latestListed(ctx, repo)
	}
	return Info{Tag: tag, Version: v.String()}, nil
}

// List returns the repository's stable versions, newest first.
func (r *Resolver) List(ctx context.Context, repo string) ([]Info, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	source := "github:" + repo

	type tagged struct {
		info   Info
		parsed *semver.Version
	}
	var found []tagged
	seen := map[string]bool{}
	add := func(tag string, prerelease bool) {
		if prerelease || seen[tag] || !isStable(tag) {
			return
		}
		seen[tag] = true
		if v, ok := parseTag(tag); ok {
			found = append(found, tagged{info: Info{Tag: tag, Version: v.String()}, parsed: v})
		}
	}

	opts := &github.ListOptions{PerPage: 100}
	releases, _, err := r.client.Repositories.ListReleases(ctx, owner, name, opts)
	switch {
	case err == nil:
		for _, rel := range releases {
			add(rel.GetTagName(), rel.GetPrerelease() || rel.GetDraft())
		}
	case r.rateLimited(err) != nil:
		return nil, r.rateLimited(err)
	case !isNotFound(err):
		return nil, wrapNetworkError(err, source, "listing releases")
	}

	if len(found) == 0 {
		// No releases published: fall back to tags. Some repositories
		// keep hundreds of historic tags, so walk a few pages.
		for page := 1; page <= 5; page++ {
			opts.Page = page
			tags, _, err := r.client.Repositories.ListTags(ctx, owner, name, opts)
			if err != nil {
				if rle := r.rateLimited(err); rle != nil {
					return nil, rle
				}
				return nil, wrapNetworkError(err, source, "listing tags")
			}
			for _, t := range tags {
				add(t.GetName(), false)
			}
			if len(tags) < opts.PerPage {
				break
			}
		}
	}

	if len(found) == 0 {
		return nil, &ResolverError{
			Type:    ErrTypeValidation,
			Source:  source,
			Message: "no stable versions found",
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].parsed.GreaterThan(found[j].parsed)
	})
	out := make([]Info, len(found))
	for i, f := range found {
		out[i] = f.info
	}
	return out, nil
}

// Satisfying returns the newest stable version matching a semver range
// constraint, such as ">=1.4 <2.0".
func (r *Resolver) Satisfying(ctx context.Context, repo, constraint string) (Info, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return Info{}, &ResolverError{
			Type:    ErrTypeValidation,
			Source:  "github:" + repo,
			Message: fmt.Sprintf("invalid version constraint %q", constraint),
			Err:     err,
		}
	}
	infos, err := r.List(ctx, repo)
	if err != nil {
		return Info{}, err
	}
	for _, info := range infos {
		v, _ := parseTag(info.Tag)
		if c.Check(v) {
			return info, nil
		}
	}
	return Info{}, &ResolverError{
		Type:    ErrTypeValidation,
		Source:  "github:" + repo,
		Message: fmt.Sprintf("no version satisfies %q (newest is %s)", constraint, infos[0].Version),
	}
}

// latestFromTags serves repositories that never publish releases.
func (r *Resolver) latestFromTags(ctx context.Context, owner, name string) (Info, error) {
	return r.latestListed(ctx, owner+"/"+name)
}

func (r *Resolver) latestListed(ctx context.Context, repo string) (Info, error) {
	infos, err := r.List(ctx, repo)
	if err != nil {
		return Info{}, err
	}
	return infos[0], nil
}

// rateLimited converts a go-github rate limit error into the typed
// error surfaced to users, or nil when err is something else.
func (r *Resolver) rateLimited(err error) *RateLimitError {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return &RateLimitError{
			Limit:         rle.Rate.Limit,
			Remaining:     rle.Rate.Remaining,
			ResetTime:     rle.Rate.Reset.Time,
			Authenticated: r.authenticated,
			Err:           err,
		}
	}
	var are *github.AbuseRateLimitError
	if errors.As(err, &are) {
		reset := time.Now()
		if are.RetryAfter != nil {
			reset = reset.Add(*are.RetryAfter)
		}
		return &RateLimitError{Authenticated: r.authenticated, ResetTime: reset, Err: err}
	}
	return nil
}

func isNotFound(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", &ResolverError{
			Type:    ErrTypeValidation,
			Source:  "github:" + repo,
			Message: "repository must be in owner/repo form",
		}
	}
	return parts[0], parts[1], nil
}

// parseTag normalizes a tag to a semver version. Tags that do not parse
// (dates, "latest", tool-prefixed schemes) are skipped by callers.
func parseTag(tag string) (*semver.Version, bool) {
	v, err := semver.NewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil {
		return nil, false
	}
	return v, true
}

// isStable rejects tags that advertise pre-release trains in their
// name even when the release is not flagged as such.
func isStable(tag string) bool {
	lower := strings.ToLower(tag)
	for _, marker := range []string{"preview", "alpha", "beta", "-rc", "rc.", "dev", "snapshot", "nightly"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}
