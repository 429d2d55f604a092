package gitcache

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// scpLike matches "git@host:org/repo(.git)?" style remotes.
var scpLike = regexp.MustCompile(`^([\w.-]+)@([\w.-]+):(.+?)(?:\.git)?/?$`)

// CanonicalURL normalizes a remote URL for use as a cache key: host
// lowercased, credentials and nonstandard ports stripped, trailing ".git"
// stripped. SCP-style remotes map to the same key as their HTTPS form.
// Spec §3 Repository Handle invariant.
func CanonicalURL(remote string) (string, error) {
	if m := scpLike.FindStringSubmatch(remote); m != nil {
		host := strings.ToLower(m[2])
		p := strings.Trim(m[3], "/")
		return fmt.Sprintf("https://%s/%s", host, p), nil
	}

	u, err := url.Parse(remote)
	if err != nil {
		return "", fmt.Errorf("parsing remote url %q: %w", remote, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("remote url %q has no host", remote)
	}

	host := strings.ToLower(u.Hostname())
	p := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")

	return fmt.Sprintf("%s://%s/%s", schemeFor(u.Scheme), host, p), nil
}

func schemeFor(s string) string {
	if s == "" {
		return "https"
	}
	return strings.ToLower(s)
}

// CachePath returns the on-disk path for the bare clone of remote, rooted
// at base, following spec §6.1's ".repos/<host>/<path>.git" layout.
func CachePath(base, remote string) (string, error) {
	canon, err := CanonicalURL(remote)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(canon)
	if err != nil {
		return "", err
	}
	return path.Join(base, ".repos", u.Host, u.Path+".git"), nil
}

// PushURL derives the SSH push URL for a canonical HTTPS(S) remote,
// following the documented https://host/org/repo[.git] -> git@host:org/repo.git
// transform. Remotes that are already SSH-shaped are returned unchanged.
func PushURL(remote string) (string, error) {
	if scpLike.MatchString(remote) {
		return remote, nil
	}

	u, err := url.Parse(remote)
	if err != nil {
		return "", fmt.Errorf("parsing remote url %q: %w", remote, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return remote, nil
	}

	host := strings.ToLower(u.Hostname())
	p := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	return fmt.Sprintf("git@%s:%s.git", host, p), nil
}
