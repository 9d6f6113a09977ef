package stationmodule

import (
	"net/url"
	"regexp"
	"strings"
)

// Candidate selection is a heuristic tuned to observed streaming sites, not
// a protocol guarantee; the markers below are policy knobs, not contracts.
var (
	twoSegmentRef = regexp.MustCompile(`/([^/]+/[^/]+)/playlist\.m3u8`)
	oneSegmentRef = regexp.MustCompile(`/([^/]+)/playlist\.m3u8`)
)

const playlistMarker = "playlist.m3u8"

// Selector picks the best stream URL from passively captured candidates.
// Priority: reference path/domain match, then authentication parameters,
// then primary playlist over chunk list, then longest URL (longer URLs tend
// to carry more qualifying parameters).
type Selector struct {
	referenceURL string
	refDomain    string
	refPathBase  string
}

// NewSelector builds a selector around the station's last known good URL;
// an empty reference disables the reference filter.
func NewSelector(referenceURL string) *Selector {
	s := &Selector{referenceURL: referenceURL}
	if referenceURL != "" {
		s.refDomain, s.refPathBase = referencePattern(referenceURL)
	}
	return s
}

// Select returns the best candidate, or "" when the list is empty.
func (s *Selector) Select(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	urls := candidates
	if s.referenceURL != "" {
		matching := filter(urls, s.matchesReference)
		if len(matching) > 0 {
			urls = matching
		}
	}

	withAuth := filter(urls, hasAuthParams)

	pool := urls
	if len(withAuth) > 0 {
		pool = withAuth
	}
	playlists := filter(pool, func(u string) bool {
		return strings.Contains(u, playlistMarker)
	})

	switch {
	case len(playlists) > 0:
		return longest(playlists)
	case len(withAuth) > 0:
		return longest(withAuth)
	default:
		return longest(urls)
	}
}

// matchesReference keeps candidates that share the reference URL's path
// pattern, falling back to a domain match.
func (s *Selector) matchesReference(candidate string) bool {
	if !strings.Contains(candidate, ".m3u8") {
		return false
	}

	if m := twoSegmentRef.FindStringSubmatch(s.referenceURL); m != nil {
		return strings.Contains(candidate, m[1]) && strings.Contains(candidate, playlistMarker)
	}
	if m := oneSegmentRef.FindStringSubmatch(s.referenceURL); m != nil {
		return strings.Contains(candidate, m[1]) && strings.Contains(candidate, playlistMarker)
	}
	if s.refDomain != "" {
		domainMatch := strings.Contains(candidate, s.refDomain)
		pathMatch := s.refPathBase == "" || strings.Contains(candidate, s.refPathBase)
		return domainMatch && pathMatch
	}
	return strings.Contains(candidate, playlistMarker)
}

// hasAuthParams detects signed URLs: a key+expiry pair or an auth token.
func hasAuthParams(u string) bool {
	return (strings.Contains(u, "k=") && strings.Contains(u, "exp=")) ||
		strings.Contains(u, "auth=")
}

// referencePattern extracts the domain and the path prefix (all segments
// but the last) from the reference URL.
func referencePattern(reference string) (domain, pathBase string) {
	parsed, err := url.Parse(reference)
	if err != nil || parsed.Host == "" {
		if m := regexp.MustCompile(`https?://([^/]+)`).FindStringSubmatch(reference); m != nil {
			domain = m[1]
		}
		return domain, ""
	}

	domain = parsed.Host
	segments := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
	if len(segments) > 1 {
		pathBase = strings.Join(segments[:len(segments)-1], "/")
	} else if len(segments) == 1 {
		pathBase = segments[0]
	}
	return domain, pathBase
}

func filter(urls []string, keep func(string) bool) []string {
	var out []string
	for _, u := range urls {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

func longest(urls []string) string {
	best := urls[0]
	for _, u := range urls[1:] {
		if len(u) > len(best) {
			best = u
		}
	}
	return best
}
