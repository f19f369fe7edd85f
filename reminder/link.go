package reminder

import (
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	hostMarker   = "sharepoint.com"
	editSegment  = "/:x:/"
	viewSegment  = "/:b:/"
	downloadFlag = "download=1"
)

// DirectDownloadURL rewrites a shared link into its direct-download form:
// the edit sharing segment becomes the binary one and download=1 is
// appended. Links that do not look like a SharePoint share pass through.
func DirectDownloadURL(shared string) string {
	if !strings.Contains(shared, hostMarker) {
		return shared
	}
	if !strings.Contains(shared, editSegment) && !strings.Contains(shared, viewSegment) {
		return shared
	}
	direct := strings.ReplaceAll(shared, editSegment, viewSegment)
	return withDownloadFlag(direct)
}

func withDownloadFlag(u string) string {
	if strings.Contains(u, downloadFlag) {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + downloadFlag
}

// CandidateURLs derives the ordered, de-duplicated list of URLs to try
// for a shared link: the link itself, its direct-download form, and two
// download=1 fallbacks. Order is first-seen.
func CandidateURLs(shared string) []string {
	base := shared
	if i := strings.Index(shared, "?"); i >= 0 {
		base = shared[:i]
	}
	sep := "?"
	if strings.Contains(shared, "?") {
		sep = "&"
	}

	candidates := []string{
		shared,
		DirectDownloadURL(shared),
		base + "?" + downloadFlag,
		shared + sep + downloadFlag,
	}

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, u := range candidates {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	log.Debug().Strs("candidates", out).Msg("Resolved download candidates")
	return out
}
