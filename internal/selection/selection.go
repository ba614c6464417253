// Package selection decides which pages and transcript versions a batch
// run operates on.
package selection

import (
	"strings"

	"github.com/inkwellhq/inkwell/internal/trp"
)

// KeywordLatest selects the first transcript of a page's version list,
// which the platform orders newest-first.
const KeywordLatest = "latest"

// Policy describes which pages of a document are excluded from
// processing.
type Policy struct {
	// DropPageNumbers excludes pages by their 1-based page number.
	DropPageNumbers []int

	// DropStatuses excludes pages whose latest transcript carries one of
	// these statuses.
	DropStatuses []string

	// DropFollowing also excludes every page after the first one dropped
	// by status, assuming pages are worked through sequentially. This is
	// a heuristic, not a platform guarantee, and defaults to off.
	DropFollowing bool
}

// Select returns the pages of a document the policy admits, in page
// order. Pages are compared against the exclusion sets in order, so the
// following-page cutoff stops at the first status-excluded page.
func (p Policy) Select(pages []trp.Page) []trp.Page {
	dropNr := make(map[int]bool, len(p.DropPageNumbers))
	for _, nr := range p.DropPageNumbers {
		dropNr[nr] = true
	}
	dropStatus := make(map[string]bool, len(p.DropStatuses))
	for _, s := range p.DropStatuses {
		dropStatus[s] = true
	}

	var selected []trp.Page
	for _, page := range pages {
		if dropNr[page.PageNr] {
			continue
		}
		ts := page.Transcripts()
		if len(ts) > 0 && dropStatus[ts[0].Status] {
			if p.DropFollowing {
				break
			}
			continue
		}
		selected = append(selected, page)
	}
	return selected
}

// Latest returns the page's transcript with the maximum timestamp. For
// well-formed version lists this is index 0, but the timestamp decides
// when the ordering convention is violated. Returns ok=false for a page
// without transcripts.
func Latest(page trp.Page) (trp.Transcript, bool) {
	return latestWhere(page, func(trp.Transcript) bool { return true })
}

// LatestWithStatus returns the newest transcript carrying the given
// status, for example the newest ground-truth version.
func LatestWithStatus(page trp.Page, status string) (trp.Transcript, bool) {
	return latestWhere(page, func(t trp.Transcript) bool { return t.Status == status })
}

func latestWhere(page trp.Page, match func(trp.Transcript) bool) (trp.Transcript, bool) {
	var latest trp.Transcript
	found := false
	for _, t := range page.Transcripts() {
		if !match(t) {
			continue
		}
		if !found || t.Timestamp > latest.Timestamp {
			latest = t
			found = true
		}
	}
	return latest, found
}

// VersionIndex resolves a transcript version by keyword. The keyword
// "latest" always selects index 0. Any other keyword selects the first
// transcript whose tool name contains it or whose status equals it,
// scanning in list order. A keyword that matches nothing reports
// found=false; it never panics.
func VersionIndex(transcripts []trp.Transcript, keyword string) (int, bool) {
	if keyword == KeywordLatest {
		if len(transcripts) == 0 {
			return 0, false
		}
		return 0, true
	}
	for i, t := range transcripts {
		if t.ToolName != "" && strings.Contains(t.ToolName, keyword) {
			return i, true
		}
		if t.Status == keyword {
			return i, true
		}
	}
	return 0, false
}
