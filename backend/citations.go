// ABOUTME: Citation extraction from accumulated answer text
// ABOUTME: Scans once for bracketed block identifiers, deduplicated in first-occurrence order

package backend

import (
	"regexp"

	"pageintel/core/domain"
)

// citationPattern matches bracketed block identifiers the backend
// embeds in generated answers, e.g. "[block-4]".
var citationPattern = regexp.MustCompile(`\[(block-\d+)\]`)

// ExtractCitations scans the full answer text for bracketed block
// identifiers. Each distinct identifier becomes one citation, ordered
// by first occurrence. Whether the identifier still resolves against
// the held block set is the caller's concern at display time.
func ExtractCitations(answer string) []domain.Citation {
	var citations []domain.Citation
	seen := map[string]bool{}

	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		id := match[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		citations = append(citations, domain.Citation{
			BlockID: id,
			Snippet: "Ref " + id,
		})
	}
	return citations
}
