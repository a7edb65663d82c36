package creditscore

import (
	"regexp"
	"strings"
)

var (
	titleMarker   = regexp.MustCompile(`(?im)^[ \t]*-[ \t]*\**title\**[ \t]*:`)
	titleField    = regexp.MustCompile(`(?is)-\s*\**title\**[ \t]*:[ \t]*(.*?)\s*(?:\n\s*-\s*\**(?:impact|timeline)\**\s*:|$)`)
	impactField   = regexp.MustCompile(`(?is)-\s*\**impact\**[ \t]*:[ \t]*(.*?)\s*(?:\n\s*-\s*\**(?:title|timeline)\**\s*:|$)`)
	timelineField = regexp.MustCompile(`(?is)-\s*\**timeline\**[ \t]*:[ \t]*(.*?)\s*(?:\n\s*-\s*\**(?:title|impact)\**\s*:|\n[ \t]*\n|$)`)
)

// ParseRecommendations extracts "- TITLE: / - IMPACT: / - TIMELINE:" blocks from
// generated text. Segments without a title are dropped; missing impact or timeline
// fields are left empty. A timeline ends at the first blank line so trailing
// chatter after the last block is discarded.
func ParseRecommendations(text string) []Recommendation {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	starts := titleMarker.FindAllStringIndex(text, -1)
	recs := make([]Recommendation, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		segment := text[loc[0]:end]

		title := firstGroup(titleField, segment)
		if title == "" {
			continue
		}
		recs = append(recs, Recommendation{
			Title:    title,
			Impact:   firstGroup(impactField, segment),
			Timeline: firstGroup(timelineField, segment),
		})
	}
	return recs
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), "*"))
}
