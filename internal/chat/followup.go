package chat

import (
	"regexp"
	"strings"

	"github.com/datachat/datachat/internal/chartgen"
)

const maxRetypeMessageLength = 80

var digitPattern = regexp.MustCompile(`[0-9]`)

var chartTermPatterns = map[chartgen.Type]*regexp.Regexp{
	chartgen.TypeBar:       regexp.MustCompile(`\bbar\b`),
	chartgen.TypeLine:      regexp.MustCompile(`\bline\b`),
	chartgen.TypePie:       regexp.MustCompile(`\bpie\b`),
	chartgen.TypeScatter:   regexp.MustCompile(`\bscatter\b`),
	chartgen.TypeHistogram: regexp.MustCompile(`\bhistogram\b`),
}

var retypeCues = []string{
	"as a ",
	"as an ",
	"instead",
	"switch to",
	"make it",
	"make that",
	"make this",
	"change it",
	"change that",
	"turn it",
	"turn that",
	"now as",
	"show it as",
	"show that as",
	"show this as",
	"to a ",
	"into a ",
}

// newIntentTerms are words that signal fresh query semantics: filters,
// aggregations, orderings, comparisons. Any hit routes the message through
// full synthesis, so a misread costs one model call, never a wrong reuse.
var newIntentTerms = regexp.MustCompile(`\b(where|filter|only|each|every|all|sum|total|count|average|mean|median|min|max|top|bottom|group|order|sort|by|per|of|for|with|across|between|before|after|since|until|versus|vs|compare|compared|against|highest|lowest|most|least|and|or|not)\b`)

// classifyRetype decides whether a message merely asks to re-render the
// previous result as a different chart type. The rules are deliberately
// strict; anything ambiguous falls back to full synthesis.
func classifyRetype(message string) (chartgen.Type, bool) {
	lowered := strings.ToLower(strings.TrimSpace(message))
	if lowered == "" || len(lowered) > maxRetypeMessageLength {
		return "", false
	}
	if digitPattern.MatchString(lowered) {
		return "", false
	}
	if newIntentTerms.MatchString(lowered) {
		return "", false
	}

	var matched chartgen.Type
	matches := 0
	for typ, pattern := range chartTermPatterns {
		if pattern.MatchString(lowered) {
			matched = typ
			matches++
		}
	}
	if matches != 1 {
		return "", false
	}

	for _, cue := range retypeCues {
		if strings.Contains(lowered, cue) {
			return matched, true
		}
	}
	return "", false
}
