package fields

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// digitRunShapes are the boundary shapes tried, most to least strict, when a
// numeric field has no anchored pattern: a free-standing digit run bounded
// by whitespace, optionally trailed by grouping punctuation.
var digitRunShapes = []string{
	`\s\d{%d,%d}\s`,
	`\s\d{%d,%d}\.\s`,
	`\s\d{%d,%d}\,\s`,
	`\s[\d\.\,]{%d,%d}\s`,
}

// FirstDigitRun scans content for the first free-standing run of Min-Max
// digits. Grouping punctuation inside the captured run is stripped, so
// "1.234.567" with bounds covering 9 characters still yields plain digits.
func FirstDigitRun(content string, r schema.DigitRange) string {
	// Pad so a run at either end of the content still has its whitespace
	// boundary.
	content = " " + content + " "
	for _, shape := range digitRunShapes {
		expr := fmt.Sprintf(shape, r.Min, r.Max)
		re, err := regexp2.Compile(expr, regexp2.Singleline)
		if err != nil {
			continue
		}
		m, err := re.FindStringMatch(content)
		if err != nil || m == nil {
			continue
		}
		run := strings.TrimSpace(m.String())
		run = strings.ReplaceAll(run, ".", "")
		run = strings.ReplaceAll(run, ",", "")
		// The permissive shapes count punctuation toward the length bound,
		// so re-check the digit count after stripping.
		if len(run) >= r.Min && len(run) <= r.Max {
			return run
		}
	}
	return ""
}
