// Package export renders quiz summaries as downloadable artifacts.
package export

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Mayhomes/quiz/internal/domain"
)

// utf8BOM lets spreadsheet apps detect UTF-8 in the CSV download.
const utf8BOM = "\xEF\xBB\xBF"

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// JSON renders the summary as a pretty-printed document.
func JSON(summary domain.Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

// CSV renders the fixed labeled-row layout: title, identity rows, then
// score rows. Prefixed with a UTF-8 BOM.
func CSV(summary domain.Summary) []byte {
	lines := []string{
		"MayHomes Quiz - Results",
		"",
		fmt.Sprintf("Name,%s", csvField(summary.UserInfo.Name)),
		fmt.Sprintf("Phone,%s", csvField(summary.UserInfo.Phone)),
		fmt.Sprintf("Team,%s", csvField(summary.UserInfo.AgentName)),
		"",
		fmt.Sprintf("MCQ Score,%d/%d", summary.Score.MCQ.Score, summary.Score.MCQ.Total),
		fmt.Sprintf("Total Score,%d/%d", summary.Score.Total.Score, summary.Score.Total.MaxScore),
	}
	return []byte(utf8BOM + strings.Join(lines, "\n"))
}

// Filename derives a download name from the sanitized user name plus a
// millisecond timestamp: quiz-<name>-<epoch-ms>.<ext>
func Filename(userName, ext string, ts time.Time) string {
	name := unsafeFilenameChars.ReplaceAllString(strings.ToLower(userName), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("quiz-%s-%d.%s", name, ts.UnixMilli(), ext)
}

func csvField(v string) string {
	if strings.ContainsAny(v, ",\"\n") {
		return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return v
}
