package backup

import (
	"regexp"
	"time"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// newBackupFilename produces the "{yyyymmdd_HHMMSS[_comments]}" stem used
// for both FULL archive names and SNAPSHOT directory names, matching
// create_backup_filename in the original implementation.
func newBackupFilename(now time.Time, comments string) string {
	stem := now.Format("20060102_150405")
	if comments != "" {
		if cleaned := unsafeFilenameChars.ReplaceAllString(comments, "_"); cleaned != "" {
			stem += "_" + cleaned
		}
	}
	return stem
}
