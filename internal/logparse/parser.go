// Package logparse converts raw vendor log files into structured error
// records. Two formats are supported: Visual Objects logs (E_*.LOG, blocks
// delimited by an ERROR banner) and .NET logs (EC_*.LOG, blocks delimited
// by a dashed separator).
package logparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stefanbaur/errsight/pkg/models"
)

// Format identifies a vendor log format.
type Format string

const (
	FormatVisualObjects Format = "visual_objects"
	FormatDotNet        Format = "dotnet"
	FormatUnknown       Format = "unknown"
)

// Block delimiters, matched literally.
const (
	visualObjectsBanner = "***********************ERROR********************************"
	dotNetSeparator     = "------------------------------"
)

const maxContentBytes = 200

// Block patterns compiled once at package init.
var (
	reCodeType  = regexp.MustCompile(`(\d+)\s*\[\s*([^\]]+)\s*\]`)
	reTimestamp = regexp.MustCompile(`\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2}`)
	reLoggedAt  = regexp.MustCompile(`Logged at:\s*(\d{2}\.\d{2}\.\d{4}\s+\d{2}:\d{2}:\d{2})`)
	reException = regexp.MustCompile(`System\.(\w+)Exception`)

	reUserVO     = regexp.MustCompile(`(?i)E_\d{8}_([^.]+)\.`)
	reUserDotNet = regexp.MustCompile(`(?i)EC_\d{8}_([^.]+)\.`)
)

// Detect identifies the log format from the filename prefix, falling back
// to content sniffing for the characteristic delimiter lines.
func Detect(content, filename string) Format {
	upper := strings.ToUpper(filename)
	switch {
	case strings.HasPrefix(upper, "E_"):
		return FormatVisualObjects
	case strings.HasPrefix(upper, "EC_"):
		return FormatDotNet
	case strings.Contains(content, visualObjectsBanner):
		return FormatVisualObjects
	case strings.Contains(content, dotNetSeparator):
		return FormatDotNet
	}
	return FormatUnknown
}

// Parse extracts error records from a raw log file. Record IDs are left
// unset; the caller assigns them as a global sequence across the batch.
// Record order matches block order within the file. Returns empty slice
// for unrecognized formats (never nil).
func Parse(content, filename string) []models.ErrorRecord {
	switch Detect(content, filename) {
	case FormatVisualObjects:
		return ParseVisualObjects(content, filename)
	case FormatDotNet:
		return ParseDotNet(content, filename)
	}
	return []models.ErrorRecord{}
}

// ParseVisualObjects parses the Visual Objects format: blocks delimited by
// the ERROR banner, each carrying a `<code> [ <type> ]` line. Blocks without
// that pattern are skipped. Severity derives from the numeric code:
// 50 is Critical, 2 and 33 are High, everything else Medium.
func ParseVisualObjects(content, filename string) []models.ErrorRecord {
	user := userFromFilename(reUserVO, filename)
	records := []models.ErrorRecord{}

	blocks := strings.Split(content, visualObjectsBanner)
	for i, block := range blocks {
		if i == 0 {
			// Preamble before the first banner carries no error block.
			continue
		}

		m := reCodeType.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		records = append(records, models.ErrorRecord{
			Filename:  filename,
			User:      user,
			Timestamp: timestampOrNow(reTimestamp.FindString(block)),
			Type:      strings.TrimSpace(m[2]),
			Code:      code,
			Severity:  visualObjectsSeverity(code),
			Content:   truncateContent(strings.TrimSpace(block)),
		})
	}
	return records
}

// ParseDotNet parses the .NET format: blocks delimited by a dashed
// separator, each carrying a System.*Exception name and a "Logged at:"
// timestamp. The display type is the exception name with the namespace and
// Exception suffix stripped, plus an " ERROR" suffix.
func ParseDotNet(content, filename string) []models.ErrorRecord {
	user := userFromFilename(reUserDotNet, filename)
	records := []models.ErrorRecord{}

	blocks := strings.Split(content, dotNetSeparator)
	for i, block := range blocks {
		if i == 0 {
			continue
		}

		m := reException.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		name := m[1]
		code := dotNetCode(name)

		severity := models.SeverityHigh
		if code == 50 {
			severity = models.SeverityCritical
		}

		timestamp := ""
		if lm := reLoggedAt.FindStringSubmatch(block); lm != nil {
			timestamp = lm[1]
		}

		records = append(records, models.ErrorRecord{
			Filename:  filename,
			User:      user,
			Timestamp: timestampOrNow(timestamp),
			Type:      name + " ERROR",
			Code:      code,
			Severity:  severity,
			Content:   truncateContent(strings.TrimSpace(block)),
		})
	}
	return records
}

func visualObjectsSeverity(code int) string {
	switch code {
	case 50:
		return models.SeverityCritical
	case 2, 33:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

func dotNetCode(exceptionName string) int {
	switch {
	case strings.Contains(exceptionName, "AccessViolation"):
		return 50
	case strings.Contains(exceptionName, "Memory"):
		return 51
	default:
		return 52
	}
}

// userFromFilename extracts the user segment between the format prefix, the
// 8-digit date, and the extension. Falls back to the Unknown sentinel.
func userFromFilename(re *regexp.Regexp, filename string) string {
	if m := re.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	return models.UnknownUser
}

// timestampOrNow keeps a matched timestamp, or formats the current time the
// same way. Missing timestamps are a best-effort fallback, not a failure.
func timestampOrNow(matched string) string {
	if matched != "" {
		return matched
	}
	return time.Now().Format(models.TimestampLayout)
}

// truncateContent caps the raw excerpt without splitting UTF-8 runes.
func truncateContent(s string) string {
	if len(s) <= maxContentBytes {
		return s
	}
	cut := maxContentBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
