// Package counterlog parses the text log exported by the counting hardware
// into structured detection events.
//
// Two grammars exist in the wild. Older exports are narrative: one line per
// detection of the form
//
//	2025-11-03 14:21:07 - Fish measurement received with ID 118
//
// Newer exports carry a [data] section of whitespace-separated columns,
// optionally preceded by a one-time folder stamp line (YY MM DD HH MM) that
// fixes the base year for the batch:
//
//	118 420 87 11 3 14 21 + 55
//
// Devices emit blank and partial trailer lines; malformed lines are skipped
// silently. Only a log with zero recognizable events is an error.
package counterlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoData indicates the log contained no recognizable event lines.
var ErrNoData = errors.New("no events parsed from log")

// ErrNoLog indicates the project root holds no .log file.
var ErrNoLog = errors.New("no .log file found in project root")

// RawEvent is one detection as written by the device, before video
// reconciliation. Measurements are nil when absent or unparseable.
type RawEvent struct {
	ID        string
	Timestamp string // "YYYY-MM-DD HH:MM:SS", empty when unknown
	RawDir    string
	M1        *int
	M2        *int
	M3        *int
}

// Diagnostics carries operator-facing parse details. It never drives
// control flow.
type Diagnostics struct {
	LogPath      string
	EventsParsed int
	FolderStamp  string
}

var narrativeRe = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(?:\.\d+)?) - Fish measurement received with ID (\d+)\s*$`)

// FindFirstLog returns the first file in projectRoot with a .log extension,
// matched case-insensitively. Multiple logs are not merged; only the first
// (in name order) is used.
func FindFirstLog(projectRoot string) (string, error) {
	entries, err := os.ReadDir(projectRoot)
	if err != nil {
		return "", fmt.Errorf("read project root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".log") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoLog, projectRoot)
	}
	sort.Strings(names)
	return filepath.Join(projectRoot, names[0]), nil
}

// ParseFile opens and parses a log file. Input is decoded as UTF-8 with
// invalid bytes replaced rather than rejected; device exports are not
// always clean.
func ParseFile(path string) ([]RawEvent, Diagnostics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Diagnostics{LogPath: path}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	events, diag, err := Parse(transform.NewReader(f, unicode.UTF8.NewDecoder()))
	diag.LogPath = path
	return events, diag, err
}

// Parse reads newline-delimited log text and returns the events found plus
// diagnostics. It returns ErrNoData when no event line matched either
// grammar (empty or header-only input).
func Parse(r io.Reader) ([]RawEvent, Diagnostics, error) {
	var (
		diag          Diagnostics
		events        []RawEvent
		sawDataMarker bool
		baseYear      int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.EqualFold(line, "[data]") {
			sawDataMarker = true
			continue
		}

		if !sawDataMarker {
			// Narrative grammar; anything else before a [data] marker is
			// banner text and ignored.
			if m := narrativeRe.FindStringSubmatch(line); m != nil {
				events = append(events, RawEvent{
					ID:        m[2],
					Timestamp: truncateTimestamp(m[1]),
				})
			}
			continue
		}

		parts := strings.Fields(line)
		if baseYear == 0 && len(parts) == 5 && allDigits(parts) {
			yy, _ := strconv.Atoi(parts[0])
			baseYear = 2000 + yy
			diag.FolderStamp = strings.Join(parts, " ")
			continue
		}
		if len(parts) < 9 {
			continue
		}

		ev := RawEvent{ID: strings.TrimSpace(parts[0])}
		if m1, err1 := strconv.Atoi(parts[1]); err1 == nil {
			if m2, err2 := strconv.Atoi(parts[2]); err2 == nil {
				ev.M1 = &m1
				ev.M2 = &m2
			}
		}

		month, errMonth := strconv.Atoi(parts[3])
		day, errDay := strconv.Atoi(parts[4])
		hour, errHour := strconv.Atoi(parts[5])
		minute, errMinute := strconv.Atoi(parts[6])
		if errMonth != nil || errDay != nil || errHour != nil || errMinute != nil {
			continue
		}

		ev.RawDir = parts[7]
		if m3, err := strconv.Atoi(parts[8]); err == nil {
			ev.M3 = &m3
		}

		year := baseYear
		if year == 0 {
			year = time.Now().Year()
		}
		// Calendar values are taken as-is; out-of-range months or days
		// propagate as opaque timestamp strings rather than aborting.
		ev.Timestamp = fmt.Sprintf("%04d-%02d-%02d %02d:%02d:00", year, month, day, hour, minute)

		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, diag, fmt.Errorf("read log: %w", err)
	}

	diag.EventsParsed = len(events)
	if len(events) == 0 {
		return nil, diag, ErrNoData
	}
	return events, diag, nil
}

// truncateTimestamp reduces a narrative timestamp to second precision.
// Malformed values fall back to the prefix before the first dot.
func truncateTimestamp(raw string) string {
	for _, layout := range []string{"2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02 15:04:05")
		}
	}
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		return raw[:idx]
	}
	return raw
}

func allDigits(parts []string) bool {
	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
