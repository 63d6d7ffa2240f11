package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Sink persists rendered report text and returns where it went.
type Sink interface {
	Write(now time.Time, text string) (string, error)
}

// FixedFile writes every report to the same path, overwriting it.
type FixedFile struct {
	Path string
}

func (f FixedFile) Write(_ time.Time, text string) (string, error) {
	if err := writeFile(f.Path, text); err != nil {
		return "", err
	}
	return f.Path, nil
}

// DailyFile writes report_YYYY-MM-DD.txt under Dir, creating Dir when
// needed. A second report on the same day replaces the first.
type DailyFile struct {
	Dir string
}

// PathFor returns the file a report written at now goes to.
func (d DailyFile) PathFor(now time.Time) string {
	return filepath.Join(d.Dir, fmt.Sprintf("report_%s.txt", now.Format("2006-01-02")))
}

func (d DailyFile) Write(now time.Time, text string) (string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := d.PathFor(now)
	if err := writeFile(path, text); err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path, text string) error {
	if path == "" {
		return fmt.Errorf("report path is empty")
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
