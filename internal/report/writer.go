package report

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jonathan/lighthouse-audit/internal/types"
)

// Writer writes report artifacts into a directory. Write failures are logged
// and reported per artifact; they never stop the remaining artifacts.
type Writer struct {
	dir       string
	verbose   bool
	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewWriter creates a Writer rooted at dir ("" means the working directory).
func NewWriter(dir string, verbose bool) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{dir: dir, verbose: verbose, writeFile: os.WriteFile}
}

// SanitizeName removes all whitespace from a report name.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
}

// FileNames returns the HTML, JSON and score summary file names for a report name,
// e.g. ReportHTML-NatureHomepage.html for "Nature Homepage".
func FileNames(name string) (html, jsonName, scores string) {
	base := SanitizeName(name)
	return "ReportHTML-" + base + ".html", "ReportJSON-" + base + ".json", "ReportScores-" + base + ".txt"
}

// Write persists all three artifacts for result and returns one entry per artifact.
func (w *Writer) Write(name string, result *types.AuditResult) []types.ArtifactResult {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		log.Printf("[REPORT] Failed to create output directory %s: %v", w.dir, err)
	}

	htmlName, jsonName, scoresName := FileNames(name)

	summary, err := ScoreSummary(result.Scores)
	return []types.ArtifactResult{
		w.writeReport(types.ArtifactHTML, htmlName, result.HTML),
		w.writeReport(types.ArtifactJSON, jsonName, result.JSON),
		w.write(types.ArtifactScores, scoresName, summary, err),
	}
}

// writeReport writes a Lighthouse report artifact, skipping it when the audit
// did not produce one, e.g. a saved JSON report evaluated on its own.
func (w *Writer) writeReport(kind, name string, data []byte) types.ArtifactResult {
	if len(data) == 0 {
		path := filepath.Join(w.dir, name)
		log.Printf("[REPORT] Skipping %s: no %s report available", path, kind)
		return types.ArtifactResult{Kind: kind, Path: path, Skipped: true}
	}
	return w.write(kind, name, data, nil)
}

func (w *Writer) write(kind, name string, data []byte, prepErr error) types.ArtifactResult {
	path := filepath.Join(w.dir, name)
	res := types.ArtifactResult{Kind: kind, Path: path}

	if prepErr != nil {
		res.Err = &WriteError{Path: path, Message: "failed to render content", Cause: prepErr}
	} else if err := w.writeFile(path, data, 0644); err != nil {
		res.Err = &WriteError{Path: path, Message: "failed to write file", Cause: err}
	}

	if res.Err != nil {
		log.Printf("[REPORT] %v", res.Err)
	} else if w.verbose {
		log.Printf("[REPORT] Wrote %s (%d bytes)", path, len(data))
	}
	return res
}

// ScoreSummary renders the scores as indented JSON keyed by category title, in
// enumeration order. Missing scores are written as null.
func ScoreSummary(scores types.Scores) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, c := range types.Categories {
		key, err := json.Marshal(c.Title())
		if err != nil {
			return nil, err
		}
		value := []byte("null")
		if score, ok := scores.Get(c); ok {
			if value, err = json.Marshal(score); err != nil {
				return nil, err
			}
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(types.Categories)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}
