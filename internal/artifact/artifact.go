// Package artifact reads and writes the JSON document kept for every
// completed round.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spboyer/forge/internal/models"
)

// TimestampLayout is the timestamp format used in artifact filenames.
const TimestampLayout = "2006-01-02T15-04-05.000000"

var unsafeChars = regexp.MustCompile(`[^a-z0-9_-]`)

func sanitizeGenre(genre string) string {
	s := strings.ToLower(strings.TrimSpace(genre))
	s = strings.ReplaceAll(s, " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unknown"
	}
	return s
}

// InputHash is the first 16 hex digits of the SHA-256 of the seed text.
func InputHash(plot string) string {
	sum := sha256.Sum256([]byte(plot))
	return hex.EncodeToString(sum[:])[:16]
}

// RoundID identifies a round's input: the sanitized genre and the input
// hash. The league records history under this id.
func RoundID(genre, plot string) string {
	return sanitizeGenre(genre) + "_" + InputHash(plot)
}

// Filename returns the artifact filename for a round.
func Filename(genre, plot string, ts time.Time) string {
	return fmt.Sprintf("plot_%s_%s.json", RoundID(genre, plot), ts.Format(TimestampLayout))
}

// Write serializes a RunArtifact into dir and returns its path.
func Write(dir string, a *models.RunArtifact) (string, error) {
	data, err := Marshal(a)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	path := filepath.Join(dir, Filename(a.Genre, a.OriginalPlot, a.Timestamp))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	return path, nil
}

// Marshal renders an artifact the way Write stores it.
func Marshal(a *models.RunArtifact) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return data, nil
}

// Load reads one artifact.
func Load(path string) (*models.RunArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a models.RunArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &a, nil
}

// List returns the artifact files in dir, oldest first. A missing directory
// has no artifacts.
func List(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "plot_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadAll reads every artifact in dir, ordered by timestamp. Files that
// cannot be read are skipped with a warning.
func LoadAll(dir string) ([]*models.RunArtifact, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}

	var out []*models.RunArtifact
	for _, p := range paths {
		a, err := Load(p)
		if err != nil {
			slog.Warn("Skipping unreadable artifact", "path", p, "error", err)
			continue
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
