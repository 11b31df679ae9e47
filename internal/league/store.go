package league

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spboyer/forge/internal/models"
)

// archiveTimeFormat is used in archive and corrupt-copy file names.
const archiveTimeFormat = "20060102_150405"

// Store persists league data as a single JSON file. It assumes one writer.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the store. A missing file yields a fresh season-1 league. A file
// that cannot be parsed is moved aside to <file>.corrupt-<timestamp> and a
// fresh league is returned along with a loud warning.
func (s *Store) Load(now time.Time) (*models.LeagueData, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewLeagueData(now), nil
		}
		return nil, fmt.Errorf("reading league store %s: %w", s.path, err)
	}

	var d models.LeagueData
	if err := json.Unmarshal(data, &d); err != nil {
		return s.recoverCorrupt(now, err)
	}
	if err := normalize(&d); err != nil {
		return s.recoverCorrupt(now, err)
	}
	return &d, nil
}

func (s *Store) recoverCorrupt(now time.Time, cause error) (*models.LeagueData, error) {
	preserved := fmt.Sprintf("%s.corrupt-%s", s.path, now.Format(archiveTimeFormat))
	if err := os.Rename(s.path, preserved); err != nil {
		return nil, fmt.Errorf("league store %s is corrupt (%v) and could not be preserved: %w", s.path, cause, err)
	}
	slog.Warn("League store is corrupt, starting fresh", "path", s.path, "preserved", preserved, "error", cause)
	fmt.Printf("[WARN] league store %s could not be read (%v); a fresh league was started and the old file was kept at %s\n",
		s.path, cause, preserved)
	return models.NewLeagueData(now), nil
}

// normalize fills nil collections left by older or hand-edited files. A null
// team or voter entry makes the file unusable.
func normalize(d *models.LeagueData) error {
	if d.Teams == nil {
		d.Teams = map[string]*models.TeamEntry{}
	}
	if d.Voters == nil {
		d.Voters = map[string]*models.VoterEntry{}
	}
	if d.History == nil {
		d.History = []models.HistoryEntry{}
	}
	if d.Season == 0 {
		d.Season = 1
	}
	for name, t := range d.Teams {
		if t == nil {
			return fmt.Errorf("team %q has no data", name)
		}
		if t.Name == "" {
			t.Name = name
		}
	}
	for name, v := range d.Voters {
		if v == nil {
			return fmt.Errorf("voter %q has no data", name)
		}
		if v.Name == "" {
			v.Name = name
		}
	}
	return nil
}

// Save writes d next to the store file and renames it into place, so the
// store is never left half-written.
func (s *Store) Save(d *models.LeagueData) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling league data: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating league directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing league store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing league store: %w", err)
	}
	return nil
}

// Archive copies the current store file into a gzip archive next to it and
// returns the archive path. It returns "" when there is nothing to archive.
func (s *Store) Archive(now time.Time, label string) (string, error) {
	src, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("opening league store: %w", err)
	}
	defer src.Close()

	base := strings.TrimSuffix(s.path, filepath.Ext(s.path))
	archivePath := fmt.Sprintf("%s_%s_%s.json.gz", base, label, now.Format(archiveTimeFormat))

	dst, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	zw := gzip.NewWriter(dst)
	zw.Name = filepath.Base(s.path)
	zw.ModTime = now
	if _, err := io.Copy(zw, src); err != nil {
		zw.Close()
		dst.Close()
		return "", fmt.Errorf("compressing archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		dst.Close()
		return "", fmt.Errorf("finishing archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}
	return archivePath, nil
}

// ReadArchive decodes a league archive written by Archive.
func ReadArchive(path string) (*models.LeagueData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading archive header: %w", err)
	}
	defer zr.Close()

	var d models.LeagueData
	if err := json.NewDecoder(zr).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	if err := normalize(&d); err != nil {
		return nil, fmt.Errorf("decoding archive: %w", err)
	}
	return &d, nil
}

// SizeKB returns the store file size in kilobytes, or 0 when it is missing.
func (s *Store) SizeKB() float64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024
}
