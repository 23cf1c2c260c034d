// Package geo resolves named locations against the imagery metadata file,
// a JSONL export with one catalog image per line.
package geo

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"sat-sight-be/pkg/retrieval"
	"sat-sight-be/pkg/store"
)

type metadataRecord struct {
	Filename string  `json:"filename"`
	Class    string  `json:"class"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

// FileLookup scans the metadata file on first use and serves location
// searches from memory afterwards.
type FileLookup struct {
	path string

	once    sync.Once
	loadErr error
	records []metadataRecord
}

var _ retrieval.GeoLookup = &FileLookup{}

func NewFileLookup(path string) *FileLookup {
	return &FileLookup{path: path}
}

func (l *FileLookup) load() {
	f, err := os.Open(l.path)
	if err != nil {
		l.loadErr = fmt.Errorf("failed to open geo metadata: %w", err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec metadataRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			// Skip malformed lines rather than failing the whole file.
			continue
		}
		l.records = append(l.records, rec)
	}
	if err := scanner.Err(); err != nil {
		l.loadErr = fmt.Errorf("failed to read geo metadata: %w", err)
	}
}

// SearchByLocation returns catalog images whose country or region matches
// any of the given locations, optionally narrowed by land class. Both
// filters empty means no matches rather than the whole catalog.
func (l *FileLookup) SearchByLocation(ctx context.Context, locations []string, landClass string) ([]store.GeoImageMatch, error) {
	l.once.Do(l.load)
	if l.loadErr != nil {
		return nil, l.loadErr
	}

	if len(locations) == 0 && landClass == "" {
		return nil, nil
	}

	lowered := make([]string, len(locations))
	for i, loc := range locations {
		lowered[i] = strings.ToLower(loc)
	}

	var matches []store.GeoImageMatch
	for _, rec := range l.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(lowered) > 0 && !matchesLocation(rec, lowered) {
			continue
		}
		if landClass != "" && !strings.EqualFold(rec.Class, landClass) {
			continue
		}
		matches = append(matches, store.GeoImageMatch{
			Filename: rec.Filename,
			Class:    rec.Class,
			Region:   rec.Region,
			Country:  rec.Country,
			Lat:      rec.Lat,
			Lon:      rec.Lon,
		})
	}
	return matches, nil
}

func matchesLocation(rec metadataRecord, lowered []string) bool {
	country := strings.ToLower(rec.Country)
	region := strings.ToLower(rec.Region)
	for _, loc := range lowered {
		if strings.Contains(country, loc) || strings.Contains(region, loc) {
			return true
		}
	}
	return false
}
