package geo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMetadata(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "images.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestSearchByLocationMatchesCountryAndRegion(t *testing.T) {
	path := writeMetadata(t, `
{"filename":"a.tif","class":"Forest","region":"para","country":"brazil","lat":-3.4,"lon":-52.1}
{"filename":"b.tif","class":"River","region":"bavaria","country":"germany","lat":48.1,"lon":11.5}
{"filename":"c.tif","class":"Forest","region":"amazonas","country":"brazil","lat":-4.2,"lon":-60.0}
`)
	l := NewFileLookup(path)

	matches, err := l.SearchByLocation(context.Background(), []string{"brazil"}, "")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = l.SearchByLocation(context.Background(), []string{"bavaria"}, "")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "b.tif", matches[0].Filename)
}

func TestSearchByLocationNarrowsByLandClass(t *testing.T) {
	path := writeMetadata(t, `
{"filename":"a.tif","class":"Forest","region":"para","country":"brazil","lat":-3.4,"lon":-52.1}
{"filename":"b.tif","class":"Pasture","region":"para","country":"brazil","lat":-3.5,"lon":-52.2}
`)
	l := NewFileLookup(path)

	matches, err := l.SearchByLocation(context.Background(), []string{"brazil"}, "forest")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.tif", matches[0].Filename)
}

func TestSearchSkipsMalformedLines(t *testing.T) {
	path := writeMetadata(t, `
{"filename":"a.tif","class":"Forest","region":"para","country":"brazil"}
not json at all
{"filename":"b.tif","class":"Forest","region":"amazonas","country":"brazil"}
`)
	l := NewFileLookup(path)

	matches, err := l.SearchByLocation(context.Background(), []string{"brazil"}, "")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestMissingFileReturnsError(t *testing.T) {
	l := NewFileLookup("/nonexistent/images.jsonl")
	_, err := l.SearchByLocation(context.Background(), []string{"brazil"}, "")
	assert.Error(t, err)
}

func TestEmptyFiltersReturnNothing(t *testing.T) {
	path := writeMetadata(t, `{"filename":"a.tif","class":"Forest","region":"para","country":"brazil"}`)
	l := NewFileLookup(path)

	matches, err := l.SearchByLocation(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
