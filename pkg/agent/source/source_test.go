package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sat-sight-be/internal/pkg/logger"
	"sat-sight-be/pkg/agent/router"
	"sat-sight-be/pkg/agent/state"
	"sat-sight-be/pkg/store"
)

type fakeImageIndex struct {
	byImage []store.ImageMatch
	byText  []store.ImageMatch
	err     error
}

func (f *fakeImageIndex) SearchByImage(ctx context.Context, imageRef string, k int) ([]store.ImageMatch, error) {
	return f.byImage, f.err
}

func (f *fakeImageIndex) SearchByText(ctx context.Context, query string, k int) ([]store.ImageMatch, error) {
	return f.byText, f.err
}

type fakeDocStore struct {
	chunks []store.TextChunk
	err    error
}

func (f *fakeDocStore) Search(ctx context.Context, query string, k int) ([]store.TextChunk, error) {
	return f.chunks, f.err
}

type fakeReranker struct {
	images []store.ImageMatch
	chunks []store.TextChunk
	err    error
	calls  int
}

func (f *fakeReranker) RerankImages(ctx context.Context, query string, matches []store.ImageMatch, topK int) ([]store.ImageMatch, error) {
	f.calls++
	return f.images, f.err
}

func (f *fakeReranker) RerankChunks(ctx context.Context, query string, chunks []store.TextChunk, topK int) ([]store.TextChunk, error) {
	f.calls++
	return f.chunks, f.err
}

type fakeWebSearcher struct {
	snippets []store.WebSnippet
	err      error
}

func (f *fakeWebSearcher) Search(ctx context.Context, query string, maxResults int) ([]store.WebSnippet, error) {
	return f.snippets, f.err
}

type fakeWikiFetcher struct {
	summary string
	err     error
	term    string
}

func (f *fakeWikiFetcher) FetchSummary(ctx context.Context, term string) (string, error) {
	f.term = term
	return f.summary, f.err
}

type fakeGeoLookup struct {
	matches []store.GeoImageMatch
	err     error
}

func (f *fakeGeoLookup) SearchByLocation(ctx context.Context, locations []string, landClass string) ([]store.GeoImageMatch, error) {
	return f.matches, f.err
}

func newTestRouter(t *testing.T) *router.Router {
	t.Helper()
	r, err := router.New()
	require.NoError(t, err)
	return r
}

func TestVisionSearchesByImageWhenAttached(t *testing.T) {
	index := &fakeImageIndex{
		byImage: []store.ImageMatch{{ID: "img-1", Class: "Forest", Distance: 0.1}},
		byText:  []store.ImageMatch{{ID: "img-2", Class: "River", Distance: 0.3}},
	}
	a := NewVisionAdapter(index, nil, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("analyze this", "uploads/scene.png", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceVision}
	a.Run(context.Background(), qc)

	require.Len(t, qc.Evidence.ImageMatches, 1)
	assert.Equal(t, "img-1", qc.Evidence.ImageMatches[0].ID)
	assert.True(t, qc.IsCompleted(state.SourceVision))
	assert.False(t, qc.ErrorFlag)
}

func TestVisionFallsBackToOriginalOrderWhenRerankFails(t *testing.T) {
	index := &fakeImageIndex{
		byText: []store.ImageMatch{
			{ID: "img-1", Class: "Forest"},
			{ID: "img-2", Class: "River"},
		},
	}
	reranker := &fakeReranker{err: errors.New("cross encoder unavailable")}
	a := NewVisionAdapter(index, reranker, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("show me forests", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceVision}
	a.Run(context.Background(), qc)

	assert.Equal(t, 1, reranker.calls)
	require.Len(t, qc.Evidence.ImageMatches, 2)
	assert.Equal(t, "img-1", qc.Evidence.ImageMatches[0].ID)
	assert.False(t, qc.ErrorFlag)
}

func TestVisionMissingInputIsTerminal(t *testing.T) {
	a := NewVisionAdapter(&fakeImageIndex{}, nil, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("", "", "u1")
	a.Run(context.Background(), qc)

	assert.True(t, qc.ErrorFlag)
	assert.Equal(t, state.NodeEnd, qc.NextNode)
	assert.Empty(t, qc.CompletedSources)
}

func TestVisionBackendFailureDegradesTowardSynthesis(t *testing.T) {
	index := &fakeImageIndex{err: errors.New("vector store down")}
	a := NewVisionAdapter(index, nil, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("show me forests", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceVision, state.SourceText}
	a.Run(context.Background(), qc)

	assert.True(t, qc.ErrorFlag)
	assert.Equal(t, state.NodeMemory, qc.NextNode)
	assert.Empty(t, qc.Evidence.ImageMatches)
}

func TestVisionSingleSourceRoutesToWikiOnClassLabel(t *testing.T) {
	index := &fakeImageIndex{byText: []store.ImageMatch{{ID: "img-1", Class: "AnnualCrop"}}}
	a := NewVisionAdapter(index, nil, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("show me farmland images", "", "u1")
	a.Run(context.Background(), qc)

	assert.Equal(t, state.NodeWiki, qc.NextNode)
}

func TestVisionSingleSourceRoutesToWebOnFreshnessCue(t *testing.T) {
	index := &fakeImageIndex{byText: []store.ImageMatch{{ID: "img-1", Class: "Forest"}}}
	a := NewVisionAdapter(index, nil, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("show me the latest forest images", "", "u1")
	a.Run(context.Background(), qc)

	assert.Equal(t, state.NodeWeb, qc.NextNode)
}

func TestTextAdapterRetrievesAndCompletes(t *testing.T) {
	docs := &fakeDocStore{chunks: []store.TextChunk{{Content: "Forests store carbon.", Source: "kb/forests.md"}}}
	a := NewTextAdapter(docs, nil, newTestRouter(t), logger.NewNopLogger(), 5, 3)

	qc := state.New("why do forests matter", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceText, state.SourceWiki}
	a.Run(context.Background(), qc)

	require.Len(t, qc.Evidence.TextChunks, 1)
	assert.True(t, qc.IsCompleted(state.SourceText))
	assert.Equal(t, state.NodeWiki, qc.NextNode)
}

func TestWebAdapterWithoutClientSetsError(t *testing.T) {
	a := NewWebAdapter(nil, newTestRouter(t), logger.NewNopLogger(), 5)

	qc := state.New("latest wildfire news", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceWeb}
	a.Run(context.Background(), qc)

	assert.True(t, qc.ErrorFlag)
	assert.Equal(t, state.NodeMemory, qc.NextNode)
}

func TestWebAdapterRecordsSnippets(t *testing.T) {
	searcher := &fakeWebSearcher{snippets: []store.WebSnippet{{Title: "Fire season", URL: "https://example.com", Content: "..."}}}
	a := NewWebAdapter(searcher, newTestRouter(t), logger.NewNopLogger(), 5)

	qc := state.New("latest wildfire news", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceWeb}
	a.Run(context.Background(), qc)

	require.Len(t, qc.Evidence.WebSnippets, 1)
	assert.True(t, qc.IsCompleted(state.SourceWeb))
	assert.False(t, qc.ErrorFlag)
}

func TestWikiPrefersImageClassAsTerm(t *testing.T) {
	fetcher := &fakeWikiFetcher{summary: "A forest is an area dominated by trees."}
	a := NewWikiAdapter(fetcher, newTestRouter(t), logger.NewNopLogger())

	qc := state.New("what is this", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceWiki}
	qc.Evidence.ImageMatches = []store.ImageMatch{{ID: "img-1", Class: "Forest"}}
	a.Run(context.Background(), qc)

	assert.Equal(t, "Forest", fetcher.term)
	require.NotNil(t, qc.Evidence.Wiki)
	assert.Equal(t, "Wikipedia: Forest", qc.Evidence.Wiki.Source)
	assert.True(t, qc.IsCompleted(state.SourceWiki))
}

func TestWikiNoArticleStillCompletes(t *testing.T) {
	fetcher := &fakeWikiFetcher{summary: ""}
	a := NewWikiAdapter(fetcher, newTestRouter(t), logger.NewNopLogger())

	qc := state.New("what is deforestation", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceWiki}
	a.Run(context.Background(), qc)

	assert.Nil(t, qc.Evidence.Wiki)
	assert.True(t, qc.IsCompleted(state.SourceWiki))
	assert.False(t, qc.ErrorFlag)
}

func TestExtractSearchTerm(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"priority keyword wins", "what is deforestation doing to wildlife", "deforestation"},
		{"two priority keywords joined", "climate effects on agriculture yields", "climate agriculture"},
		{"first two significant words", "tell me about tropical rainforest canopies", "tell tropical"},
		{"stop words removed", "what is the", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSearchTerm(tt.query))
		})
	}
}

func TestGeoParsesExplicitCoordinates(t *testing.T) {
	a := NewGeoAdapter(&fakeGeoLookup{}, newTestRouter(t), logger.NewNopLogger())

	qc := state.New("what is at 48.85, 2.35", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceGeo}
	a.Run(context.Background(), qc)

	require.NotNil(t, qc.Evidence.Geo)
	assert.Equal(t, store.GeoResultPoint, qc.Evidence.Geo.Type)
	assert.InDelta(t, 48.85, qc.Evidence.Geo.Latitude, 1e-9)
	assert.InDelta(t, 2.35, qc.Evidence.Geo.Longitude, 1e-9)
	assert.True(t, qc.IsCompleted(state.SourceGeo))
	assert.Equal(t, state.NodeMemory, qc.NextNode)
}

func TestGeoRejectsOutOfRangeCoordinates(t *testing.T) {
	_, _, ok := ExtractCoordinates("numbers 300.0, 500.0 in the text")
	assert.False(t, ok)
}

func TestGeoExpandsLocationAliases(t *testing.T) {
	lookup := &fakeGeoLookup{matches: []store.GeoImageMatch{{Filename: "scene.tif", Class: "Forest", Country: "brazil"}}}
	a := NewGeoAdapter(lookup, newTestRouter(t), logger.NewNopLogger())

	qc := state.New("show me forest imagery of the amazon", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceGeo}
	a.Run(context.Background(), qc)

	require.NotNil(t, qc.Evidence.Geo)
	assert.Equal(t, store.GeoResultLocation, qc.Evidence.Geo.Type)
	assert.Contains(t, qc.Evidence.Geo.Locations, "brazil")
	assert.Equal(t, "Forest", qc.Evidence.Geo.LandClass)
	require.Len(t, qc.Evidence.Geo.Matches, 1)
}

func TestLandClassExtractionIsDeterministic(t *testing.T) {
	query := "compare the farm land with the city and the river nearby"
	want := extractLandClass(query)
	assert.Equal(t, "AnnualCrop", want)
	for i := 0; i < 50; i++ {
		assert.Equal(t, want, extractLandClass(query))
	}
}

func TestLocationExpansionOrderIsStable(t *testing.T) {
	query := "from the amazon across the sahara to siberia"
	want := []string{"brazil", "peru", "colombia", "algeria", "libya", "egypt", "mali", "russia"}
	for i := 0; i < 50; i++ {
		assert.Equal(t, want, ExtractLocations(query))
	}
}

func TestGeoLookupFailureIsNotFatal(t *testing.T) {
	lookup := &fakeGeoLookup{err: errors.New("metadata file missing")}
	a := NewGeoAdapter(lookup, newTestRouter(t), logger.NewNopLogger())

	qc := state.New("forests of siberia", "", "u1")
	qc.RequiredSources = []state.SourceTag{state.SourceGeo}
	a.Run(context.Background(), qc)

	assert.False(t, qc.ErrorFlag)
	assert.True(t, qc.IsCompleted(state.SourceGeo))
	assert.Empty(t, qc.Evidence.Geo.Matches)
}
