package statshttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/stats"
	"github.com/san-kum/mlviz/internal/statshttp"
)

var _ stats.Provider = (*statshttp.Client)(nil)

func demoDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name: "demo",
		X: [][]float64{
			{1, 10}, {2, 20}, {3, 30}, {4, 40}, {5, 50}, {6, 60},
		},
		Y:            []int{0, 0, 0, 1, 1, 1},
		FeatureNames: []string{"f0", "f1"},
		ClassNames:   []string{"a", "b"},
	}
}

func flatDataset() *dataset.Dataset {
	return &dataset.Dataset{
		Name:         "flat",
		X:            [][]float64{{7}, {7}, {7}},
		Y:            []int{0, 0, 1},
		FeatureNames: []string{"f0"},
		ClassNames:   []string{"a", "b"},
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := dataset.NewRegistry()
	reg.Register("demo", func() (*dataset.Dataset, error) { return demoDataset(), nil })
	reg.Register("flat", func() (*dataset.Dataset, error) { return flatDataset(), nil })
	svc := statshttp.NewService(reg, quiet())

	r := chi.NewRouter()
	svc.RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDatasetsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/datasets")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var infos []statshttp.DatasetInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))

	byName := map[string]statshttp.DatasetInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	require.Contains(t, byName, "demo")
	require.Contains(t, byName, "iris")
	require.Equal(t, 6, byName["demo"].Samples)
	require.Equal(t, []string{"f0", "f1"}, byName["demo"].Features)
	require.Equal(t, []string{"a", "b"}, byName["demo"].Classes)
}

func TestHistogramEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tree/histogram", map[string]any{
		"dataset":       "demo",
		"feature_index": 0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h mltree.Histogram
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	require.NoError(t, h.Validate())
	require.Equal(t, 6, h.TotalSamples)
	require.Len(t, h.Bins, 7)
	require.Len(t, h.CountsByClass, 2)
}

func TestHistogramWithRules(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tree/histogram", map[string]any{
		"dataset":       "demo",
		"feature_index": 0,
		"threshold":     2.5,
		"rules": []map[string]any{
			{"feature_index": 0, "threshold": 3.5, "branch": "left"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var h mltree.Histogram
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	require.Equal(t, 3, h.TotalSamples)
	require.NotNil(t, h.Threshold)
	require.InDelta(t, 2.5, *h.Threshold, 1e-9)
}

func TestFeatureStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/tree/feature-stats", map[string]any{
		"dataset":       "demo",
		"feature_index": 0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fs stats.FeatureStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fs))
	require.Equal(t, "f0", fs.FeatureName)
	require.Len(t, fs.Thresholds, 5)
	require.InDelta(t, 3.5, fs.Best().Threshold, 1e-9)
	require.InDelta(t, 0.5, fs.Best().Gain, 1e-9)
	require.NotNil(t, fs.Histogram)
	require.NoError(t, fs.Histogram.Validate())
}

func TestEndpointErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"unknown dataset", "/api/tree/histogram",
			map[string]any{"dataset": "nope", "feature_index": 0}, http.StatusNotFound},
		{"feature out of range", "/api/tree/histogram",
			map[string]any{"dataset": "demo", "feature_index": 9}, http.StatusBadRequest},
		{"single-valued feature", "/api/tree/feature-stats",
			map[string]any{"dataset": "flat", "feature_index": 0}, http.StatusBadRequest},
		{"bad criterion", "/api/tree/feature-stats",
			map[string]any{"dataset": "demo", "feature_index": 0, "criterion": "chaos"}, http.StatusBadRequest},
		{"bad rule branch", "/api/tree/histogram",
			map[string]any{"dataset": "demo", "feature_index": 0,
				"rules": []map[string]any{{"feature_index": 0, "threshold": 1, "branch": "up"}}},
			http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+tt.path, tt.body)
			require.Equal(t, tt.want, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.NotEmpty(t, body["error"])
		})
	}

	resp, err := http.Post(srv.URL+"/api/tree/histogram", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientMatchesLocal(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	client := statshttp.NewClient(srv.URL, "demo", statshttp.WithLogger(quiet()))
	local := stats.NewLocal(demoDataset())

	q := stats.Query{Feature: 0}
	gotH, err := client.FetchHistogram(ctx, q)
	require.NoError(t, err)
	wantH, err := local.FetchHistogram(ctx, q)
	require.NoError(t, err)
	require.Equal(t, wantH, gotH)

	gotFS, err := client.FeatureStats(ctx, q)
	require.NoError(t, err)
	wantFS, err := local.FeatureStats(ctx, q)
	require.NoError(t, err)
	require.Equal(t, wantFS, gotFS)
}

func TestClientRulesReachServer(t *testing.T) {
	srv := newTestServer(t)
	client := statshttp.NewClient(srv.URL, "demo", statshttp.WithLogger(quiet()))

	q := stats.Query{
		Rules:   []stats.SplitRule{{Feature: 0, Threshold: 3.5, Branch: mltree.Right}},
		Feature: 1,
	}
	fs, err := client.FeatureStats(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, 3, fs.Parent.Samples)
	require.Equal(t, []int{0, 3}, fs.Parent.ClassCounts)
}

func TestClientErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	badQuery := statshttp.NewClient(srv.URL, "demo", statshttp.WithLogger(quiet()))
	_, err := badQuery.FeatureStats(ctx, stats.Query{Feature: 42})
	require.ErrorIs(t, err, stats.ErrBadQuery)

	unknown := statshttp.NewClient(srv.URL, "nope", statshttp.WithLogger(quiet()))
	_, err = unknown.FetchHistogram(ctx, stats.Query{Feature: 0})
	require.ErrorIs(t, err, stats.ErrBadQuery)

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	offline := statshttp.NewClient(dead.URL, "demo", statshttp.WithLogger(quiet()))
	_, err = offline.FetchHistogram(ctx, stats.Query{Feature: 0})
	require.ErrorIs(t, err, stats.ErrUnavailable)
}
