package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"letterflow/schema"
)

func azureTestDoc(t *testing.T) *schema.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "letter.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o644))
	return &schema.Document{Stem: "letter", SourcePath: path, PreparedPath: path, PageCount: 1}
}

func TestAzureExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Contains(t, r.URL.Path, "documentModels/prebuilt-read:analyze")
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))

		response := azureAnalyzeResponse{
			Status: "succeeded",
			AnalyzeResult: azureAnalyzeResult{
				Pages: []azurePage{
					{
						PageNumber: 1,
						Lines: []azureLine{
							{Content: "My dear Bram,", Polygon: []float64{1, 1, 5, 1, 5, 2, 1, 2}},
							{Content: "The season opens Monday.", Polygon: []float64{1, 3, 8, 3, 8, 4, 1, 4}},
						},
					},
					{
						PageNumber: 2,
						Lines: []azureLine{
							{Content: "Ever yours.", Polygon: []float64{1, 1, 4, 1, 4, 2, 1, 2}},
						},
					},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	p := &AzureProvider{endpoint: server.URL, key: "test-key", httpClient: server.Client()}

	result, err := p.Extract(context.Background(), azureTestDoc(t))

	require.NoError(t, err)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, "My dear Bram,\nThe season opens Monday.", result.Pages[0])
	assert.Equal(t, "Ever yours.", result.Pages[1])

	require.Len(t, result.Coordinates, 3)
	assert.Equal(t, [4]float64{1, 1, 4, 1}, result.Coordinates[0].BBox)
	assert.Equal(t, 1, result.Coordinates[2].Page)
}

func TestAzureExtractNonSuccessIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": "InvalidRequest"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	p := &AzureProvider{endpoint: server.URL, key: "test-key", httpClient: server.Client()}

	_, err := p.Extract(context.Background(), azureTestDoc(t))

	require.Error(t, err)
	assert.Equal(t, schema.KindExtraction, schema.KindOf(err))
}

func TestAzureExtractFailedStatusBodyIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(azureAnalyzeResponse{Status: "failed"})
	}))
	defer server.Close()

	p := &AzureProvider{endpoint: server.URL, key: "test-key", httpClient: server.Client()}

	_, err := p.Extract(context.Background(), azureTestDoc(t))

	require.Error(t, err)
	assert.Equal(t, schema.KindExtraction, schema.KindOf(err))
	assert.Contains(t, err.Error(), `"failed"`)
}

func TestPolygonToBBox(t *testing.T) {
	assert.Equal(t, [4]float64{2, 1, 6, 3}, polygonToBBox([]float64{2, 1, 8, 1, 8, 4, 2, 4}))
	assert.Equal(t, [4]float64{}, polygonToBBox(nil))
}
