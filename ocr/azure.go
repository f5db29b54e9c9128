package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"letterflow/appconfig"
	"letterflow/schema"
)

// AzureProvider is the synchronous variant: one blocking analyze call against
// Azure Document Intelligence, any non-success response is terminal for the
// document. Images are accepted directly, no PDF conversion needed.
type AzureProvider struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

const azureAPIVersion = "2024-02-29-preview"

func NewAzureProvider(_ *appconfig.AppConfig) (*AzureProvider, error) {
	endpoint := os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT")
	key := os.Getenv("AZURE_DOCUMENT_INTELLIGENCE_KEY")
	if endpoint == "" || key == "" {
		return nil, schema.Errorf(schema.KindConfiguration,
			"AZURE_DOCUMENT_INTELLIGENCE_ENDPOINT and AZURE_DOCUMENT_INTELLIGENCE_KEY environment variables are required")
	}

	return &AzureProvider{
		endpoint:   endpoint,
		key:        key,
		httpClient: &http.Client{},
	}, nil
}

func (p *AzureProvider) Name() string { return "azure" }

func (p *AzureProvider) PDFOnly() bool { return false }

func (p *AzureProvider) Extract(ctx context.Context, doc *schema.Document) (*schema.OCRResult, error) {
	data, err := os.ReadFile(doc.PreparedPath)
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(doc.PreparedPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url := fmt.Sprintf("%s/documentintelligence/documentModels/prebuilt-read:analyze?api-version=%s",
		p.endpoint, azureAPIVersion)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction,
			fmt.Errorf("error making request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction,
			fmt.Errorf("error reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, schema.Errorf(schema.KindExtraction,
			"analyze request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response azureAnalyzeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, schema.NewError(schema.KindExtraction,
			fmt.Errorf("error unmarshaling response: %w", err))
	}

	// A 200 body can still carry a non-terminal or failed analysis.
	if response.Status != "succeeded" {
		return nil, schema.Errorf(schema.KindExtraction,
			"analyze finished with status %q", response.Status)
	}

	return azureResult(&response, doc.PageCount), nil
}

// azureResult translates the analyze payload into the canonical OCRResult.
// Line polygons become axis-aligned bounding boxes.
func azureResult(resp *azureAnalyzeResponse, minPages int) *schema.OCRResult {
	pageTexts := map[int][]string{}
	var coords []schema.Coordinate
	maxPage := minPages

	for _, page := range resp.AnalyzeResult.Pages {
		idx := page.PageNumber - 1 // azure pages are 1-based
		if idx < 0 {
			idx = 0
		}
		if idx+1 > maxPage {
			maxPage = idx + 1
		}

		for _, line := range page.Lines {
			pageTexts[idx] = append(pageTexts[idx], line.Content)
			coords = append(coords, schema.Coordinate{
				Text: line.Content,
				BBox: polygonToBBox(line.Polygon),
				Page: idx,
			})
		}
	}

	result := &schema.OCRResult{Coordinates: coords}
	for page := 0; page < maxPage; page++ {
		result.Pages = append(result.Pages, strings.Join(pageTexts[page], "\n"))
	}
	return result
}

// polygonToBBox reduces an x1,y1,...,xn,yn polygon to [x, y, w, h].
func polygonToBBox(polygon []float64) [4]float64 {
	if len(polygon) < 4 {
		return [4]float64{}
	}

	minX, minY := polygon[0], polygon[1]
	maxX, maxY := minX, minY
	for i := 0; i+1 < len(polygon); i += 2 {
		x, y := polygon[i], polygon[i+1]
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return [4]float64{minX, minY, maxX - minX, maxY - minY}
}

type azureAnalyzeResponse struct {
	Status        string             `json:"status"`
	AnalyzeResult azureAnalyzeResult `json:"analyzeResult"`
}

type azureAnalyzeResult struct {
	Content string      `json:"content"`
	Pages   []azurePage `json:"pages"`
}

type azurePage struct {
	PageNumber int         `json:"pageNumber"`
	Lines      []azureLine `json:"lines"`
}

type azureLine struct {
	Content string    `json:"content"`
	Polygon []float64 `json:"polygon"`
}
