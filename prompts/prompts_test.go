package prompts

import (
	"context"
	"errors"
	"testing"

	"letterflow/llm"
	"letterflow/schema"

	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLLMClient replays a scripted list of responses, one per call. A set
// err fails every call instead.
type mockLLMClient struct {
	responses []string
	err       error
	calls     int
	lastUser  string
}

func (m *mockLLMClient) GetModel() string { return "mock-model" }

func (m *mockLLMClient) GenerateInference(ctx context.Context, messages []llm.Message, callback func(chunk string) error, opts ...llm.LLMOption) error {
	if len(messages) > 0 {
		m.lastUser = messages[len(messages)-1].Content
	}
	m.calls++
	if m.err != nil {
		return m.err
	}
	return callback(m.responses[m.calls-1])
}

func TestCorrectText(t *testing.T) {
	client := &mockLLMClient{responses: []string{
		`{"pages": ["Dear Sir, corrected page one.", "Yours faithfully, page two."]}`,
	}}

	corrected, err := async.Await(CorrectText(context.Background(), client,
		[]string{"Dear Slr, raw page one.", "Yovrs faithfully, page two."}))

	require.NoError(t, err)
	require.Len(t, corrected.Pages, 2)
	assert.Equal(t, "Dear Sir, corrected page one.", corrected.Pages[0])
	assert.Equal(t, 1, client.calls)
}

func TestCorrectTextPageCountMismatch(t *testing.T) {
	client := &mockLLMClient{responses: []string{
		`{"pages": ["only one page came back"]}`,
	}}

	_, err := async.Await(CorrectText(context.Background(), client,
		[]string{"page one", "page two"}))

	require.Error(t, err)
	assert.Equal(t, schema.KindCorrection, schema.KindOf(err))
}

func TestCorrectTextMalformedResponse(t *testing.T) {
	client := &mockLLMClient{responses: []string{"I could not process that."}}

	_, err := async.Await(CorrectText(context.Background(), client, []string{"page"}))

	require.Error(t, err)
	assert.Equal(t, schema.KindCorrection, schema.KindOf(err))
}

const validEntities = `{
	"people": [{"value": "Henry Irving", "page": 0}],
	"productions": [{"value": "Hamlet", "page": 1}],
	"companies": [],
	"theaters": [{"value": "Lyceum Theatre", "page": 0}],
	"dates": [{"value": "12 March 1894", "page": 0}]
}`

func TestExtractEntities(t *testing.T) {
	client := &mockLLMClient{responses: []string{validEntities}}

	entities, err := async.Await(ExtractEntities(context.Background(), client,
		&schema.CorrectedText{Pages: []string{"page one", "page two"}}))

	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, 4, entities.Total())
	require.Len(t, entities.People, 1)
	assert.Equal(t, "Henry Irving", entities.People[0].Value)
	assert.Equal(t, 0, entities.People[0].Page)
	assert.Empty(t, entities.Companies)
}

func TestExtractEntitiesRetriesOnceOnBadSchema(t *testing.T) {
	client := &mockLLMClient{responses: []string{
		`{"people": "not an array"}`,
		validEntities,
	}}

	entities, err := async.Await(ExtractEntities(context.Background(), client,
		&schema.CorrectedText{Pages: []string{"page"}}))

	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Contains(t, client.lastUser, "rejected")
	assert.Equal(t, 4, entities.Total())
}

func TestExtractEntitiesFailsAfterSecondBadResponse(t *testing.T) {
	client := &mockLLMClient{responses: []string{
		`{"people": []}`,
		`not json at all`,
	}}

	_, err := async.Await(ExtractEntities(context.Background(), client,
		&schema.CorrectedText{Pages: []string{"page"}}))

	require.Error(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, schema.KindSchemaValidation, schema.KindOf(err))
}

func TestExtractEntitiesBackendFailureGetsNoRetry(t *testing.T) {
	client := &mockLLMClient{err: errors.New("connection reset")}

	_, err := async.Await(ExtractEntities(context.Background(), client,
		&schema.CorrectedText{Pages: []string{"page"}}))

	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, schema.KindCorrection, schema.KindOf(err))
}

func TestSplitLetters(t *testing.T) {
	client := &mockLLMClient{responses: []string{"The letters begin at [0, 2]."}}

	markers, err := async.Await(SplitLetters(context.Background(), client,
		&schema.CorrectedText{Pages: []string{"a", "b", "c"}}))

	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, markers)
}

func TestSplitLettersMalformedResponse(t *testing.T) {
	client := &mockLLMClient{responses: []string{"no markers here"}}

	_, err := async.Await(SplitLetters(context.Background(), client,
		&schema.CorrectedText{Pages: []string{"a"}}))

	require.Error(t, err)
	assert.Equal(t, schema.KindCorrection, schema.KindOf(err))
}
