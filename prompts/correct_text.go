package prompts

import (
	"context"
	"encoding/json"
	"strings"

	"letterflow/llm"
	"letterflow/schema"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"
)

type correctTextResponse struct {
	Pages []string `json:"pages"`
}

// CorrectText asks the LLM for a corrected version of the raw OCR pages. The
// response must preserve the page count; a structural mismatch is a
// correction error, never silently truncated or padded.
func CorrectText(ctx context.Context, client llm.LLMClient, pages []string) <-chan async.Result[*schema.CorrectedText] {
	return async.Go(func() (*schema.CorrectedText, error) {
		systemPrompt, err := loadPrompt("templates/correct_text_system.md", map[string]any{})
		if err != nil {
			return nil, err
		}

		userPrompt, err := loadPrompt("templates/correct_text_user.md", map[string]any{
			"Pages": pages,
		})
		if err != nil {
			return nil, err
		}

		var response strings.Builder
		err = client.GenerateInference(ctx,
			[]llm.Message{{Role: "user", Content: userPrompt}},
			func(chunk string) error {
				response.WriteString(chunk)
				return nil
			},
			llm.WithSystemPrompt(systemPrompt),
			llm.WithTemperature(0.0))
		if err != nil {
			return nil, schema.NewError(schema.KindCorrection, err)
		}

		jsonStr, ok := extractJSONObject(response.String())
		if !ok {
			return nil, schema.Errorf(schema.KindCorrection, "no JSON object in correction response")
		}

		out := &correctTextResponse{}
		if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
			return nil, schema.NewError(schema.KindCorrection, err)
		}

		if len(out.Pages) != len(pages) {
			logger.Error("Corrected page count does not match OCR page count",
				zap.Int("got", len(out.Pages)), zap.Int("want", len(pages)))
			return nil, schema.Errorf(schema.KindCorrection,
				"corrected text has %d pages, OCR result has %d", len(out.Pages), len(pages))
		}

		return &schema.CorrectedText{Pages: out.Pages}, nil
	})
}
