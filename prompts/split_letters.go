package prompts

import (
	"context"
	"encoding/json"
	"strings"

	"letterflow/llm"
	"letterflow/schema"

	"github.com/SaiNageswarS/go-collection-boot/async"
)

// SplitLetters asks the LLM for the zero-based page indices at which a new
// letter begins (salutation, dateline or an explicit break). The marker list
// is advisory: the assembler normalizes it and a document without markers is
// one letter spanning all pages.
func SplitLetters(ctx context.Context, client llm.LLMClient, corrected *schema.CorrectedText) <-chan async.Result[[]int] {
	return async.Go(func() ([]int, error) {
		systemPrompt, err := loadPrompt("templates/split_letters_system.md", map[string]any{})
		if err != nil {
			return nil, err
		}

		userPrompt, err := loadPrompt("templates/split_letters_user.md", map[string]any{
			"Pages": corrected.Pages,
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

		jsonStr, ok := extractJSONArray(response.String())
		if !ok {
			return nil, schema.Errorf(schema.KindCorrection, "no JSON array in split response")
		}

		var markers []int
		if err := json.Unmarshal([]byte(jsonStr), &markers); err != nil {
			return nil, schema.NewError(schema.KindCorrection, err)
		}

		return markers, nil
	})
}
