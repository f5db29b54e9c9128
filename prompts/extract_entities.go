package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"letterflow/llm"
	"letterflow/schema"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"
)

// ExtractEntities asks the LLM for the categorized entities of a corrected
// document. A response that violates the entity schema is retried once with
// the validator's complaint appended; a second violation surfaces as a
// schema validation error.
func ExtractEntities(ctx context.Context, client llm.LLMClient, corrected *schema.CorrectedText) <-chan async.Result[*schema.EntitySet] {
	return async.Go(func() (*schema.EntitySet, error) {
		systemPrompt, err := loadPrompt("templates/extract_entities_system.md", map[string]any{})
		if err != nil {
			return nil, err
		}

		userPrompt, err := loadPrompt("templates/extract_entities_user.md", map[string]any{
			"Pages": corrected.Pages,
		})
		if err != nil {
			return nil, err
		}

		entities, vErr := requestEntities(ctx, client, systemPrompt, userPrompt)
		if vErr == nil {
			return entities, nil
		}
		// Backend call failures are not schema violations and get no
		// corrective retry; they carry their own kind.
		if schema.KindOf(vErr) != "" {
			return nil, vErr
		}

		// One corrective round-trip before giving up.
		logger.Error("Entity extraction response failed validation, retrying",
			zap.Error(vErr))
		corrective := fmt.Sprintf(
			"%s\n\nYour previous answer was rejected: %v. Return only a JSON object that conforms to the schema exactly.",
			userPrompt, vErr)

		entities, vErr = requestEntities(ctx, client, systemPrompt, corrective)
		if vErr != nil {
			if schema.KindOf(vErr) != "" {
				return nil, vErr
			}
			return nil, schema.NewError(schema.KindSchemaValidation, vErr)
		}
		return entities, nil
	})
}

// requestEntities makes one backend call and validates the response. Call
// failures come back classified; validation failures come back bare so the
// caller can tell them apart.
func requestEntities(ctx context.Context, client llm.LLMClient, systemPrompt, userPrompt string) (*schema.EntitySet, error) {
	var response strings.Builder
	err := client.GenerateInference(ctx,
		[]llm.Message{{Role: "user", Content: userPrompt}},
		func(chunk string) error {
			response.WriteString(chunk)
			return nil
		},
		llm.WithSystemPrompt(systemPrompt),
		llm.WithTemperature(0.2))
	if err != nil {
		return nil, schema.NewError(schema.KindCorrection, err)
	}

	return parseEntitySet(response.String())
}

// parseEntitySet validates the declared entity schema: every category key
// must be present and hold an array of {value, page} objects.
func parseEntitySet(response string) (*schema.EntitySet, error) {
	jsonStr, ok := extractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object in entity response")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("entity response is not a JSON object: %w", err)
	}

	out := &schema.EntitySet{
		People:      []schema.Entity{},
		Productions: []schema.Entity{},
		Companies:   []schema.Entity{},
		Theaters:    []schema.Entity{},
		Dates:       []schema.Entity{},
	}
	for _, category := range out.Categories() {
		payload, present := raw[category]
		if !present {
			return nil, fmt.Errorf("missing required category %q", category)
		}

		var ents []schema.Entity
		if err := json.Unmarshal(payload, &ents); err != nil {
			return nil, fmt.Errorf("category %q has wrong value types: %w", category, err)
		}
		for _, e := range ents {
			out.Append(category, e)
		}
	}

	return out, nil
}
