package pipeline

import (
	"context"

	"letterflow/letters"
	"letterflow/llm"
	"letterflow/ocr"
	"letterflow/preprocess"
	"letterflow/prompts"
	"letterflow/runlog"
	"letterflow/schema"
	"letterflow/store"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"go.uber.org/zap"
)

// Stage is a document's position in the pipeline state machine. FAILED is
// terminal and reachable from any non-terminal stage.
type Stage string

const (
	StagePending      Stage = "PENDING"
	StagePreprocessed Stage = "PREPROCESSED"
	StageOCRDone      Stage = "OCR_DONE"
	StageCorrected    Stage = "CORRECTED"
	StageEntitiesDone Stage = "ENTITIES_DONE"
	StageSplit        Stage = "SPLIT"
	StagePersisted    Stage = "PERSISTED"
	StageFailed       Stage = "FAILED"
)

// Outcome is the terminal result of one document's pipeline execution. Stage
// is the stage that was being attempted when Err occurred, or PERSISTED on
// success.
type Outcome struct {
	Doc   *schema.Document
	Stage Stage
	Err   error
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Pipeline runs the per-document stage sequence. Each stage transition is
// attempted once; the first failure is terminal for the document and is
// recorded with its error kind, never propagated to sibling documents.
type Pipeline struct {
	OCR       ocr.Provider
	LLM       llm.LLMClient
	Converter *preprocess.Converter
	Store     store.Store
	Log       *runlog.RunLog
}

func (p *Pipeline) Process(ctx context.Context, doc *schema.Document) Outcome {
	p.enter(doc, StagePending)

	if err := p.Converter.Prepare(ctx, doc, p.OCR.PDFOnly()); err != nil {
		return p.fail(doc, StagePreprocessed, err)
	}
	p.enter(doc, StagePreprocessed)

	ocrResult, err := p.OCR.Extract(ctx, doc)
	if err != nil {
		return p.fail(doc, StageOCRDone, err)
	}
	p.enter(doc, StageOCRDone)

	corrected, err := async.Await(prompts.CorrectText(ctx, p.LLM, ocrResult.Pages))
	if err != nil {
		return p.fail(doc, StageCorrected, err)
	}
	p.enter(doc, StageCorrected)

	entities, err := async.Await(prompts.ExtractEntities(ctx, p.LLM, corrected))
	if err != nil {
		return p.fail(doc, StageEntitiesDone, err)
	}
	p.enter(doc, StageEntitiesDone)

	// Boundary markers are advisory. A failed or malformed split response
	// degrades to a single letter spanning the document.
	markers, err := async.Await(prompts.SplitLetters(ctx, p.LLM, corrected))
	if err != nil {
		logger.Error("Letter splitting degraded to a single letter",
			zap.String("doc", doc.Stem), zap.Error(err))
		markers = nil
	}
	split := letters.Split(corrected, entities, markers)
	p.enter(doc, StageSplit)

	if err := p.Store.Persist(doc, &store.Artifacts{
		OCR:       ocrResult,
		Corrected: corrected,
		Entities:  entities,
		Letters:   split,
	}); err != nil {
		return p.fail(doc, StagePersisted, err)
	}
	p.Log.Persisted(doc.Stem)
	logger.Info("Document persisted", zap.String("doc", doc.Stem),
		zap.Int("pages", len(corrected.Pages)), zap.Int("letters", len(split)),
		zap.Int("entities", entities.Total()))

	return Outcome{Doc: doc, Stage: StagePersisted}
}

func (p *Pipeline) enter(doc *schema.Document, stage Stage) {
	p.Log.StageEntered(doc.Stem, string(stage))
}

func (p *Pipeline) fail(doc *schema.Document, stage Stage, err error) Outcome {
	logger.Error("Document failed", zap.String("doc", doc.Stem),
		zap.String("stage", string(stage)), zap.Error(err))
	p.Log.StageFailed(doc.Stem, string(stage), err)
	return Outcome{Doc: doc, Stage: stage, Err: err}
}
