package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"letterflow/appconfig"
	"letterflow/schema"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"go.uber.org/zap"
)

// Narrow views of the AWS clients so tests can substitute fakes.
type textractAPI interface {
	StartDocumentTextDetection(ctx context.Context, params *textract.StartDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.StartDocumentTextDetectionOutput, error)
	GetDocumentTextDetection(ctx context.Context, params *textract.GetDocumentTextDetectionInput, optFns ...func(*textract.Options)) (*textract.GetDocumentTextDetectionOutput, error)
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// TextractProvider is the asynchronous job-polling variant: the PDF is staged
// to S3, a Textract text-detection job is started and polled to completion,
// and the paginated result is concatenated in page order.
type TextractProvider struct {
	textract textractAPI
	s3       s3API
	bucket   string
	poller   Poller
}

func NewTextractProvider(ctx context.Context, cfg *appconfig.AppConfig) (*TextractProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, schema.NewError(schema.KindConfiguration,
			fmt.Errorf("loading aws config: %w", err))
	}

	return &TextractProvider{
		textract: textract.NewFromConfig(awsCfg),
		s3:       s3.NewFromConfig(awsCfg),
		bucket:   cfg.BucketName,
		poller: Poller{
			MaxRetries: cfg.OCRMaxRetries,
			Delay:      time.Duration(cfg.OCRRetryDelaySeconds) * time.Second,
		},
	}, nil
}

func (p *TextractProvider) Name() string { return "aws" }

// Textract text detection wants PDFs for multi-page documents.
func (p *TextractProvider) PDFOnly() bool { return true }

func (p *TextractProvider) Extract(ctx context.Context, doc *schema.Document) (*schema.OCRResult, error) {
	data, err := os.ReadFile(doc.PreparedPath)
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction, err)
	}

	key := path.Join("letterflow", doc.Stem+".pdf")
	_, err = p.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction,
			fmt.Errorf("uploading %s to s3: %w", doc.Stem, err))
	}
	defer p.cleanup(doc, key)

	start, err := p.textract.StartDocumentTextDetection(ctx, &textract.StartDocumentTextDetectionInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(p.bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		return nil, schema.NewError(schema.KindExtraction,
			fmt.Errorf("starting textract job: %w", err))
	}
	jobID := aws.ToString(start.JobId)
	logger.Info("Started textract job", zap.String("doc", doc.Stem), zap.String("jobId", jobID))

	state, err := p.poller.Wait(ctx, func(ctx context.Context) (JobState, error) {
		out, err := p.textract.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId: aws.String(jobID),
		})
		if err != nil {
			return JobInProgress, err
		}
		return jobStateOf(out.JobStatus), nil
	})
	if err != nil {
		return nil, err
	}

	if state == JobPartialSuccess {
		logger.Error("Textract job finished partially, keeping recovered pages",
			zap.String("doc", doc.Stem), zap.String("jobId", jobID))
	}

	return p.collect(ctx, doc, jobID)
}

// collect walks the paginated job result and assembles the canonical
// per-page texts and line coordinates, in page order.
func (p *TextractProvider) collect(ctx context.Context, doc *schema.Document, jobID string) (*schema.OCRResult, error) {
	pageLines := map[int][]string{}
	var coords []schema.Coordinate
	maxPage := doc.PageCount

	var nextToken *string
	for {
		out, err := p.textract.GetDocumentTextDetection(ctx, &textract.GetDocumentTextDetectionInput{
			JobId:     aws.String(jobID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, schema.NewError(schema.KindExtraction,
				fmt.Errorf("fetching textract results: %w", err))
		}

		for _, block := range out.Blocks {
			if block.BlockType != types.BlockTypeLine {
				continue
			}
			page := int(aws.ToInt32(block.Page)) - 1 // textract pages are 1-based
			if page < 0 {
				page = 0
			}
			if page+1 > maxPage {
				maxPage = page + 1
			}

			text := aws.ToString(block.Text)
			pageLines[page] = append(pageLines[page], text)

			if block.Geometry != nil && block.Geometry.BoundingBox != nil {
				bb := block.Geometry.BoundingBox
				coords = append(coords, schema.Coordinate{
					Text: text,
					BBox: [4]float64{float64(bb.Left), float64(bb.Top), float64(bb.Width), float64(bb.Height)},
					Page: page,
				})
			}
		}

		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}

	result := &schema.OCRResult{Coordinates: coords}
	for page := 0; page < maxPage; page++ {
		result.Pages = append(result.Pages, strings.Join(pageLines[page], "\n"))
	}
	return result, nil
}

// cleanup removes the staged object. Best effort: a leftover object never
// fails the document.
func (p *TextractProvider) cleanup(doc *schema.Document, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := p.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logger.Error("Failed to delete staged s3 object",
			zap.String("doc", doc.Stem), zap.String("key", key), zap.Error(err))
	}
}

func jobStateOf(status types.JobStatus) JobState {
	switch status {
	case types.JobStatusSucceeded:
		return JobSucceeded
	case types.JobStatusFailed:
		return JobFailed
	case types.JobStatusPartialSuccess:
		return JobPartialSuccess
	}
	return JobInProgress
}
