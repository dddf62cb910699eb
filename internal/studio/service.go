package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelsmith/internal/config"
	"reelsmith/internal/history"
	"reelsmith/internal/logging"
	"reelsmith/internal/serializer"
	"reelsmith/internal/services/genai"
	"reelsmith/internal/sheetlog"
)

// ErrInvalidInput marks request validation failures. They are rejected
// before a history record is created or a queue slot consumed.
var ErrInvalidInput = errors.New("invalid input")

// OperationError wraps an upstream failure with the request id and the
// user-facing category.
type OperationError struct {
	RequestID string
	Category  genai.Category
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("request %s failed (%s): %v", e.RequestID, e.Category, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// Generator is the upstream surface the studio needs. *genai.Client
// satisfies it.
type Generator interface {
	CompleteJSON(ctx context.Context, system, user string, out any) error
	GenerateImage(ctx context.Context, prompt string) (*genai.Image, error)
	Model() string
}

// Service coordinates generation requests through the serializer.
type Service struct {
	cfg    *config.Config
	gen    Generator
	store  *history.Store
	sheets sheetlog.Service
	queue  *serializer.Serializer
	logger *slog.Logger
}

// NewService wires the studio together. The logger may be nil.
func NewService(cfg *config.Config, gen Generator, store *history.Store, sheets sheetlog.Service, queue *serializer.Serializer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		cfg:    cfg,
		gen:    gen,
		store:  store,
		sheets: sheets,
		queue:  queue,
		logger: logging.WithComponent(logger, "studio"),
	}
}

var titleCaser = cases.Title(language.English)

// normalizeTitle title-cases replies that came back entirely lowercase
// and leaves everything else alone, so acronyms survive.
func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value != "" && value == strings.ToLower(value) {
		return titleCaser.String(value)
	}
	return value
}

// BrainstormIdeas generates short-video concepts for a topic.
func (s *Service) BrainstormIdeas(ctx context.Context, req IdeaRequest) (*IdeaSet, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if req.Count <= 0 {
		req.Count = 5
	}
	if req.Count > 10 {
		req.Count = 10
	}

	var set IdeaSet
	record, err := s.run(ctx, history.KindIdea, req.Topic, func(qctx context.Context) (string, string, error) {
		var payload struct {
			Ideas []Idea `json:"ideas"`
		}
		if err := s.gen.CompleteJSON(qctx, systemIdeas, ideaPrompt(req), &payload); err != nil {
			return "", "", err
		}
		if len(payload.Ideas) == 0 {
			return "", "", &genai.UpstreamError{Category: genai.CategoryMalformed, Message: "reply contained no ideas"}
		}
		for i := range payload.Ideas {
			payload.Ideas[i].Title = normalizeTitle(payload.Ideas[i].Title)
		}
		set.Topic = req.Topic
		set.Ideas = payload.Ideas
		return marshalResult(set)
	})
	if err != nil {
		return nil, err
	}
	set.RequestID = record.ID
	return &set, nil
}

// DraftScript writes a full script for one idea.
func (s *Service) DraftScript(ctx context.Context, req ScriptRequest) (*Script, error) {
	req.Idea = strings.TrimSpace(req.Idea)
	if req.Idea == "" {
		return nil, fmt.Errorf("%w: idea is required", ErrInvalidInput)
	}
	if req.DurationSeconds <= 0 {
		req.DurationSeconds = 60
	}

	var script Script
	record, err := s.run(ctx, history.KindScript, req.Idea, func(qctx context.Context) (string, string, error) {
		if err := s.gen.CompleteJSON(qctx, systemScript, scriptPrompt(req), &script); err != nil {
			return "", "", err
		}
		if len(script.Scenes) == 0 {
			return "", "", &genai.UpstreamError{Category: genai.CategoryMalformed, Message: "reply contained no scenes"}
		}
		script.Title = normalizeTitle(script.Title)
		return marshalResult(script)
	})
	if err != nil {
		return nil, err
	}
	script.RequestID = record.ID
	return &script, nil
}

// GenerateImage produces one still image and stores it under the
// assets directory.
func (s *Service) GenerateImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	var asset ImageAsset
	record, err := s.run(ctx, history.KindImage, req.Prompt, func(qctx context.Context) (string, string, error) {
		image, err := s.gen.GenerateImage(qctx, imagePrompt(req))
		if err != nil {
			return "", "", err
		}
		path, err := s.saveAsset(image)
		if err != nil {
			return "", "", err
		}
		asset = ImageAsset{Path: path, MIME: image.MIME, Bytes: len(image.Data)}
		resultJSON, _, err := marshalResult(asset)
		return resultJSON, path, err
	})
	if err != nil {
		return nil, err
	}
	asset.RequestID = record.ID
	return &asset, nil
}

// AssessMedia critiques a described piece of media.
func (s *Service) AssessMedia(ctx context.Context, req AssessmentRequest) (*Assessment, error) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	var assessment Assessment
	record, err := s.run(ctx, history.KindAssessment, req.Description, func(qctx context.Context) (string, string, error) {
		if err := s.gen.CompleteJSON(qctx, systemAssessment, assessmentPrompt(req), &assessment); err != nil {
			return "", "", err
		}
		if assessment.Score < 1 || assessment.Score > 10 {
			return "", "", &genai.UpstreamError{Category: genai.CategoryMalformed, Message: fmt.Sprintf("score %d out of range", assessment.Score)}
		}
		return marshalResult(assessment)
	})
	if err != nil {
		return nil, err
	}
	assessment.RequestID = record.ID
	return &assessment, nil
}

// PlanEdit produces an assembly plan for a script and asset list.
func (s *Service) PlanEdit(ctx context.Context, req EditPlanRequest) (*EditPlan, error) {
	req.Script = strings.TrimSpace(req.Script)
	if req.Script == "" {
		return nil, fmt.Errorf("%w: script is required", ErrInvalidInput)
	}

	var plan EditPlan
	record, err := s.run(ctx, history.KindPlan, req.Script, func(qctx context.Context) (string, string, error) {
		if err := s.gen.CompleteJSON(qctx, systemPlan, planPrompt(req), &plan); err != nil {
			return "", "", err
		}
		if len(plan.Steps) == 0 {
			return "", "", &genai.UpstreamError{Category: genai.CategoryMalformed, Message: "reply contained no steps"}
		}
		return marshalResult(plan)
	})
	if err != nil {
		return nil, err
	}
	plan.RequestID = record.ID
	return &plan, nil
}

// QueueDepth reports how many requests are waiting behind the cooldown.
func (s *Service) QueueDepth() int { return s.queue.Len() }

// Busy reports whether a request is executing or cooling down.
func (s *Service) Busy() bool { return s.queue.Busy() }

// run persists a pending record, enqueues the upstream call, and blocks
// until it settles. If the caller gives up first the queued call still
// runs and the record still reaches a terminal state.
func (s *Service) run(ctx context.Context, kind history.Kind, prompt string, work func(context.Context) (string, string, error)) (*history.Record, error) {
	record, err := s.store.Create(ctx, kind, summarize(prompt), s.gen.Model())
	if err != nil {
		return nil, fmt.Errorf("record request: %w", err)
	}

	done := make(chan error, 1)
	s.queue.Enqueue(string(kind)+" "+record.ID, func(qctx context.Context) error {
		if err := s.store.MarkRunning(qctx, record.ID); err != nil {
			s.logger.Warn("mark running failed",
				logging.String(logging.FieldRequestID, record.ID), logging.Error(err))
		}
		started := time.Now()
		resultJSON, assetPath, workErr := work(qctx)
		elapsed := time.Since(started)
		if workErr != nil {
			category := genai.Classify(workErr)
			if err := s.store.MarkFailed(qctx, record.ID, string(category), workErr.Error(), elapsed); err != nil {
				s.logger.Warn("mark failed failed",
					logging.String(logging.FieldRequestID, record.ID), logging.Error(err))
			}
		} else if err := s.store.MarkCompleted(qctx, record.ID, resultJSON, assetPath, elapsed); err != nil {
			s.logger.Warn("mark completed failed",
				logging.String(logging.FieldRequestID, record.ID), logging.Error(err))
		}
		s.logOutcome(record.ID)
		done <- workErr
		return workErr
	})

	select {
	case workErr := <-done:
		if workErr != nil {
			return record, &OperationError{RequestID: record.ID, Category: genai.Classify(workErr), Err: workErr}
		}
		return record, nil
	case <-ctx.Done():
		// The queued call keeps its slot; only the wait is abandoned.
		return record, &OperationError{RequestID: record.ID, Category: genai.Classify(ctx.Err()), Err: ctx.Err()}
	}
}

// logOutcome mirrors the terminal record to the sheet log, best effort.
func (s *Service) logOutcome(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	record, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn("load record for sheet log failed",
			logging.String(logging.FieldRequestID, id), logging.Error(err))
		return
	}
	if err := s.sheets.LogOutcome(ctx, record); err != nil {
		s.logger.Warn("sheet log failed",
			logging.String(logging.FieldRequestID, id), logging.Error(err))
	}
}

func (s *Service) saveAsset(image *genai.Image) (string, error) {
	if err := os.MkdirAll(s.cfg.Paths.AssetsDir, 0o755); err != nil {
		return "", fmt.Errorf("create assets dir: %w", err)
	}
	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), extensionForMIME(image.MIME))
	path := filepath.Join(s.cfg.Paths.AssetsDir, name)
	if err := os.WriteFile(path, image.Data, 0o644); err != nil {
		return "", fmt.Errorf("write asset: %w", err)
	}
	return path, nil
}

func extensionForMIME(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func marshalResult(value any) (string, string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", "", fmt.Errorf("marshal result: %w", err)
	}
	return string(raw), "", nil
}

func summarize(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	const limit = 280
	if len(prompt) > limit {
		return prompt[:limit] + "..."
	}
	return prompt
}
