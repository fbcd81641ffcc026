package extraction

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ErrNoFile is returned when an extraction was made from text only
var ErrNoFile = errors.New("extraction has no file")

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the pipeline and keeps a history of extractions
type Service struct {
	db          DB
	storage     Storage
	pipeline    *Pipeline
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUID IDs and the wall clock
func NewService(db DB, storage Storage, pipeline *Pipeline) *Service {
	return NewServiceWithDeps(db, storage, pipeline, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, pipeline *Pipeline, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		pipeline:    pipeline,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Demo runs the pipeline over DemoText without storing anything
func (s *Service) Demo(ctx context.Context) (*Result, error) {
	return s.pipeline.Run(ctx, Input{Mode: ModeText, Text: DemoText})
}

// Process runs the pipeline and stores the extraction with its uploaded file
func (s *Service) Process(ctx context.Context, in Input) (*Extraction, error) {
	result, err := s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, err
	}

	id := s.idGenerator.Generate()
	extraction := &Extraction{
		ID:        id,
		Mode:      in.Mode,
		Text:      in.Text,
		Result:    result,
		CreatedAt: s.timeSource.Now(),
	}

	if in.File != nil {
		savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(in.File.Name)), in.File.Data)
		if err != nil {
			return nil, fmt.Errorf("saving file: %w", err)
		}
		extraction.Filename = savedName
		extraction.ContentType = in.File.ContentType
	}

	if err := s.db.SaveExtraction(extraction); err != nil {
		if extraction.Filename != "" {
			s.storage.Delete(extraction.Filename)
		}
		return nil, fmt.Errorf("saving extraction to database: %w", err)
	}

	return extraction, nil
}

// GetExtraction retrieves an extraction by ID
func (s *Service) GetExtraction(id string) (*Extraction, error) {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return extraction, nil
}

// ListExtractions returns all extractions, newest first
func (s *Service) ListExtractions() ([]*Extraction, error) {
	extractions, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	slices.SortStableFunc(extractions, func(a, b *Extraction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return extractions, nil
}

// DeleteExtraction removes an extraction and its file
func (s *Service) DeleteExtraction(id string) error {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	if extraction.Filename != "" {
		if err := s.storage.Delete(extraction.Filename); err != nil {
			slog.Warn("Failed to delete file", "filename", extraction.Filename, "error", err)
		}
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction from database: %w", err)
	}
	return nil
}

// GetExtractionFile retrieves the uploaded document of an extraction
func (s *Service) GetExtractionFile(id string) ([]byte, string, error) {
	extraction, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction: %w", err)
	}
	if extraction.Filename == "" {
		return nil, "", ErrNoFile
	}

	data, err := s.storage.Get(extraction.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting extraction file: %w", err)
	}

	return data, extraction.ContentType, nil
}
