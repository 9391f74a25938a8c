package worker

import (
	"context"
	"encoding/json"
	"path/filepath"

	"sjsage522/partsworker/internal/crawler"
	"sjsage522/partsworker/internal/export"
	"sjsage522/partsworker/internal/store"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/services/publisher"
)

// StoreSink upserts records into the parts database
type StoreSink struct {
	Store *store.SQLiteStore
}

func (s *StoreSink) Name() string { return "sqlite" }

func (s *StoreSink) Consume(ctx context.Context, result *Result) error {
	inserted, err := s.Store.SaveAll(ctx, result.Search.Plate, result.Search.Part, result.Records)
	if err != nil {
		return err
	}

	logger.ForStore().Info().
		Str("plate", result.Search.Plate).
		Str("part", result.Search.Part).
		Int("records", len(result.Records)).
		Int("new", inserted).
		Msg("Parts saved")
	return nil
}

// JSONSink writes the result document to Path, or to a generated name in Dir
type JSONSink struct {
	Dir  string
	Path string

	written string
}

func (s *JSONSink) Name() string { return "json" }

func (s *JSONSink) Consume(ctx context.Context, result *Result) error {
	path := s.Path
	if path == "" {
		path = filepath.Join(s.Dir, export.FileName(result.Search.Plate, result.Search.Part, result.StartedAt))
	}

	if err := result.Document().WriteFile(path); err != nil {
		return err
	}
	s.written = path
	return nil
}

// Written returns the path of the last file written
func (s *JSONSink) Written() string {
	return s.written
}

// StreamMessageKey is the stream entry field holding a base64 part message
const StreamMessageKey = "b64_part"

// StreamMessage is what StreamSink publishes per record
type StreamMessage struct {
	Plate     string             `json:"license_plate"`
	Part      string             `json:"part_name"`
	ModelType string             `json:"modeltype"`
	Record    crawler.PartRecord `json:"record"`
}

// StreamSink publishes every record to the Redis streams and trims them afterwards
type StreamSink struct {
	Publisher publisher.Publisher
}

func (s *StreamSink) Name() string { return "redis" }

func (s *StreamSink) Consume(ctx context.Context, result *Result) error {
	for _, record := range result.Records {
		data, err := json.Marshal(StreamMessage{
			Plate:     result.Search.Plate,
			Part:      result.Search.Part,
			ModelType: result.Vehicle.ModelType,
			Record:    record,
		})
		if err != nil {
			return err
		}

		if err := s.Publisher.Publish(ctx, StreamMessageKey, data); err != nil {
			return err
		}
	}

	return s.Publisher.TrimStreams(ctx)
}
