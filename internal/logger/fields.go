package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the model provider name.
	FieldProvider = "provider"
	// FieldModel is the structured log field key for the model identifier.
	FieldModel = "model"
	// FieldStrategy names the similarity strategy in use.
	FieldStrategy = "similarity_strategy"

	FieldJob       = "job_id"
	FieldCandidate = "candidate_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// ModelFields describe a model provider and model. Empty values are skipped.
func ModelFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithModel attaches the provider and model fields to the logger.
func WithModel(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, ModelFields(provider, model)...)
}

// WithScreening scopes a logger to a job and, optionally, a candidate.
func WithScreening(logger *zap.Logger, jobID, candidateID string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldJob, Value: jobID},
		StringField{Key: FieldCandidate, Value: candidateID},
	)...)
}
