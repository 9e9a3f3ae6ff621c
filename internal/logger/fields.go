package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldClientID is the structured log field key for the durable client id.
	FieldClientID = "client_id"
	// FieldSessionID is the structured log field key for the per-session id.
	FieldSessionID = "session_id"
	// FieldResponseID is the structured log field key for the thread-continuation id.
	FieldResponseID = "previous_response_id"
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
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SessionFields returns the fields identifying a chat session.
func SessionFields(clientID, sessionID string) []zap.Field {
	return StringFields(
		StringField{Key: FieldClientID, Value: clientID},
		StringField{Key: FieldSessionID, Value: sessionID},
	)
}

// WithSession attaches the session identity to the provided logger.
func WithSession(logger *zap.Logger, clientID, sessionID string) *zap.Logger {
	return WithFields(logger, SessionFields(clientID, sessionID)...)
}
