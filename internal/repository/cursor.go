package repository

import (
	"encoding/base64"
	"strings"
	"time"

	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
)

// Cursor is an opaque pagination position. It pairs the message timestamp
// with the message id as a tie-break so rows sharing a timestamp are never
// skipped or duplicated across pages.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

func EncodeCursor(c Cursor) string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an encoded cursor. An empty token means "start from
// the newest message" and yields a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, sensasi_errors.ErrInvalidInput
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, sensasi_errors.ErrInvalidInput
	}
	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, sensasi_errors.ErrInvalidInput
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, sensasi_errors.ErrInvalidInput
	}
	return &Cursor{CreatedAt: at, ID: id}, nil
}
