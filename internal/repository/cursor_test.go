package repository

import (
	"encoding/base64"
	"testing"
	"time"

	sensasi_errors "sensasi-chat/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC),
		ID:        uuid.New(),
	}

	got, err := DecodeCursor(EncodeCursor(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestCursorRoundTripNonUTC(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	want := Cursor{
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, loc),
		ID:        uuid.New(),
	}

	got, err := DecodeCursor(EncodeCursor(want))
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt), "encoding normalizes to UTC but keeps the instant")
}

func TestDecodeCursorEmpty(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c, "empty token means start from the newest message")
}

func TestDecodeCursorInvalid(t *testing.T) {
	cases := map[string]string{
		"not base64":      "%%%",
		"missing divider": base64.URLEncoding.EncodeToString([]byte("2026-01-02T03:04:05Z")),
		"bad timestamp":   base64.URLEncoding.EncodeToString([]byte("yesterday|" + uuid.NewString())),
		"bad id":          base64.URLEncoding.EncodeToString([]byte("2026-01-02T03:04:05Z|not-a-uuid")),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCursor(token)
			assert.ErrorIs(t, err, sensasi_errors.ErrInvalidInput)
		})
	}
}
