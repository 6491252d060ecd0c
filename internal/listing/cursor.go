package listing

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/charter-booking/internal/model"
)

// Cursor is the decoded form of the opaque pagination token: the sort field
// and the last value returned on the previous page.  ID is the id of that
// last row; it breaks ties when several rows share the sort value.
type Cursor struct {
	Field SortField `json:"field"`
	Value string    `json:"value"`
	ID    string    `json:"id,omitempty"`
}

// EncodeCursor renders c as URL-safe base64 of its JSON form.
func EncodeCursor(c Cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by EncodeCursor.  Standard padded
// base64 is accepted too.
func DecodeCursor(token string) (Cursor, error) {
	var c Cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		raw, err = base64.StdEncoding.DecodeString(token)
		if err != nil {
			return c, errors.New("malformed cursor")
		}
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, errors.New("malformed cursor")
	}
	if !c.Field.Valid() {
		return c, fmt.Errorf("unsupported cursor field %q", c.Field)
	}
	if c.Field.IsTime() {
		if _, err := c.Time(); err != nil {
			return c, errors.New("malformed cursor value")
		}
	}
	return c, nil
}

// Time parses the value of a timestamp cursor.
func (c Cursor) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.Value)
}

// SortValue returns the cursor representation of b's value for field.
func SortValue(b model.Booking, field SortField) string {
	switch field {
	case SortGuestName:
		return b.GuestName
	case SortStatus:
		return string(b.Status)
	case SortCreatedAt:
		return b.CreatedAt.UTC().Format(time.RFC3339Nano)
	default:
		return b.ScheduledStart.UTC().Format(time.RFC3339Nano)
	}
}

// CursorAfter builds the cursor that continues after b.
func CursorAfter(b model.Booking, field SortField) Cursor {
	return Cursor{Field: field, Value: SortValue(b, field), ID: b.ID}
}
