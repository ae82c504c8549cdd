package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ==================== JSONB TYPES ====================

type JSONB map[string]interface{}

// Value encodes the map for a jsonb column. Postgres jsonb cannot hold U+0000,
// so NUL characters in keys and strings are stored as U+FFFD.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(scrubNUL(map[string]interface{}(j)))
	if err != nil {
		return nil, fmt.Errorf("jsonb: %w", err)
	}
	return string(b), nil
}

func (j *JSONB) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb: cannot scan %T", src)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("jsonb: %w", err)
	}
	*j = m
	return nil
}

func scrubNUL(v interface{}) interface{} {
	switch x := v.(type) {
	case string:
		return strings.ReplaceAll(x, "\x00", "\uFFFD")
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[strings.ReplaceAll(k, "\x00", "\uFFFD")] = scrubNUL(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = scrubNUL(val)
		}
		return out
	}
	return v
}

// ==================== ENTITIES ====================

type RejectionReason string

const (
	RejectionDecodeFailed      RejectionReason = "decode_failed"
	RejectionUnrecognizedShape RejectionReason = "unrecognized_shape"
	RejectionInvalidHealth     RejectionReason = "invalid_health"
)

// RejectedFrame is a journal record of a frame that never reached the board.
type RejectedFrame struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	Source    string          `gorm:"size:64;not null" json:"source"`
	Reason    RejectionReason `gorm:"size:32;not null;index" json:"reason"`
	Detail    string          `gorm:"type:text" json:"detail,omitempty"`
	Raw       string          `gorm:"type:text" json:"raw"`
	// Payload is the decoded object for frames that parsed but were not
	// recognized; nil for decode failures.
	Payload JSONB `gorm:"type:jsonb" json:"payload,omitempty"`
}
