package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// MaxTextLen is the maximum allowed message text length, enforced before
// any write reaches the store.
const MaxTextLen = 1000

// MessageStatus is the lifecycle state of a message. The only legal
// transition is Queued -> Answered.
type MessageStatus string

const (
	// StatusQueued marks a message awaiting staff review.
	StatusQueued MessageStatus = "Queued"
	// StatusAnswered marks a message that has received (or been marked as
	// having received) a staff response.
	StatusAnswered MessageStatus = "Answered"
)

func (s MessageStatus) Valid() bool {
	return s == StatusQueued || s == StatusAnswered
}

func (s MessageStatus) String() string { return string(s) }

// ParseMessageStatus converts a raw string into a MessageStatus, rejecting
// unknown values.
func ParseMessageStatus(v string) (MessageStatus, error) {
	status := MessageStatus(v)
	if !status.Valid() {
		return "", fmt.Errorf("unknown message status %q", v)
	}
	return status, nil
}

func (s *MessageStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		status, err := ParseMessageStatus(v)
		if err != nil {
			return err
		}
		*s = status
		return nil
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into MessageStatus", src)
	}
}

func (s MessageStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown message status %q", string(s))
	}
	return string(s), nil
}

// Message is a stored text message. Author is always the client whose
// thread the message belongs to; FromStaff marks staff replies directed at
// that client. IDs are assigned by the store and reflect insertion order.
//
// The JSON field names follow the wire format of the polling API.
type Message struct {
	ID        int64         `db:"id" json:"message_id"`
	Author    string        `db:"author_name" json:"user"`
	Text      string        `db:"message" json:"message_text"`
	Status    MessageStatus `db:"status" json:"status"`
	SentAt    time.Time     `db:"sent_at" json:"sent_date"`
	FromStaff bool          `db:"from_staff" json:"is_doc"`
}
