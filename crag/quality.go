package crag

import (
	"fmt"
	"strings"
)

// Quality is the assessor's verdict on whether the retrieved documents
// suffice to answer the question.
type Quality int

const (
	// QualityUnknown is the value before assessment has run.
	QualityUnknown Quality = iota
	// QualityCorrect means the documents fully answer the question.
	QualityCorrect
	// QualityAmbiguous means the documents hold partial information.
	QualityAmbiguous
	// QualityIncorrect means the documents do not answer the question.
	QualityIncorrect
)

// String returns the lower-case word the assessor uses for the level.
func (q Quality) String() string {
	switch q {
	case QualityUnknown:
		return "unknown"
	case QualityCorrect:
		return "correct"
	case QualityAmbiguous:
		return "ambiguous"
	case QualityIncorrect:
		return "incorrect"
	default:
		return fmt.Sprintf("quality(%d)", int(q))
	}
}

// Valid reports whether q is one of the three assessed levels.
func (q Quality) Valid() bool {
	switch q {
	case QualityCorrect, QualityAmbiguous, QualityIncorrect:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// ParseQuality maps a raw model response to a Quality.
//
// The response is lower-cased and trimmed. A response containing "correct"
// is QualityCorrect; otherwise one containing "incorrect" is
// QualityIncorrect; anything else is QualityAmbiguous. The "correct" check
// runs first, so "This is incorrect" parses as QualityCorrect.
func ParseQuality(response string) Quality {
	r := strings.ToLower(strings.TrimSpace(response))
	if strings.Contains(r, "correct") {
		return QualityCorrect
	}
	if strings.Contains(r, "incorrect") {
		return QualityIncorrect
	}
	return QualityAmbiguous
}
