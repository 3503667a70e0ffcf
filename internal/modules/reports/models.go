package reports

import (
	"encoding/json"
	"time"
)

// StoredReport is a persisted analysis report row
type StoredReport struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Version        string          `json:"version"`
	Recommendation string          `json:"recommendation"`
	Confidence     float64         `json:"confidence"`
	Coherence      float64         `json:"coherence"`
	Payload        json.RawMessage `json:"payload"` // Full report document
}
