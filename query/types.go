package query

import (
	"fmt"
	"strings"
	"time"
)

// Intent selects the tutoring style of the generated answer.
type Intent string

const (
	IntentGeneral    Intent = "general"
	IntentProcedural Intent = "procedural"
	IntentAssessment Intent = "assessment"
)

// ParseIntent parses an intent from its string form (case-insensitive).
// An empty string parses to IntentGeneral.
func ParseIntent(s string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return IntentGeneral, nil
	case IntentGeneral:
		return IntentGeneral, nil
	case IntentProcedural:
		return IntentProcedural, nil
	case IntentAssessment:
		return IntentAssessment, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownIntent, s)
	}
}

// Request bounds for MaxResults.
const (
	defaultMaxResults = 5
	maxMaxResults     = 20
)

// Request is one question put to the engine.
type Request struct {
	// Question is the natural-language question. Required.
	Question string `json:"question"`

	// Intent selects the answer style. Defaults to IntentGeneral.
	Intent Intent `json:"intent,omitempty"`

	// Subject restricts vector retrieval to chunks from documents tagged
	// with this subject. Empty means unrestricted.
	Subject string `json:"subject,omitempty"`

	// MaxResults caps the hits requested from each retrieval source.
	// Defaults to 5, capped at 20.
	MaxResults int `json:"max_results,omitempty"`
}

// Source records the provenance of one piece of retrieved context.
type Source struct {
	Type           string  `json:"type"` // "document" or "knowledge_graph"
	DocumentID     string  `json:"document_id,omitempty"`
	ChunkID        string  `json:"chunk_id,omitempty"`
	NodeInfo       string  `json:"node_info,omitempty"`
	Relationship   string  `json:"relationship,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Response is the engine's answer to a Request.
type Response struct {
	Answer         string        `json:"answer"`
	Confidence     float64       `json:"confidence"`
	Sources        []Source      `json:"sources"`
	Intent         Intent        `json:"intent"`
	ProcessingTime time.Duration `json:"processing_time"`
}
