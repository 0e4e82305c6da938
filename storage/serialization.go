package storage

import (
	"encoding/json"
	"fmt"

	"github.com/arlearn/corpus/core"
)

// Stored values are JSON. Record shapes here change rarely and JSON keeps
// the on-disk values debuggable with standard tooling.

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s: %v", ErrSerializationFailed, doc.ID, err)
	}
	return data, nil
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: document: %v", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) ([]byte, error) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %s: %v", ErrSerializationFailed, chunk.ID, err)
	}
	return data, nil
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	var chunk core.Chunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("%w: chunk: %v", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalVectorEntry serializes a VectorEntry to bytes.
func MarshalVectorEntry(entry *VectorEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: vector entry %s: %v", ErrSerializationFailed, entry.ID, err)
	}
	return data, nil
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (*VectorEntry, error) {
	var entry VectorEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: vector entry: %v", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalGraphFact serializes a GraphFact to bytes.
func MarshalGraphFact(fact *core.GraphFact) ([]byte, error) {
	data, err := json.Marshal(fact)
	if err != nil {
		return nil, fmt.Errorf("%w: graph fact: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalGraphFact deserializes a GraphFact from bytes.
func UnmarshalGraphFact(data []byte) (*core.GraphFact, error) {
	var fact core.GraphFact
	if err := json.Unmarshal(data, &fact); err != nil {
		return nil, fmt.Errorf("%w: graph fact: %v", ErrSerializationFailed, err)
	}
	return &fact, nil
}

// MarshalProcedureStep serializes a ProcedureStep to bytes.
func MarshalProcedureStep(step *core.ProcedureStep) ([]byte, error) {
	data, err := json.Marshal(step)
	if err != nil {
		return nil, fmt.Errorf("%w: procedure step: %v", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalProcedureStep deserializes a ProcedureStep from bytes.
func UnmarshalProcedureStep(data []byte) (*core.ProcedureStep, error) {
	var step core.ProcedureStep
	if err := json.Unmarshal(data, &step); err != nil {
		return nil, fmt.Errorf("%w: procedure step: %v", ErrSerializationFailed, err)
	}
	return &step, nil
}
