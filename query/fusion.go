package query

import (
	"fmt"
	"strings"

	"github.com/arlearn/corpus/core"
)

// Context fusion caps. Retrieval may return more results than fit a prompt
// sensibly; only the closest few from each source are fused.
const (
	maxContextExcerpts = 3
	maxContextFacts    = 3

	documentSectionHeader  = "=== DOCUMENT EXCERPTS ==="
	knowledgeSectionHeader = "=== STRUCTURED KNOWLEDGE ==="
)

// BuildContext fuses vector hits and graph facts into a single labeled
// context block for the generation prompt. Sections for empty sources are
// omitted entirely; both sources empty yields an empty string.
func BuildContext(hits []core.VectorHit, facts []core.GraphFact) string {
	var parts []string

	if len(hits) > 0 {
		parts = append(parts, documentSectionHeader)
		for i, hit := range hits {
			if i >= maxContextExcerpts {
				break
			}
			docID := hit.Metadata["document_id"]
			if docID == "" {
				docID = "unknown"
			}
			parts = append(parts, fmt.Sprintf("[Document %s]: %s", docID, hit.Content))
		}
	}

	kept := 0
	for _, fact := range facts {
		if kept >= maxContextFacts {
			break
		}
		// facts missing a node or relationship carry no usable statement
		if fact.Node == "" || fact.Relationship == "" {
			continue
		}
		if kept == 0 {
			parts = append(parts, "\n"+knowledgeSectionHeader)
		}
		parts = append(parts, fmt.Sprintf("Fact: %s %s %s", fact.Node, fact.Relationship, fact.ConnectedNode))
		kept++
	}

	return strings.Join(parts, "\n")
}

// buildSources records the provenance of every retrieved result, not just
// the ones that fit into the fused context.
func buildSources(hits []core.VectorHit, facts []core.GraphFact) []Source {
	sources := make([]Source, 0, len(hits)+len(facts))

	for _, hit := range hits {
		sources = append(sources, Source{
			Type:           "document",
			DocumentID:     hit.Metadata["document_id"],
			ChunkID:        hit.ChunkID,
			RelevanceScore: 1.0 - hit.Distance,
		})
	}

	for _, fact := range facts {
		sources = append(sources, Source{
			Type:           "knowledge_graph",
			NodeInfo:       fact.Node,
			Relationship:   fact.Relationship,
			RelevanceScore: 0.8, // fixed score for graph results
		})
	}

	return sources
}
