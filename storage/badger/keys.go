package badger

import "fmt"

// Key prefixes for the record families stored in a single BadgerDB keyspace.
// Chunk and procedure step keys embed a fixed-width, zero-padded ordinal so
// that lexicographic iteration yields records in their logical order.
const (
	documentPrefix  = "docrec:"
	chunkPrefix     = "chkrec:"
	vectorPrefix    = "vecrec:"
	factPrefix      = "gfact:"
	procedurePrefix = "pstep:"
)

func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

func makeChunkKey(documentID string, index int) []byte {
	return []byte(fmt.Sprintf("%s%s:%010d", chunkPrefix, documentID, index))
}

func makeChunkScanPrefix(documentID string) []byte {
	return []byte(chunkPrefix + documentID + ":")
}

func makeVectorKey(id string) []byte {
	return []byte(vectorPrefix + id)
}

func makeFactKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", factPrefix, id))
}

func makeProcedureKey(procedure string, order int) []byte {
	return []byte(fmt.Sprintf("%s%s:%06d", procedurePrefix, procedure, order))
}

func makeProcedureScanPrefix(procedure string) []byte {
	return []byte(procedurePrefix + procedure + ":")
}
