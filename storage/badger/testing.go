package badger

// NewMemoryStores creates an in-memory backend with a document repository,
// vector index, and graph store on top of it, for tests. The caller owns
// the backend and must close it.
func NewMemoryStores() (*Backend, *DocumentRepository, *VectorIndex, *GraphStore, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return backend, NewDocumentRepository(backend), NewVectorIndex(backend), NewGraphStore(backend), nil
}
