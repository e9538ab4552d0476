package domain

import "errors"

var (
	// ErrInvalidInput marks an unrecoverable caller mistake such as an empty
	// question.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoEmbeddingsAvailable means the document has no embedded chunks in
	// either field. Recoverable: callers should fall back to whole-document
	// context instead of RAG retrieval.
	ErrNoEmbeddingsAvailable = errors.New("no embeddings available")

	// ErrEmbeddingServiceFailure means the query could not be embedded.
	// Propagates with no partial result.
	ErrEmbeddingServiceFailure = errors.New("embedding service failure")

	// ErrRetrievalTimeout means an external call (vector lookup or adjacency
	// fetch) exceeded the caller-supplied deadline.
	ErrRetrievalTimeout = errors.New("retrieval timeout")
)

// RetrievalMode distinguishes how a document's context will be served.
type RetrievalMode int

const (
	// ModeRag serves ranked chunk excerpts from the retrieval pipeline.
	ModeRag RetrievalMode = iota
	// ModeFulltextFallback serves whole-document context because the chunk
	// store has no usable embeddings.
	ModeFulltextFallback
)

func (m RetrievalMode) String() string {
	if m == ModeFulltextFallback {
		return "fulltext_fallback"
	}
	return "rag"
}
