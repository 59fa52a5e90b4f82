// Package publish drives the client side of a document publish: it owns the
// per-document state machine fed by streamed pipeline events, the registry
// that guarantees one live operation per document, the polling fallback, and
// the cache-invalidation gate on terminal transitions.
package publish

// Stage is a named phase of the server-side publish pipeline.
type Stage string

// Pipeline stages as reported by streamed events. Connecting is synthetic:
// it is displayed between starting an operation and the first server frame.
const (
	StageConnecting Stage = "connecting"
	StageUploading  Stage = "uploading"
	StageParsing    Stage = "parsing"
	StageParsed     Stage = "parsed"
	StageChunking   Stage = "chunking"
	StageChunked    Stage = "chunked"
	StageEmbedding  Stage = "embedding"
	StageEmbedded   Stage = "embedded"
	StageAnalyzing  Stage = "analyzing"
	StagePublishing Stage = "publishing"
	StageConflicts  Stage = "conflicts_detected"
	StageComplete   Stage = "complete"
	StageError      Stage = "error"
)

// stageMessages maps each known stage to its display message.
var stageMessages = map[Stage]string{
	StageConnecting: "Connecting...",
	StageUploading:  "Uploading...",
	StageParsing:    "Parsing document...",
	StageParsed:     "Document parsed",
	StageChunking:   "Splitting into chunks...",
	StageChunked:    "Chunks created",
	StageEmbedding:  "Generating embeddings...",
	StageEmbedded:   "Embeddings generated",
	StageAnalyzing:  "Analyzing conflicts...",
	StagePublishing: "Publishing...",
	StageConflicts:  "Conflicts detected",
	StageComplete:   "Complete!",
	StageError:      "Error occurred",
}

// MessageFor returns the display message for a stage. Unknown stages get a
// generic message rather than an error: the server may grow new stages and
// old clients should keep rendering something sensible.
func MessageFor(stage Stage) string {
	if msg, ok := stageMessages[stage]; ok {
		return msg
	}
	return "Processing..."
}

// IsTerminal reports whether stage ends the operation. No events are applied
// to an operation after it reaches a terminal stage.
func (s Stage) IsTerminal() bool {
	return s == StageComplete || s == StageConflicts || s == StageError
}
