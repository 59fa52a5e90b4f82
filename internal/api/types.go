package api

// Document is a document descriptor as returned by the server.
type Document struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Status           string `json:"status"` // draft, pending_review, published, error
	CreatedAt        string `json:"created_at"`
	CurrentVersionID string `json:"current_version_id,omitempty"`
}

// Document status values persisted server-side. "processing" is a
// client-derived overlay only and never comes back from the server.
const (
	StatusDraft         = "draft"
	StatusProcessing    = "processing"
	StatusPendingReview = "pending_review"
	StatusPublished     = "published"
	StatusError         = "error"
)

// DocumentStatus is the aggregate returned by GET /documents/{id}/status.
type DocumentStatus struct {
	Document struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Status      string `json:"status"`
		CreatedAt   string `json:"created_at"`
		FileHash    string `json:"file_hash,omitempty"`
		EffectiveAt string `json:"effective_at,omitempty"`
	} `json:"document"`
	TotalChunks      int `json:"total_chunks"`
	TotalConflicts   int `json:"total_conflicts"`
	TotalDedupGroups int `json:"total_dedup_groups"`
}

// PublishEvent is one frame of the publish stream. Only Stage is required;
// every other field is optional and omitted fields stay at their zero value.
type PublishEvent struct {
	Stage               string   `json:"stage"`
	Message             string   `json:"message,omitempty"`
	Progress            *float64 `json:"progress,omitempty"`
	OK                  bool     `json:"ok,omitempty"`
	Error               string   `json:"error,omitempty"`
	ChunksCreated       int      `json:"chunks_created,omitempty"`
	ChunksEmbedded      int      `json:"chunks_embedded,omitempty"`
	ChunksProcessed     int      `json:"chunks_processed,omitempty"`
	TotalChunks         int      `json:"total_chunks,omitempty"`
	EstimatedTime       string   `json:"estimated_time,omitempty"`
	DuplicatesCount     int      `json:"duplicates_count,omitempty"`
	ContradictionsCount int      `json:"contradictions_count,omitempty"`
	RequiresReview      bool     `json:"requires_review,omitempty"`
	Published           bool     `json:"published,omitempty"`
	DocumentID          string   `json:"document_id,omitempty"`
}

// PublishResult is the summary returned by the blocking publish call.
type PublishResult struct {
	OK         bool   `json:"ok"`
	Processing bool   `json:"processing,omitempty"`
	Message    string `json:"message,omitempty"`
	Published  bool   `json:"published,omitempty"`
}

// Conflict is a detected contradiction or duplication between two chunks.
type Conflict struct {
	ID                string  `json:"id"`
	NewChunkID        string  `json:"new_chunk_id"`
	ExistingChunkID   string  `json:"existing_chunk_id"`
	Label             string  `json:"label"`
	Score             float64 `json:"score"`
	JudgedBy          string  `json:"judged_by"`
	NeighborSim       float64 `json:"neighbor_sim"`
	ResolutionAction  *string `json:"resolution_action"`
	NewChunkText      string  `json:"new_chunk_text"`
	ExistingChunkText string  `json:"existing_chunk_text"`
}

// Resolve actions accepted by the conflicts endpoints.
const (
	ResolveIgnore    = "ignore"
	ResolveSupersede = "supersede"
)

// ChatSession is a chat session descriptor.
type ChatSession struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ChatMessage is one message in a chat session.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"` // user, assistant, system
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// ChatSource attributes part of an assistant answer to a document chunk.
type ChatSource struct {
	DocumentName string `json:"document_name"`
	ChunkID      string `json:"chunk_id"`
}

// ChatExchange is the response to sending a message: the updated message
// list plus retrieval sources for the assistant's answer.
type ChatExchange struct {
	Messages []ChatMessage `json:"messages"`
	Sources  []ChatSource  `json:"sources,omitempty"`
}
