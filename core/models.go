package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a fixed-width digest used to key derived records.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Message is a single journal entry written by a user.
// Category and Mood stay unset until the message has been enriched.
type Message struct {
	ID        string
	UserID    string
	Content   string
	Category  Category
	Mood      Mood
	Summary   *string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Classified reports whether the message has been through enrichment.
func (m *Message) Classified() bool {
	return m.Category != CategoryUnset
}

// Classification is the normalized result of classifying a message.
type Classification struct {
	Category Category
	Mood     Mood
	Summary  string
}

// MediaScore is the opinion assessment attached to a MEDIA message.
// There is at most one per message; re-scoring replaces it.
type MediaScore struct {
	MessageID   string
	Boldness    Boldness
	Explanation *string
	Confidence  *int
	ScoredAt    time.Time
}

// Metadata keys carried by indexed message vectors.
const (
	MetadataContent = "content"
	MetadataUserID  = "userId"
)

// VectorRecord is one embedding stored in a vector-store namespace.
type VectorRecord struct {
	ID        string
	Namespace string
	Vector    []float32
	Metadata  map[string]string
}

// NamespaceFor returns the vector-store namespace holding a message's embedding.
func NamespaceFor(userID, messageID string) string {
	return userID + "_" + messageID
}

// UserNamespacePrefix returns the prefix shared by every namespace of a user.
func UserNamespacePrefix(userID string) string {
	return userID + "_"
}

// SearchResult represents a search result with the full record and relevance score.
type SearchResult struct {
	Record *VectorRecord
	Score  float32
}
