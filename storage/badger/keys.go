package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/secondbrain/core"
)

// Key prefixes for different data types.
// Every prefix ends with ':' so no prefix is a prefix of another.
const (
	messageRecordPrefix = "msgrec:"
	messageUserPrefix   = "msgusr:"
	unclassifiedPrefix  = "msguncl:"
	mediaScorePrefix    = "medsco:"
	vectorRecordPrefix  = "vecrec:"
)

// keySep separates variable-length components of index keys.
const keySep = 0x00

// makeMessageKey generates a key for a message by ID.
func makeMessageKey(id string) []byte {
	return []byte(messageRecordPrefix + id)
}

// makeUserIndexPrefix generates the index prefix for a user's messages,
// optionally narrowed to one category.
// Format: prefix:userID\x00[category\x00]
func makeUserIndexPrefix(userID string, category core.Category) []byte {
	buf := make([]byte, 0, len(messageUserPrefix)+len(userID)+len(category)+2)
	buf = append(buf, messageUserPrefix...)
	buf = append(buf, userID...)
	buf = append(buf, keySep)
	if category != core.CategoryUnset {
		buf = append(buf, category...)
		buf = append(buf, keySep)
	}
	return buf
}

// makeUserIndexKey generates a composite key for the per-user category index.
// Format: prefix:userID\x00category\x00timestamp(8, big endian)id
// Unclassified messages are indexed under an empty category.
func makeUserIndexKey(userID string, category core.Category, createdAt time.Time, id string) []byte {
	prefix := make([]byte, 0, len(messageUserPrefix)+len(userID)+len(category)+2)
	prefix = append(prefix, messageUserPrefix...)
	prefix = append(prefix, userID...)
	prefix = append(prefix, keySep)
	prefix = append(prefix, category...)
	prefix = append(prefix, keySep)

	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}

// makeUnclassifiedKey generates a key for the unclassified-message index.
func makeUnclassifiedKey(id string) []byte {
	return []byte(unclassifiedPrefix + id)
}

// makeMediaScoreKey generates a key for a message's media score.
func makeMediaScoreKey(messageID string) []byte {
	return []byte(mediaScorePrefix + messageID)
}

// makeVectorNamespacePrefix generates the fixed-width prefix shared by every
// record of a namespace.
// Format: prefix:digest(namespace)
func makeVectorNamespacePrefix(namespace string) []byte {
	buf := make([]byte, len(vectorRecordPrefix)+8)
	offset := copy(buf, vectorRecordPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(namespace)))
	return buf
}

// makeVectorKey generates a key for a record within a namespace.
// Format: prefix:digest(namespace)id
func makeVectorKey(namespace, id string) []byte {
	prefix := makeVectorNamespacePrefix(namespace)
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], id)
	return buf
}

// seekEnd returns a key that sorts after every key with the given prefix,
// for use as the starting point of a reverse iteration.
func seekEnd(prefix []byte) []byte {
	buf := make([]byte, len(prefix)+1)
	copy(buf, prefix)
	buf[len(prefix)] = 0xFF
	return buf
}
