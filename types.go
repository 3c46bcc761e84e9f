package walcache

import (
	"github.com/hupe1980/walcache/internal/logcache"
	"github.com/hupe1980/walcache/internal/wal"
)

// Compression selects how cached payloads are held in memory.
type Compression = logcache.Compression

const (
	CompressionNone = logcache.CompressionNone
	CompressionLZ4  = logcache.CompressionLZ4
	CompressionZSTD = logcache.CompressionZSTD
)

// InsertOutcome classifies what happened to bytes offered to the cache.
type InsertOutcome = logcache.InsertOutcome

const (
	Inserted          = logcache.Inserted
	RejectedDisabled  = logcache.RejectedDisabled
	RejectedEmpty     = logcache.RejectedEmpty
	RejectedInvalid   = logcache.RejectedInvalid
	RejectedContained = logcache.RejectedContained
	RejectedDuplicate = logcache.RejectedDuplicate
	RejectedMemory    = logcache.RejectedMemory
)

// InsertResult describes what the cache did with offered bytes.
type InsertResult = logcache.InsertResult

// Range describes one cached byte range.
type Range = logcache.Range

// InvariantError carries the diagnostic dump of an internal cache fault.
type InvariantError = logcache.InvariantError

// Durability controls when Writer.Append returns.
type Durability = wal.Durability

const (
	DurabilityAsync = wal.DurabilityAsync
	DurabilitySync  = wal.DurabilitySync
)

// WriterOptions configures the log file written by a Writer.
type WriterOptions = wal.Options

// FirstFrameOffset is the offset of the first frame in a log written by Writer.
const FirstFrameOffset = wal.HeaderSize
