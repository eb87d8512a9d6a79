package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ReportRecord is one ingested report owned by exactly one user.
type ReportRecord struct {
	// ID is a stable identifier assigned at ingestion.
	ID string

	// Seq is assigned by the store and strictly increases with insertion order.
	// The user's most recent report is the one with the highest Seq.
	Seq int64

	// User is the opaque identity of the owner.
	User string

	FileName string
	FileType string

	// ContentHash keys the report's chunks in the vector index.
	ContentHash string

	// RawText is the full extracted text. Immutable once written.
	RawText string

	// ParsedData is nil when structured extraction produced nothing.
	ParsedData *ParsedData

	// Symptoms is the last free-text query the user submitted.
	Symptoms string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContentHash returns the stable document key for a user's extracted text.
// The same text uploaded by two users yields two different keys.
func ContentHash(user, text string) string {
	h := sha256.New()
	h.Write([]byte(user))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// IngestResult describes the outcome of one ingestion.
type IngestResult struct {
	Record *ReportRecord

	// Chunks is the number of chunks written to the vector index.
	Chunks int

	// IndexOutcome reports whether the user metadata index had to be created.
	IndexOutcome IndexOutcome

	// Duplicate is true when an identical report already existed for the user
	// and nothing was re-written.
	Duplicate bool
}

// TrendPoint is one observation of a lab parameter across a user's reports.
type TrendPoint struct {
	Seq       int64
	ReportID  string
	FileName  string
	CreatedAt time.Time
	Value     float64
	Status    RangeStatus
}

// ParameterTrend is the series of values recorded for one parameter.
type ParameterTrend struct {
	Parameter LabParameter
	Points    []TrendPoint
}

// Latest returns the most recent point, or false if the series is empty.
func (t ParameterTrend) Latest() (TrendPoint, bool) {
	if len(t.Points) == 0 {
		return TrendPoint{}, false
	}
	return t.Points[len(t.Points)-1], true
}
