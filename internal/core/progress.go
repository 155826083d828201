package core

// ScanEvent is emitted by the matcher once per scanned document.
type ScanEvent struct {
	Scanned    int    `json:"scanned"`
	DocumentID string `json:"document_id"`
}

// Progress is an immutable snapshot of scan progress.
// Advance returns a new snapshot; the receiver is never modified.
type Progress struct {
	Scanned int
	Total   int
	Last    string // id of the last scanned document
}

// NewProgress returns an empty snapshot sized for total documents.
// A total of zero (or less) is complete from the start.
func NewProgress(total int) Progress {
	if total < 0 {
		total = 0
	}
	return Progress{Total: total}
}

// Advance folds ev into a new snapshot. The count never exceeds Total and
// never goes backwards, so extra or out-of-order events are harmless.
func (p Progress) Advance(ev ScanEvent) Progress {
	next := p.Scanned + 1
	if ev.Scanned > next {
		next = ev.Scanned
	}
	if next > p.Total {
		next = p.Total
	}
	return Progress{Scanned: next, Total: p.Total, Last: ev.DocumentID}
}

// IsComplete reports whether every expected document has been scanned.
func (p Progress) IsComplete() bool {
	return p.Scanned >= p.Total
}

// Fraction returns progress in [0, 1] for display.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Scanned) / float64(p.Total)
}
