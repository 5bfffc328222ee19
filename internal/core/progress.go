package core

// Progress receives advancement updates for one long-running unit of work
// (a download, an extraction, an upload). The core depends only on this
// interface; terminal rendering lives outside the package.
type Progress interface {
	// SetTotal declares the total number of units (bytes or entries).
	SetTotal(n int64)
	// Advance adds n completed units.
	Advance(n int64)
	// Finish marks the work complete regardless of units reported.
	Finish()
}

// ProgressMaker hands out a Progress per batch item, keyed by label. A batch
// of one typically gets a detailed single view; larger batches get a
// multiplexed view. That choice belongs to the implementation.
type ProgressMaker interface {
	NewProgress(label string) Progress
}

// NopProgress discards all updates. Tests and quiet modes use it.
type NopProgress struct{}

func (NopProgress) SetTotal(int64) {}
func (NopProgress) Advance(int64)  {}
func (NopProgress) Finish()        {}

// NopProgressMaker hands out NopProgress for every item.
type NopProgressMaker struct{}

// NewProgress returns a no-op Progress.
func (NopProgressMaker) NewProgress(string) Progress { return NopProgress{} }
