package engine

import (
	"time"

	"github.com/dm/fleetmon/internal/model"
)

// SyncState maintains a local mirror of one history stream using incremental
// fetches. The cursor is the timestamp of the newest point ever received;
// each poll asks the server only for points strictly after it, and the merge
// drops anything already present, so overlapping responses after a
// reconnect cannot duplicate points.
type SyncState struct {
	series *model.Series
	cursor time.Time
}

// NewSyncState starts with an empty mirror and a zero cursor, which makes the
// first fetch a full backfill of the retained stream.
func NewSyncState() *SyncState {
	return &SyncState{series: model.NewSeries(nil)}
}

// Cursor returns the timestamp to pass as the next fetch's "since".
func (s *SyncState) Cursor() time.Time {
	return s.cursor
}

// Merge folds one fetch response into the mirror and advances the cursor past
// every received point. Returns the number of points that were actually new.
func (s *SyncState) Merge(points []model.HistoryPoint) int {
	added := s.series.Merge(points)
	for _, p := range points {
		if p.Timestamp.After(s.cursor) {
			s.cursor = p.Timestamp
		}
	}
	return added
}

// TrimBefore applies the local retention horizon. The cursor is not rewound;
// trimming forgets old points, not the fact that they were seen.
func (s *SyncState) TrimBefore(cutoff time.Time) int {
	return s.series.TrimBefore(cutoff)
}

// Series exposes the mirrored stream for windowing and decimation.
func (s *SyncState) Series() *model.Series {
	return s.series
}

// Reset drops the mirror and cursor, forcing the next fetch to backfill.
// Used when the server reports a stream we no longer recognize.
func (s *SyncState) Reset() {
	s.series = model.NewSeries(nil)
	s.cursor = time.Time{}
}
