package tui

import (
	"sort"
	"strings"

	"github.com/dm/fleetmon/internal/model"
)

// sortNodeRows returns a sorted copy of rows.
// Column mapping:
//
//	0=NodeID, 1=WorkerCount, 2=ReporterVersion, 3=LastSeen, 4=Online
//
// col -1 means no sort (preserve order).
// Ties are broken by NodeID ascending.
func sortNodeRows(rows []model.NodeStatus, col int, desc bool) []model.NodeStatus {
	out := make([]model.NodeStatus, len(rows))
	copy(out, rows)

	if col < 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less bool
		switch col {
		case 0:
			less = strings.ToLower(a.NodeID) < strings.ToLower(b.NodeID)
		case 1:
			if a.WorkerCount != b.WorkerCount {
				less = a.WorkerCount < b.WorkerCount
			} else {
				return strings.ToLower(a.NodeID) < strings.ToLower(b.NodeID)
			}
		case 2:
			if a.ReporterVersion != b.ReporterVersion {
				less = a.ReporterVersion < b.ReporterVersion
			} else {
				return strings.ToLower(a.NodeID) < strings.ToLower(b.NodeID)
			}
		case 3:
			if !a.LastSeen.Equal(b.LastSeen) {
				less = a.LastSeen.Before(b.LastSeen)
			} else {
				return strings.ToLower(a.NodeID) < strings.ToLower(b.NodeID)
			}
		case 4:
			if a.Online != b.Online {
				less = !a.Online && b.Online
			} else {
				return strings.ToLower(a.NodeID) < strings.ToLower(b.NodeID)
			}
		default:
			less = strings.ToLower(a.NodeID) < strings.ToLower(b.NodeID)
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

// filterNodeRows returns rows whose NodeID or ReporterVersion contains search
// (case-insensitive). Returns all rows when search is empty.
func filterNodeRows(rows []model.NodeStatus, search string) []model.NodeStatus {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.NodeID), lower) ||
			strings.Contains(strings.ToLower(r.ReporterVersion), lower) {
			out = append(out, r)
		}
	}
	return out
}
