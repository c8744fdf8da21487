package database

import "time"

// RootInfo describes one stored scan root.
type RootInfo struct {
	Path            string    `json:"path"`
	Size            int64     `json:"size"`
	TotalFiles      int64     `json:"totalFiles"`
	TotalSubfolders int64     `json:"totalSubfolders"`
	LastFullScan    time.Time `json:"lastFullScan"`
	SavedAt         time.Time `json:"savedAt"`
	Folders         int64     `json:"folders"`
}

// folderRow is one row of the folders table.
type folderRow struct {
	id              int64
	parentID        int64 // -1 for the root row
	name            string
	size            int64
	totalFiles      int64
	totalSubfolders int64
	oldest          int64
	newest          int64
	lastFullScan    int64
}

// toUnixNano stores the zero time as 0.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(0, v)
}
