package scanner

// Activity is what a scan session is currently doing.
type Activity int

// Session activities in the order a session moves through them.
// CommittingPartialResults and CommittingFinalResults are entered around
// store writes and left again afterwards.
const (
	ScanningFolders Activity = iota
	ScanningNewFolders
	RescanningOldFolders
	CommittingPartialResults
	CommittingFinalResults
	ScanComplete
)

var activityNames = [...]string{
	ScanningFolders:          "scanning folders",
	ScanningNewFolders:       "scanning new folders",
	RescanningOldFolders:     "rescanning old folders",
	CommittingPartialResults: "committing partial results",
	CommittingFinalResults:   "committing final results",
	ScanComplete:             "scan complete",
}

var activityLabels = [...]string{
	ScanningFolders:          "scanning_folders",
	ScanningNewFolders:       "scanning_new_folders",
	RescanningOldFolders:     "rescanning_old_folders",
	CommittingPartialResults: "committing_partial_results",
	CommittingFinalResults:   "committing_final_results",
	ScanComplete:             "scan_complete",
}

func (a Activity) String() string {
	if a < 0 || int(a) >= len(activityNames) {
		return "unknown"
	}
	return activityNames[a]
}

// Label is the metric label for the activity.
func (a Activity) Label() string {
	if a < 0 || int(a) >= len(activityLabels) {
		return "unknown"
	}
	return activityLabels[a]
}

// MarshalText encodes the activity as its human-readable name.
func (a Activity) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ActivityLabels lists every activity label, for metric initialization.
func ActivityLabels() []string {
	return append([]string(nil), activityLabels[:]...)
}
