package filesystem

// Observer records filesystem operation metrics. Implementations are provided
// by the metrics package to break the import cycle between filesystem and metrics.
type Observer interface {
	// ObserveOperation records duration and error status for a filesystem operation.
	// volume is the resolved scan root label.
	// operation is the fs operation type: "stat", "readdir", "lstat".
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// Retry metrics for NFS resilience.
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, float64, error) {}
func (nopObserver) ObserveRetryAttempt(string, string)              {}
func (nopObserver) ObserveRetrySuccess(string, string)              {}
func (nopObserver) ObserveRetryFailure(string, string)              {}
func (nopObserver) ObserveStaleError(string, string)                {}

// observe is a nil-safe accessor for the package-level observer.
func observe() Observer {
	if defaultObserver == nil {
		return nopObserver{}
	}
	return defaultObserver
}
