package checker

// Notifier is the fire-and-forget notification surface a check run
// drives. Implementations must return promptly; they are called from
// the progress counter's goroutine and from the run's completion path.
type Notifier interface {
	// ShowCheckNotification reports throttled progress: bandwidth in
	// bytes per second and completion as permille of the sample.
	ShowCheckNotification(bandwidthBytesPerSec float64, permille int)

	// OnCheckComplete fires once, after a Success verdict.
	OnCheckComplete(bytesChecked int64, bandwidthBytesPerSec float64)

	// OnCheckFinishedWithError fires once, after an Error or
	// GeneralError verdict.
	OnCheckFinishedWithError(bytesChecked int64, bandwidthBytesPerSec float64)
}

// NopNotifier implements Notifier by discarding every call.
type NopNotifier struct{}

func (NopNotifier) ShowCheckNotification(float64, int)             {}
func (NopNotifier) OnCheckComplete(int64, float64)                 {}
func (NopNotifier) OnCheckFinishedWithError(int64, float64)        {}
