package tasks

// sendProgress sends a progress update without blocking.
//
// A nil channel is skipped and a full channel drops the update.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
