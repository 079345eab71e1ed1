package usecase

// LoadState tracks the lifecycle of a lazily initialized model. A failed
// load is terminal: the expensive initialization is attempted once per
// process, and every later request observes FailedPermanently instead of
// retrying.
type LoadState int

const (
	LoadStateUnloaded LoadState = iota
	LoadStateLoaded
	LoadStateFailedPermanently
)

func (s LoadState) String() string {
	switch s {
	case LoadStateUnloaded:
		return "unloaded"
	case LoadStateLoaded:
		return "loaded"
	case LoadStateFailedPermanently:
		return "failed_permanently"
	default:
		return "unknown"
	}
}
