package sync

// Verdict is the classification of a gossip message after validation. It
// decides whether the message propagates, is dropped silently, is dropped
// with a sender penalty, or is retried once its dependencies arrive.
type Verdict int8

const (
	// VerdictAccept propagates the message and applies it locally.
	VerdictAccept Verdict = iota
	// VerdictIgnore drops the message without penalizing the sender, e.g.
	// for harmless duplicates.
	VerdictIgnore
	// VerdictReject drops the message; the sender may be penalized.
	VerdictReject
	// VerdictSaveForFuture parks the message until a dependency, such as the
	// referenced block, becomes available locally.
	VerdictSaveForFuture
)

// String returns a human readable form of the verdict.
func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictIgnore:
		return "ignore"
	case VerdictReject:
		return "reject"
	case VerdictSaveForFuture:
		return "save for future"
	default:
		return "unknown"
	}
}
