package constvars

const (
	EventTypeScreeningCompleted = "screening.completed"
	EventTypeCodeIssued         = "code.issued"
	EventTypeCodeRedeemed       = "code.redeemed"

	// EventTypeOutcomeArchiveRequested rides the internal archive queue
	// only; it never reaches the outward domain-event stream.
	EventTypeOutcomeArchiveRequested = "outcome_archive.requested"
)
