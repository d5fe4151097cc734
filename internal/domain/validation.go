package domain

// MessageKind separates blocking validation failures from advisory notices.
type MessageKind string

const (
	// MessageError marks a blocking failure; any one makes the order invalid.
	MessageError MessageKind = "error"
	// MessageAdvisory marks a non-blocking notice surfaced to the customer.
	MessageAdvisory MessageKind = "advisory"
)

// ValidationMessage is a single validation outcome. Rule is a stable machine
// identifier; Text is the customer-facing message.
type ValidationMessage struct {
	Kind MessageKind
	Rule string
	Text string
}

// ValidationResult aggregates every message produced for an order, in rule
// evaluation order. Valid is false iff at least one message is blocking.
type ValidationResult struct {
	Valid    bool
	Messages []ValidationMessage
}

// Errors returns the blocking messages in evaluation order.
func (r ValidationResult) Errors() []ValidationMessage {
	return r.filter(MessageError)
}

// Advisories returns the non-blocking messages in evaluation order.
func (r ValidationResult) Advisories() []ValidationMessage {
	return r.filter(MessageAdvisory)
}

func (r ValidationResult) filter(kind MessageKind) []ValidationMessage {
	var out []ValidationMessage
	for _, msg := range r.Messages {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

// FormErrors maps form field names to their blocking error messages for
// inline display next to each input.
type FormErrors map[string][]string

// HasErrors reports whether any field carries at least one message.
func (f FormErrors) HasErrors() bool {
	for _, msgs := range f {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}
