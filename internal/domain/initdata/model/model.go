package model

// Outcome is what the service reports for one validation call. Reason is
// set on failures too.
type Outcome struct {
	OK     bool
	Reason string
}
