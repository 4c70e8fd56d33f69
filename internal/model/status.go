package model

// Status is the outcome of one provider discovery or one page analysis.
type Status string

const (
	// StatusSuccess marks a completed unit of work.
	StatusSuccess Status = "Success"
	// StatusFailed marks a unit of work that ended with an error. The
	// error text is carried next to it.
	StatusFailed Status = "Failed"
)

// IsSuccess reports whether s is StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
