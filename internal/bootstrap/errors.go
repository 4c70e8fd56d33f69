package bootstrap

import (
	"errors"
	"fmt"
)

var (
	// ErrNoXMLExtracted means neither the page text nor the XML viewer
	// markup yielded a sitemap document.
	ErrNoXMLExtracted = errors.New("no xml extracted")

	// ErrInvalidXML means the extracted text is not a parseable XML document.
	ErrInvalidXML = errors.New("extracted content is not valid xml")
)

// Failure is the error returned when the bootstrap ends in StateFailed or
// cannot leave an earlier state.
type Failure struct {
	// State is the state the bootstrap was in when it failed.
	State  State
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("session bootstrap failed in %s: %s: %v", f.State, f.Reason, f.Err)
	}
	return fmt.Sprintf("session bootstrap failed in %s: %s", f.State, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}
