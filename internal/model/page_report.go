package model

import "time"

// NotAvailable is reported for metadata a page does not carry.
const NotAvailable = "N/A"

// UnknownLanguage is the code block language when no language-* class is present.
const UnknownLanguage = "unknown"

// LinkSummary counts the anchors of an analyzed page.
//
// TotalLinks counts every <a href>, fragment-only anchors included.
// InternalLinks and ExternalLinks count resolved anchors by host, one per
// anchor. BrokenLinks counts unique resolved URLs whose liveness check failed.
type LinkSummary struct {
	TotalLinks    int `json:"total_links"`
	InternalLinks int `json:"internal_links"`
	ExternalLinks int `json:"external_links"`
	BrokenLinks   int `json:"broken_links"`
}

// PageReport is the analysis result for one documentation page.
type PageReport struct {
	URL    string `json:"url"`
	Status Status `json:"status"`

	Title          string `json:"title"`
	Description    string `json:"description"`
	LastUpdateDate string `json:"last_update_date"`

	TablesCount     int            `json:"tables_count"`
	CodeBlocksCount int            `json:"code_blocks_count"`
	CodeLanguages   map[string]int `json:"code_languages"`
	FoundTools      map[string]int `json:"found_tools"`

	LinksSummary *LinkSummary `json:"links_summary,omitempty"`

	// BrokenURLs lists the unique links found dead, sorted.
	BrokenURLs []string `json:"broken_urls,omitempty"`

	// ContentHash is the xxhash64 of the raw body, hex encoded.
	ContentHash string `json:"content_hash,omitempty"`

	// SnapshotPath is where the raw page text was saved.
	SnapshotPath string `json:"snapshot_path,omitempty"`

	// Charset is the encoding the body was decoded from.
	Charset string `json:"charset,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`

	AnalyzedAt time.Time `json:"analyzed_at"`

	// Body is the raw response body, kept only while the report is being built.
	Body []byte `json:"-"`

	// ContentType is the Content-Type header of the response.
	ContentType string `json:"-"`

	// Text is the decoded page text.
	Text string `json:"-"`

	// Links are the unique resolved link targets of the page.
	Links []string `json:"-"`
}

// NewPageReport returns a report for url with every metadata field at its
// "not found" value. It stays Failed until the analysis succeeds.
func NewPageReport(url string) *PageReport {
	return &PageReport{
		URL:            url,
		Status:         StatusFailed,
		Title:          NotAvailable,
		Description:    NotAvailable,
		LastUpdateDate: NotAvailable,
		CodeLanguages:  map[string]int{},
		FoundTools:     map[string]int{},
		AnalyzedAt:     time.Now(),
	}
}

// Fail marks the report failed with err's message.
func (p *PageReport) Fail(err error) {
	p.Status = StatusFailed
	if err != nil {
		p.ErrorMessage = err.Error()
	}
}

// Release drops the raw body and text once they are no longer needed.
func (p *PageReport) Release() {
	p.Body = nil
	p.Text = ""
}
