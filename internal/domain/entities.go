package domain

// Document is one filing as read from the document source.
type Document struct {
	Ticker  string
	Source  string
	Content string
}

// Chunk is a contiguous token window of a document.
type Chunk struct {
	Ticker     string
	Source     string
	Text       string
	TokenStart int
	TokenCount int
}

// ContextResult is a stored passage returned by a similarity query.
type ContextResult struct {
	Content  string  `json:"content"`
	Ticker   string  `json:"ticker"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"`
}

// Source is the citation attached to an answer.
type Source struct {
	Ticker  string `json:"ticker"`
	Preview string `json:"content_preview"`
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// ComponentStatus is the outcome of probing one dependency.
type ComponentStatus struct {
	Name  string
	Error error
}

func (c ComponentStatus) OK() bool {
	return c.Error == nil
}

// HealthReport aggregates dependency probes.
type HealthReport struct {
	Database   ComponentStatus
	Generation ComponentStatus
}

func (h HealthReport) Healthy() bool {
	return h.Database.OK() && h.Generation.OK()
}
