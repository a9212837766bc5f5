package domain

// Enrichment is the summarizer output: a condensed description plus the
// subject and body of a follow-up message.
type Enrichment struct {
	Condensed         string `json:"condensed"`
	InProgressSubject string `json:"inProgressSubject"`
	InProgressText    string `json:"inProgressText"`
}

// FallbackEnrichment is substituted when the summarizer fails or is disabled.
var FallbackEnrichment = Enrichment{
	Condensed:         "Condensed summary unavailable.",
	InProgressSubject: "Ticket In-Progress",
	InProgressText:    "We are working on your ticket.",
}

// SkippedEnrichment is returned when the caller asks to bypass the summarizer.
var SkippedEnrichment = Enrichment{
	Condensed:         "AI processing skipped.",
	InProgressSubject: "Ticket In-Progress",
	InProgressText:    "Please update your ticket manually.",
}

// IsComplete reports whether every field carries text.
func (e Enrichment) IsComplete() bool {
	return e.Condensed != "" && e.InProgressSubject != "" && e.InProgressText != ""
}
