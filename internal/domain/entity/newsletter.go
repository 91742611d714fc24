package entity

import "time"

// Newsletter is the rendered document produced by the Curator.
//
// Invariants:
//   - BodyHTML contains exactly one identifiable section for every item in SourceItems
//   - Title embeds the generation date in the locale's date format
type Newsletter struct {
	Title       string
	Intro       string
	BodyHTML    string
	BodyText    string
	Language    string
	GeneratedAt time.Time
	SourceItems SelectionSet
}

// DispatchRequest asks the Dispatcher to deliver a newsletter.
// Sender credentials are owned by the transport and never travel with the request.
type DispatchRequest struct {
	Newsletter *Newsletter
	Recipient  string
}
