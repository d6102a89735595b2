// Package model holds the records exchanged between the store, the HTTP API,
// the API client and the web UI.
package model

// Movie is a row of the `movies` table.  The store assigns ID and never
// reuses it.  Title is trimmed and never blank.  Description and ReleaseDate
// are null when absent; DurationMinutes is the running time and is never
// negative.
type Movie struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	DurationMinutes int     `json:"durationMinutes"`
	ReleaseDate     *Date   `json:"releaseDate"`
}

// MovieInput is the body of POST /movies and PUT /movies/{id}.
type MovieInput struct {
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	DurationMinutes int     `json:"durationMinutes"`
	ReleaseDate     *Date   `json:"releaseDate"`
}
