package model

import "strings"

// Actor is a row of the `actors` table.  FirstName and LastName are trimmed
// and never blank; BirthDate is optional.
type Actor struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate *Date  `json:"birthDate"`
}

// FullName joins first and last name with a single space.
func (a Actor) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ActorInput is the body of POST /actors and PUT /actors/{id}.
type ActorInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	BirthDate *Date  `json:"birthDate"`
}
