package models

// Actor is the signed-in user a request runs on behalf of.
// Handlers build it from the JWT claims.
type Actor struct {
	SAccountID int64
	Username   string
}
