package core

import "time"

// Credentials is the successful outcome of an authorization flow. Instances
// are produced only by a grant strategy's exchange step and are not mutated
// afterwards.
type Credentials struct {
	AccessToken  string
	TokenType    string
	IDToken      string
	RefreshToken string
	Scope        string
	ExpiresAt    time.Time
}
