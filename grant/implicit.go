package grant

import (
	"context"
	"time"

	"github.com/goliatone/go-webauth/core"
)

// Implicit reads credentials directly from the redirect callback fragment.
// It performs no network round-trip.
type Implicit struct {
	now func() time.Time
}

func NewImplicit() *Implicit {
	return &Implicit{
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (*Implicit) Defaults() []core.Param {
	return []core.Param{
		{Key: "response_type", Value: "token"},
	}
}

func (g *Implicit) Exchange(_ context.Context, values map[string]string) (*core.Credentials, error) {
	if readValue(values, "access_token") == "" {
		return nil, core.NewInvalidResponseError(encodeValues(values))
	}
	return credentialsFromValues(values, g.now()), nil
}

var _ core.GrantHandler = (*Implicit)(nil)
