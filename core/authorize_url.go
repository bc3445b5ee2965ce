package core

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildAuthorizeURL composes the authorization endpoint URL. Query parameters
// keep insertion order: client_id, redirect_uri, state, the grant defaults,
// then caller parameters; a later entry overrides an earlier one in place
// when keys collide. Values are passed through verbatim; the authorization
// server is responsible for validating them.
func BuildAuthorizeURL(base, clientID, redirectURI, state string, defaults, params []Param) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("core: authorize base url is required")
	}

	ordered := newOrderedParams()
	ordered.set("client_id", clientID)
	ordered.set("redirect_uri", redirectURI)
	ordered.set("state", state)
	for _, param := range defaults {
		ordered.set(param.Key, param.Value)
	}
	for _, param := range params {
		ordered.set(param.Key, param.Value)
	}

	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return base + separator + ordered.encode(), nil
}

type orderedParams struct {
	keys   []string
	values map[string]string
}

func newOrderedParams() *orderedParams {
	return &orderedParams{values: map[string]string{}}
}

func (p *orderedParams) set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// encode preserves insertion order; url.Values.Encode sorts keys and cannot
// be used here.
func (p *orderedParams) encode() string {
	var builder strings.Builder
	for i, key := range p.keys {
		if i > 0 {
			builder.WriteByte('&')
		}
		builder.WriteString(url.QueryEscape(key))
		builder.WriteByte('=')
		builder.WriteString(url.QueryEscape(p.values[key]))
	}
	return builder.String()
}
