// Package webauth drives browser-based OAuth2 authorization flows for native
// host applications. A flow builds the authorize URL, presents an
// authorization browser, and tracks exactly one pending session per WebAuth
// instance; the host forwards inbound redirect URLs through ResumeAuth and
// the original caller receives exactly one terminal outcome: credentials,
// an error, or a cancellation.
package webauth
