// Package core contains the canonical webauth domain: credentials, the error
// taxonomy, the authorization session state machine, and the session registry.
// Outer packages (grant strategies, browser adapters, the flow orchestrator)
// depend on this package; core must not depend on them.
package core
