// Package grant implements the authorization grant strategies: the implicit
// grant, which reads tokens straight from the redirect callback, and the
// authorization-code grant with PKCE, which exchanges the received code and a
// locally held verifier at the token endpoint.
package grant
