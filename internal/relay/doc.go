// Package relay implements the REST client for the key-directory and chat
// services. TLS and authentication headers are the caller's concern beyond
// the bearer token set on each request.
package relay
