// Package rest implements the goIdentity Backend over HTTP/JSON.
//
// It owns everything wire-shaped: base URL joining, application credential
// headers, JSON encoding, status handling. Non-2xx responses decode into
// *goIdentity.BackendError so the engine's error taxonomy applies; transport
// failures wrap goIdentity.ErrNetwork.
package rest
