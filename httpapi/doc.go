// Package httpapi mounts the authgate engine on net/http routes under
// /v1: registration, login, refresh, logout, CSRF issuance, and session
// listing/revocation for the authenticated subject.
package httpapi
