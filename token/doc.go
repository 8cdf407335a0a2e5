// Package token manages signed access- and refresh-token issuance and
// verification with strict validation semantics suitable for low-latency
// authentication paths.
package token
