// Package csrf implements the double-submit cookie pattern for
// cross-site request forgery protection on state-changing endpoints.
package csrf
