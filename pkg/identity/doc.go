// Package identity stores user accounts and resolves API tokens to users.
// It is intentionally minimal: signup, sessions, and OAuth live in the
// identity provider; this package only covers what billing and account
// deletion need.
package identity
