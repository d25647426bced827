// Package domain defines the core domain types and interfaces: submissions
// and their moderation lifecycle, connection roles and audiences, and the
// events routed between them. It has no dependencies on the other internal
// packages.
package domain
