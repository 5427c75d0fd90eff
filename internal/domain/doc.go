// Package domain defines core data models and contracts shared across the
// encryption and message-sync services. It contains plain types (wire/state),
// typed realtime events, and interfaces only.
package domain
