// Package persistence keeps the small amount of link state that must
// survive a restart: which endpoint the bridge last connected to.
//
// Queued messages are never persisted.
package persistence
