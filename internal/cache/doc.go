// Package cache mirrors the current market record into Redis so other
// services can read it without polling the chain.
package cache
