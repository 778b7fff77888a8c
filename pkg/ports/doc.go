// Package ports defines the driven-side interfaces of the collective:
// document persistence and distributed locking. Adapters (file, redis)
// implement these without the core packages knowing which backend is in
// play.
package ports
