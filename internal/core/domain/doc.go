// Package domain holds the healthlens entities and the rules that need no
// infrastructure: the closed lab parameter set and its reference ranges,
// report records, chunks and retrieval hits, settings and their defaults,
// and the sentinel errors adapters wrap.
//
// It imports the standard library only; every other package may import it.
package domain
