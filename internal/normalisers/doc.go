// Package normalisers provides the TextExtractor implementations for each
// supported report format and the registry that selects between them.
//
// Extractors are registered with the Registry at startup.
package normalisers
