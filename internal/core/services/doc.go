// Package services wires the driven ports into the healthlens use cases.
// A service never reads or writes outside the user it was called for.
package services
