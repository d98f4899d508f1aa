// Package interp computes where duplicates go between two reference
// endpoints.
//
// Compute is a pure function of its request: the same endpoints, interior
// count, mode, seed and deviation always produce the same transforms. Random
// and deviate modes draw from a PRNG seeded only by the request seed, so a
// given seed reproduces its sequence exactly and neighbouring seeds produce
// unrelated sequences.
package interp
