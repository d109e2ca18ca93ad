// Package props provides the structured payload carried by graph nodes.
//
// A payload is an Object: a map of string keys to sealed Value types
// (Null, String, Int, Float, Bool, Array, Object). Payloads have no
// obligatory shape.
//
// Payloads are persisted as canonical JSON (see MarshalCanonical):
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalised, no HTML escaping
//   - integral numbers written without fraction or exponent
//
// Decoding is the inverse: numbers without a fraction or exponent decode
// to Int, everything else to Float. A Float with an integral value
// therefore round-trips as Int; callers that need a stable comparison
// compare the decoded form returned by the store.
package props
