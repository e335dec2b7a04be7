// Package security provides stateless primitives used by the auth flow:
// salted hashing and verification, secure token generation, password
// strength scoring, input sanitization, vulnerability screening, file upload
// validation and SessionDescriptor helpers.
//
// Every function in this package is safe for concurrent use. None of them
// touch ambient storage; callers own persistence of whatever they produce.
//
// ClassifyVulnerability and Sanitize are heuristic screens. They are a
// defense-in-depth layer and never a substitute for parameterized queries or
// context-aware output encoding.
package security
