// Package internal contains private implementation details for the storage SDK.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - rest: Signed REST transport and service error decoding
//   - transfer: The chunked transfer engine (bounded executor, orchestrators)
//   - chunk: Chunk sources for file- and stream-backed uploads
//   - pool: Fixed-count buffer pool providing transfer backpressure
//   - progress: Transfer progress accounting
//   - validation: Input validation logic
//   - testutil: Mocks and generators shared by the test suites
package internal
