// Package rate provides Redis-backed fixed-window rate limiting for the
// login and refresh operations.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - al:rl:u: — login attempts per email
//   - al:rl:i: — login attempts per client IP
//   - al:rl:r: — refresh attempts per user
//
// # What this package must NOT do
//
//   - Decide which operations are throttled (the Engine owns policy).
//   - Be imported outside the authledger module.
package rate
