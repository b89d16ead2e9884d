// Package store persists user records and their refresh-token ledgers.
//
// [UserRepository] is the single seam through which the engine touches
// user state. The Redis implementation lays a user out as one logical
// document: a hash holding the profile and credential fields, a
// co-located set holding the currently honored refresh tokens, and an
// email index entry claimed with SETNX so duplicate registration fails
// deterministically instead of overwriting.
//
// Ledger mutations run as Lua scripts, so a consume is an atomic
// read-modify-write serialized by Redis: when two requests race to spend
// the same refresh token, exactly one wins; the loser observes the token
// absent, which clears the whole ledger — a replayed token logs out every
// session for that user.
package store
