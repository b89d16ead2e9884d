// Package password implements one-way credential hashing for authledger.
//
// Hashes are Argon2id in PHC string format with the salt embedded, so a
// stored hash is self-describing and verification needs no side channel.
// Verification compares in constant time and reports a wrong password as
// a false result, never as an error.
//
// Accounts provisioned through federated login carry [FederatedSentinel]
// instead of a real hash; Verify always fails for them, which keeps the
// local-password login path closed for those accounts.
package password
