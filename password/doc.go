// Package password provides argon2id hashing and verification for
// credential secrets.
//
// Hashes are stored in PHC string format so the derivation parameters
// travel with the hash, allowing verification of old hashes after the
// active parameters change and detection of hashes that should be
// re-derived (NeedsUpgrade).
package password
