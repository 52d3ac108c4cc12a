// Package auth provides credential verification and connection-scoped
// sessions for cheatsheet-server.
//
// # Components
//
//   - CredentialVerifier: bcrypt comparison against stored hashes. Bad
//     credentials and unknown users are indistinguishable to callers;
//     only store infrastructure failures surface as errors.
//   - TokenIssuer: HS256-signed session descriptors carrying the identity
//     (sub), the issuing connection (cid), and the granted channel
//     whitelist (channels).
//   - Registry: in-memory map of connection ID to attached token. A
//     connection authenticates at most once; tokens die with the
//     connection and are never persisted.
//
// The channel whitelist granted at login is the policy constant
// GrantedChannels, identical for every user.
package auth
