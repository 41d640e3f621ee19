// Package accounts provides the credential and token lifecycle for a user
// account backend: registration, password login, password reset, external
// provider login, and the profile/role administration on top of them.
//
// Account records:
//   - Accounts carry a role (viewer, user, admin) and a status (active,
//     inactive, suspended) persisted via Bun. Only active accounts are
//     issued tokens; password hashes and reset material never leave the
//     package through the PublicAccount projection.
//
// Commands:
//   - Every state changing flow is a message plus handler pair (register,
//     login, forgot/reset/change password, external login). Handlers run
//     their mutations inside a transaction through the RepositoryManager
//     and report results via OnResponse callbacks.
//
// Password reset:
//   - Reset tokens are random 32 byte values handed to the account holder
//     by email; only their SHA-256 digests are stored. Redemption is a
//     compare-and-swap on the digest, which makes every token single use
//     even under concurrent redemption.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the handlers to
//     describe registration, login, and password reset events. Sinks run
//     best-effort so you can forward to a database or queue without
//     blocking authentication.
package accounts
