// Package accounts implements a user-account service: registration,
// credential verification, password reset, email verification and
// third-party (OAuth) sign-in, issuing signed bearer tokens for
// subsequent API access.
//
// The core is the account-lifecycle state machine. An account is
// created unverified by registration (or verified, by a first OAuth
// login whose provider vouches for the email) and moves one way to
// verified by consuming a one-time code. The same code slot drives
// both email verification and password reset: only one code is
// outstanding per account, issuing a new one supersedes the old, and
// issuance is throttled by a cooldown while redemption is bounded by a
// TTL.
//
// Email is the unique join key across identity sources. A password
// registration and a later OAuth login with the same address resolve
// to the same account, with the provider's subject id attached; the
// Resolver owns that create-vs-link-vs-reject policy for every
// provider so the flows cannot drift apart.
//
// Persistence is behind the AccountStore interface (in-memory and GORM
// implementations under stores/), email delivery behind EmailSender
// (gomail implementation under emails/), and the OAuth legs behind
// OAuthProvider (oauth2/). cmd/server wires everything together.
package accounts
