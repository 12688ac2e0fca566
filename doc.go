// Package adminauth provides the access control core for a two tier admin
// panel: credential verification, JWT issuance, and a provisioning workflow
// where a single super admin tier reviews and manages sub admin accounts.
//
// Account lifecycle:
//   - Principals carry a RequestStatus field persisted via Bun. A sub admin
//     account starts pending and must be approved by a super admin before it
//     can authenticate; rejection and later re-approval are both possible.
//   - RequestStateMachine centralizes the transition graph and persistence.
//     Invoke Transition with ActorRef metadata whenever a super admin reviews
//     a request.
//
// Guarding routes:
//   - RouteGuard builds middleware that validates the bearer token and then
//     re-resolves the principal from the repository on every request, so
//     deactivating or deleting an account revokes access immediately, well
//     before any outstanding token expires.
//   - Role gates compare against the freshly resolved role, and the Can
//     helper consults the capability table in roles.go for finer checks.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the
//     registration handler, and the provisioning workflow to describe login
//     and lifecycle events. Sinks run best-effort (errors are logged) so you
//     can forward to a database or queue without blocking authentication.
package adminauth
