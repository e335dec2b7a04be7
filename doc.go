// Package authflow orchestrates sign-in across password, phone and
// federated OAuth providers behind one API.
//
// Orchestrator:
//   - Every operation publishes a Started event on the EventBus before it
//     calls its collaborator and exactly one terminal event (Succeeded or
//     Failed) afterwards. Events of one attempt share an AttemptID and the
//     bus stamps a monotonically increasing Sequence.
//   - Collaborator errors are returned unchanged after the Failed event is
//     published. The bus is an observability side channel only.
//   - Federated sign-in is split in two: SignInWithFederated opens the
//     attempt and launches the front channel, HandleOAuthCallback resolves
//     it. Callback routing goes through a StateCodec.
//
// Remember me:
//   - TokenStore keeps a single long lived device credential in a
//     secretstore.Storage. Reads evict invalid credentials lazily and
//     storage failures collapse to "absent".
//
// Activity sinks:
//   - RelayActivity drains a bus subscription into an ActivitySink best
//     effort, so events can be forwarded to a database or queue without
//     blocking authentication.
package authflow
