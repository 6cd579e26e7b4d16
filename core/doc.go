// Package core contains the shared primitives of the Krishimitra backend:
// the Agent contract, turn events and their actions, role-based content
// parts, conversational sessions keyed by (user, session), and the per-turn
// execution contexts handed to agents and tools.
//
// Higher level packages (agent, flow, tool, runner) build on these types;
// core itself has no dependencies on them.
package core
