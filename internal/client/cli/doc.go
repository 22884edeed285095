// Package cli provides the interactive gymkeeper terminal client.
//
// It wires configuration, the local credential store, the session controller
// and an interactive REPL. Every screen change goes through the route guard,
// so a command such as "open /admin-dashboard" lands wherever the current
// session is allowed to be.
//
// Typical flow: restore the previous session, show the landing screen or the
// user's home, then execute commands while notifications are polled in the
// background for as long as the user is logged in.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
