// Package cli provides the interactive SimpleShare shell.
//
// NewApp wires configuration, the local metadata database, the central
// store, the transport and the Auth/Database service façades. Run starts the
// toast driver, a renderer that prints toasts as they come and go, and a
// connectivity watcher, then blocks in the REPL until the user exits.
//
// Commands report failures as error toasts; usage mistakes are printed
// directly. See runREPL for the command list.
package cli
