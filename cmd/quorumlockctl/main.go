// quorumlockctl is a demo command-line client for the xdlock package. It
// wires the library against operator-supplied Redis addresses and exposes
// acquire/release/extend/inspect as subcommands. It is a thin convenience
// binary, not part of the safety core: no business logic beyond "parse
// flags, build a store/lock, call the library, print the result" lives
// here.
//
// Usage:
//
//	quorumlockctl [global flags] <command> [command args]
//
// Global flags:
//
//	--addr        Redis address, repeatable. One address -> single-node
//	              protocol; two or more -> quorum protocol.
//	--ttl         Lease duration (default 30s).
//	--timeout     Per-command deadline (default 5s).
//
// Commands:
//
//	acquire <key>                  acquire a lease, print its lease value
//	release <key> <value>          release a lease by its lease value
//	extend <key> <value> <ttl>     extend a lease's TTL
//	inspect <key>                  print the current holder and remaining TTL
//
// Exit codes:
//
//	0: success
//	1: the operation failed (lease contended, not found, transport error)
//	2: argument error
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	app := newApp()
	ctx := context.Background()
	if err := app.Run(ctx, args); err != nil {
		return exitCodeFor(err)
	}
	return 0
}
