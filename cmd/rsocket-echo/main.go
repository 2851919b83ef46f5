// Command rsocket-echo is a small two-subcommand demonstration of the
// rsocket package: `serve` answers requests over a length-prefixed TCP
// listener, `dial` connects to one, sends a single request/response and
// prints the reply. The other interaction patterns are not exercised by
// `dial`.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	path := configFile()
	cmd := &cli.Command{
		Name:    "rsocket-echo",
		Usage:   "serve or dial an rsocket echo endpoint",
		Version: bi.Main.Version,
		Flags:   commonFlags(path),
		Commands: []*cli.Command{
			serveCommand(path),
			dialCommand(path),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "rsocket-echo: %v\n", err)
		os.Exit(1)
	}
}
