package main

import (
	"context"
	"fmt"
	"net"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/GooDer/rsocket-go"
	"github.com/GooDer/rsocket-go/transport"
)

func dialCommand(path altsrc.StringSourcer) *cli.Command {
	return &cli.Command{
		Name:  "dial",
		Usage: "connect to an rsocket-echo server, send one request/response and print the reply",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pretty", Usage: "human-readable, colorized console logging instead of JSON"},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "address to dial",
				Value: "127.0.0.1:7878",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("RSOCKET_ECHO_ADDR"),
					toml.TOML("dial.addr", path),
				),
			},
			&cli.StringFlag{
				Name:  "message",
				Usage: "payload to send",
				Value: "hello",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("RSOCKET_ECHO_MESSAGE"),
					toml.TOML("dial.message", path),
				),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(cmd.Bool("pretty"))

			conn, err := net.Dial("tcp", cmd.String("addr"))
			if err != nil {
				return err
			}
			defer conn.Close()

			tp := transport.NewStream(conn)
			cfg := rsocket.DefaultConfig()
			cfg.Logger = log
			r := rsocket.Connect(ctx, tp, cfg)

			reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			resp, err := r.RequestResponse(reqCtx, rsocket.NewPayload([]byte(cmd.String("message"))))
			if err != nil {
				return err
			}
			fmt.Printf("response: %s\n", resp.Data())
			return r.Close(ctx)
		},
	}
}
