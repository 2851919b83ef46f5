package main

import (
	"context"
	"net"

	"github.com/rs/zerolog"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/GooDer/rsocket-go"
	"github.com/GooDer/rsocket-go/transport"
)

func serveCommand(path altsrc.StringSourcer) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "listen for rsocket connections and answer them with an echo handler",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "pretty", Usage: "human-readable, colorized console logging instead of JSON"},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "address to listen on",
				Value: ":7878",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("RSOCKET_ECHO_LISTEN"),
					toml.TOML("serve.listen", path),
				),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := newLogger(cmd.Bool("pretty"))
			extras := loadEchoExtras(string(path))

			ln, err := net.Listen("tcp", cmd.String("listen"))
			if err != nil {
				return err
			}
			defer ln.Close()
			log.Info().Str("addr", ln.Addr().String()).Msg("listening")

			handler := echoHandler{prefix: extras.Echo.Prefix, log: log}
			for {
				conn, err := ln.Accept()
				if err != nil {
					return err
				}
				go serveConn(ctx, conn, handler, log)
			}
		},
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler echoHandler, log zerolog.Logger) {
	tp := transport.NewStream(conn)
	cfg := rsocket.DefaultConfig()
	cfg.Handler = handler
	cfg.Logger = log

	r := rsocket.Accept(ctx, tp, cfg)
	<-r.Done()
	if err := r.Err(); err != nil {
		log.Warn().Err(err).Str("peer", conn.RemoteAddr().String()).Msg("connection ended")
	}
}
