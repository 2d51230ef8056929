package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"fenrir/internal/common"
	"fenrir/internal/engine"
	"fenrir/internal/net"
)

func main() {
	host := flag.String("host", "0.0.0.0", "Address to bind the exchange server to")
	port := flag.Int("port", 9001, "Port to listen on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// A book is created per listed asset type; only Equities exists today,
	// but engine.New already takes the full list so a second instrument
	// needs no change here, just a second argument.
	eng := engine.New(common.Equities)
	srv := net.New(*host, *port, eng)
	eng.SetReporter(srv)

	log.Info().Str("host", *host).Int("port", *port).Msg("starting exchange server")

	go srv.Run(ctx)
	// Block on running the server.
	<-ctx.Done()
}
