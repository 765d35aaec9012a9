package http

import (
	"context"
	"net"
	gohttp "net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/log"
)

// Server is a running HTTP listener.
type Server struct {
	server   *gohttp.Server
	listener net.Listener
	done     chan struct{}
}

// Serve listens on laddr and serves handler until Close.
func Serve(laddr string, handler gohttp.Handler) (*Server, error) {
	const protocol = "tcp"
	listener, err := net.Listen(protocol, laddr)

	if err != nil {
		return nil, errors.Wrap(err, "Serve failed")
	}

	server := &Server{
		server:   &gohttp.Server{Handler: handler},
		listener: listener,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(server.done)
		httpClose := server.server.Serve(listener)

		if httpClose != gohttp.ErrServerClosed {
			log.Error("HTTP server closed: '%v'", httpClose)
		}
	}()

	log.Info("Serving HTTP at %s", listener.Addr())

	return server, nil
}

func (server *Server) Addr() string {
	return server.listener.Addr().String()
}

// Close waits up to a few seconds for requests in flight, then drops them.
func (server *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), __SHUTDOWN_TIMEOUT)
	defer cancel()

	err := server.server.Shutdown(ctx)

	if err != nil {
		server.server.Close()
	}

	<-server.done
	log.Info("HTTP server stopped")

	return errors.Wrap(err, "Server.Close failed")
}

const __SHUTDOWN_TIMEOUT = 5 * time.Second
