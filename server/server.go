// Package server owns the listening sockets: it accepts connections
// and hands each one to a protocol session in its own goroutine.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/akopan/maildrop/mailstore"
	"github.com/akopan/maildrop/metrics"
	"github.com/akopan/maildrop/pop"
	"github.com/akopan/maildrop/smtp"
)

type Server struct {
	config *Config
	store  *mailstore.Store
	log    *slog.Logger

	smtpLn    net.Listener
	popLn     net.Listener
	metricsLn net.Listener
}

func New(config *Config, store *mailstore.Store, logger *slog.Logger) *Server {
	return &Server{
		config: config,
		store:  store,
		log:    logger,
	}
}

// Start binds all listeners and launches the accept loops. It returns
// once everything is listening, so a bind failure surfaces here and
// not inside a goroutine.
func (s *Server) Start() error {
	var err error
	s.smtpLn, err = net.Listen("tcp", s.config.SMTP.Listen)
	if err != nil {
		return fmt.Errorf("smtp listener: %w", err)
	}
	s.popLn, err = net.Listen("tcp", s.config.POP.Listen)
	if err != nil {
		s.smtpLn.Close()
		return fmt.Errorf("pop listener: %w", err)
	}
	s.log.Info("smtp listening", "addr", s.smtpLn.Addr().String())
	s.log.Info("pop listening", "addr", s.popLn.Addr().String())

	go s.acceptLoop(s.smtpLn, "smtp", func(conn net.Conn, logger *slog.Logger) {
		smtp.Process(conn, s.store, s.config.Hostname, logger)
	})
	go s.acceptLoop(s.popLn, "pop", func(conn net.Conn, logger *slog.Logger) {
		pop.Process(conn, s.store, logger)
	})

	if s.config.Metrics.Listen != "" {
		s.metricsLn, err = net.Listen("tcp", s.config.Metrics.Listen)
		if err != nil {
			s.Stop()
			return fmt.Errorf("metrics listener: %w", err)
		}
		s.log.Info("metrics listening", "addr", s.metricsLn.Addr().String())
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go http.Serve(s.metricsLn, mux)
	}
	return nil
}

// Stop closes the listeners. Running sessions finish on their own.
func (s *Server) Stop() {
	for _, ln := range []net.Listener{s.smtpLn, s.popLn, s.metricsLn} {
		if ln != nil {
			ln.Close()
		}
	}
}

// SMTPAddr returns the bound submission address.
func (s *Server) SMTPAddr() net.Addr {
	return s.smtpLn.Addr()
}

// POPAddr returns the bound retrieval address.
func (s *Server) POPAddr() net.Addr {
	return s.popLn.Addr()
}

func (s *Server) acceptLoop(ln net.Listener, proto string, handle func(net.Conn, *slog.Logger)) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// The listener was closed or is broken; either way this
			// loop is done.
			s.log.Debug("accept loop ended", "protocol", proto, "error", err)
			return
		}
		metrics.ConnectionsTotal.WithLabelValues(proto).Inc()

		logger := s.log.With("protocol", proto, "remote", conn.RemoteAddr().String())
		logger.Info("connected")
		go func() {
			defer conn.Close()
			handle(conn, logger)
			logger.Info("disconnected")
		}()
	}
}
