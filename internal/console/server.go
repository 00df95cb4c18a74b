// Package console exposes the single-player game over a raw TCP line
// protocol, playable with netcat or telnet.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/metrics"
)

// Server accepts TCP connections and runs one blocking game per connection.
type Server struct {
	addr   string
	engine *game.Engine
	cfg    game.Config
	board  leaderboard.Store
	topN   int
	logger zerolog.Logger

	wg sync.WaitGroup
}

// NewServer creates a console server bound to addr on Run.
func NewServer(addr string, engine *game.Engine, cfg game.Config, board leaderboard.Store, topN int, logger zerolog.Logger) *Server {
	return &Server{
		addr:   addr,
		engine: engine,
		cfg:    cfg,
		board:  board,
		topN:   topN,
		logger: logger.With().Str("component", "console").Logger(),
	}
}

// Run listens and serves until the context is cancelled. Each connection is
// handled on its own goroutine; Run waits for in-flight games on shutdown.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("console listen on %s: %w", s.addr, err)
	}
	s.logger.Info().Str("addr", s.addr).Msg("console server listening")

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn().Err(err).Msg("accept failed")
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	return nil
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.logger.Info().Str("remote", remote).Msg("player connected")

	io := &connIO{conn: conn, reader: bufio.NewReader(conn)}

	name, err := s.promptName(io)
	if err != nil {
		s.logger.Info().Str("remote", remote).Msg("player left before naming")
		return
	}

	metrics.GamesStarted.WithLabelValues(metrics.ModeSingle).Inc()
	result, err := s.engine.RunGame(name, io, s.cfg)
	if err != nil {
		s.logger.Info().Err(err).Str("remote", remote).Str("player", name).Msg("game aborted")
		return
	}

	if err := s.board.Update(ctx, result.PlayerName, result.FinalChips, result.CorrectAnswers); err != nil {
		s.logger.Warn().Err(err).Str("player", name).Msg("leaderboard update failed")
	}
	if rendered, err := leaderboard.Render(ctx, s.board, s.topN); err == nil {
		_ = io.WriteString("\n" + rendered + "\n")
	}

	s.logger.Info().
		Str("player", name).
		Int("final_chips", result.FinalChips).
		Int("correct", result.CorrectAnswers).
		Msg("game finished")
}

func (s *Server) promptName(io *connIO) (string, error) {
	if err := io.WriteString("Welcome to Money Drop!\n"); err != nil {
		return "", err
	}
	for {
		name, err := io.ReadLine("What is your name?\n> ")
		if err != nil {
			return "", err
		}
		name = strings.TrimSpace(name)
		if name != "" {
			return name, nil
		}
		if err := io.WriteString("A name is required.\n"); err != nil {
			return "", err
		}
	}
}

// connIO adapts a net.Conn to the engine's line transport. Reads carry an
// idle deadline so abandoned connections release their goroutine.
type connIO struct {
	conn   net.Conn
	reader *bufio.Reader
}

const readIdleTimeout = 10 * time.Minute

func (c *connIO) WriteString(s string) error {
	_, err := c.conn.Write([]byte(s))
	return err
}

func (c *connIO) ReadLine(prompt string) (string, error) {
	if err := c.WriteString(prompt); err != nil {
		return "", err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(readIdleTimeout)); err != nil {
		return "", err
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
