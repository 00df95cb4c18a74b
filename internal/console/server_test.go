package console

import (
	"bytes"
	"context"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmercadier/moneydrop/internal/game"
	"github.com/lmercadier/moneydrop/internal/leaderboard"
	"github.com/lmercadier/moneydrop/internal/question"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newConsoleServer(t *testing.T) (*Server, leaderboard.Store) {
	t.Helper()
	bank := []question.Question{{
		Category: "General",
		Prompt:   "How many continents are there?",
		Answers: map[question.AnswerKey]string{
			question.KeyA: "Five",
			question.KeyB: "Six",
			question.KeyC: "Seven",
			question.KeyD: "Eight",
		},
		Correct: question.KeyC,
	}}
	engine := game.NewEngine(bank, clockwork.NewRealClock())
	cfg := game.DefaultConfig()
	cfg.QuestionCount = 1
	board := leaderboard.NewFileStore(filepath.Join(t.TempDir(), "lb.json"), zerolog.Nop())
	return NewServer("127.0.0.1:0", engine, cfg, board, 10, zerolog.Nop()), board
}

func TestConsoleFullGameOverPipe(t *testing.T) {
	srv, board := newConsoleServer(t)

	server, client := net.Pipe()
	out := &lockedBuffer{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handleConn(context.Background(), server)
	}()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_, _ = io.Copy(out, client)
	}()

	_, err := client.Write([]byte("alice\n"))
	require.NoError(t, err)
	_, err = client.Write([]byte("C=700\n"))
	require.NoError(t, err)

	<-done
	client.Close()
	<-drained

	transcript := out.String()
	assert.Contains(t, transcript, "Welcome to Money Drop!")
	assert.Contains(t, transcript, "Question 1/1")
	assert.Contains(t, transcript, "Game over - alice")
	assert.Contains(t, transcript, "Global leaderboard")

	top, err := board.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "alice", top[0].Name)
	assert.Equal(t, 1000, top[0].BestChips) // 700 on the right answer + 300 unbet
	assert.Equal(t, 1, top[0].BestCorrect)
}

func TestConsoleRejectsEmptyName(t *testing.T) {
	srv, _ := newConsoleServer(t)

	server, client := net.Pipe()
	out := &lockedBuffer{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handleConn(context.Background(), server)
	}()
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_, _ = io.Copy(out, client)
	}()

	_, err := client.Write([]byte("\n"))
	require.NoError(t, err)
	_, err = client.Write([]byte("bob\n"))
	require.NoError(t, err)
	_, err = client.Write([]byte("A=0\n"))
	require.NoError(t, err)

	<-done
	client.Close()
	<-drained

	assert.Contains(t, out.String(), "A name is required.")
}

func TestConsoleDisconnectMidGame(t *testing.T) {
	srv, board := newConsoleServer(t)

	server, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handleConn(context.Background(), server)
	}()
	go func() { _, _ = io.Copy(io.Discard, client) }()

	_, err := client.Write([]byte("carol\n"))
	require.NoError(t, err)
	client.Close()
	<-done

	// An aborted game never reaches the leaderboard.
	top, err := board.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
