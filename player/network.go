package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/strategy"
)

// NetworkPlayer is a program at the other end of a connection. Each turn
// it receives the serialized state on one line and answers with one line
// of JSON: a movement, or null to pass.
type NetworkPlayer struct {
	name string
	conn net.Conn
	r    *bufio.Reader
}

func NewNetworkPlayer(conn net.Conn) *NetworkPlayer {
	return &NetworkPlayer{
		name: "remote " + conn.RemoteAddr().String(),
		conn: conn,
		r:    bufio.NewReader(conn),
	}
}

func (p *NetworkPlayer) Name() string {
	return p.name
}

func (p *NetworkPlayer) Move(ctx context.Context, c game.Configuration) (game.Movement, bool, error) {
	// unblock reads and writes once ctx is done.
	stop := context.AfterFunc(ctx, func() {
		p.conn.SetDeadline(time.Now())
	})
	defer stop()

	state, err := c.Serialize()
	if err != nil {
		return game.Movement{}, false, err
	}
	if _, err := io.WriteString(p.conn, state+"\n"); err != nil {
		return game.Movement{}, false, p.wrap(ctx, err)
	}
	line, err := p.r.ReadBytes('\n')
	if err != nil {
		return game.Movement{}, false, p.wrap(ctx, err)
	}
	m, ok, err := game.DecodeOptional(line)
	if err != nil {
		return game.Movement{}, false, fmt.Errorf("bad answer from %s: %w", p.name, err)
	}
	log.Debug().Str("player", p.name).Bool("pass", !ok).Msg("received-remote-move")
	return m, ok, nil
}

func (p *NetworkPlayer) wrap(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *NetworkPlayer) Close() error {
	return p.conn.Close()
}

// ServeRemote is the other end of a NetworkPlayer: it answers every
// state received on conn with the strategy's move, until the connection
// closes.
func ServeRemote(ctx context.Context, conn net.Conn, s strategy.Strategy) error {
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		c, err := game.ParseState(trimNewline(line))
		if err != nil {
			return err
		}
		m, ok, err := s.BestMove(ctx, c)
		if err != nil {
			return err
		}
		out, err := game.EncodeOptional(m, ok)
		if err != nil {
			return err
		}
		log.Debug().Bool("pass", !ok).Str("answer", string(out)).Msg("answering-remote")
		if _, err := conn.Write(append(out, '\n')); err != nil {
			return err
		}
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
