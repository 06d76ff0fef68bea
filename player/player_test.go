package player

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/positions"
	"github.com/domino14/blobwar/strategy"
)

func TestParsePoint(t *testing.T) {
	is := is.New(t)
	p, err := parsePoint(" 2 5 ")
	is.NoErr(err)
	is.Equal(p, positions.FromXY(5, 2))
	for _, bad := range []string{"", "1", "1 2 3", "a b", "8 0", "-1 3"} {
		_, err := parsePoint(bad)
		is.True(errors.Is(err, errBadPoint)) // bad input
	}
}

func TestHumanRepromptsUntilLegal(t *testing.T) {
	is := is.New(t)
	c := game.New(board.Default())
	in := strings.Join([]string{
		"zero zero", // malformed
		"0 0",
		"0 5", // too far
		"3 3",
		"3 4", // no red piece next to it
		"0 0",
		"2 2", // jump from the corner
	}, "\n")
	var out bytes.Buffer
	h := NewHumanPlayer("alice", strings.NewReader(in), &out)
	m, ok, err := h.Move(context.Background(), c)
	is.NoErr(err)
	is.True(ok)
	is.Equal(m, game.NewJump(0, positions.FromXY(2, 2)))
	is.True(strings.Contains(out.String(), "enter start point"))
	is.True(strings.Contains(out.String(), "not a legal move"))
	is.Equal(h.Name(), "alice")
}

func TestHumanEOF(t *testing.T) {
	is := is.New(t)
	h := NewHumanPlayer("bob", strings.NewReader("0 0\n"), io.Discard)
	_, _, err := h.Move(context.Background(), game.New(board.Default()))
	is.True(errors.Is(err, io.EOF))
}

func TestHumanPassesWithoutMovement(t *testing.T) {
	is := is.New(t)
	b := board.New(positions.FromSlice(1, 2, 8, 9, 10, 16, 17, 18))
	blue := positions.All &^ (b.Holes | positions.FromSlice(0, 63))
	c, err := game.FromBlobs(b, positions.Single(0), blue, false)
	is.NoErr(err)
	h := NewHumanPlayer("carol", strings.NewReader(""), io.Discard)
	_, ok, err := h.Move(context.Background(), c)
	is.NoErr(err)
	is.True(!ok)
}

func TestNetworkRoundTrip(t *testing.T) {
	is := is.New(t)
	local, remote := net.Pipe()
	st, err := strategy.New(strategy.AlphaBetaKind, 2)
	is.NoErr(err)

	served := make(chan error, 1)
	go func() {
		served <- ServeRemote(context.Background(), remote, st)
	}()

	np := NewNetworkPlayer(local)
	c := game.New(board.Default())
	m, ok, err := np.Move(context.Background(), c)
	is.NoErr(err)
	is.True(ok)
	want, _, err := st.BestMove(context.Background(), c)
	is.NoErr(err)
	is.Equal(m, want)

	// the remote side passes when it has nothing to play.
	b := board.New(positions.FromSlice(1, 2, 8, 9, 10, 16, 17, 18))
	blue := positions.All &^ (b.Holes | positions.FromSlice(0, 63))
	blocked, err := game.FromBlobs(b, positions.Single(0), blue, false)
	is.NoErr(err)
	_, ok, err = np.Move(context.Background(), blocked)
	is.NoErr(err)
	is.True(!ok)

	is.NoErr(np.Close())
	is.NoErr(<-served)
}

func TestNetworkBadAnswer(t *testing.T) {
	is := is.New(t)
	local, remote := net.Pipe()
	go func() {
		buf := make([]byte, board.StateLen+1)
		io.ReadFull(remote, buf)
		remote.Write([]byte("{\"Teleport\":3}\n"))
	}()
	np := NewNetworkPlayer(local)
	_, _, err := np.Move(context.Background(), game.New(board.Default()))
	is.True(err != nil)
	np.Close()
	remote.Close()
}

func TestNetworkCancelled(t *testing.T) {
	is := is.New(t)
	local, remote := net.Pipe()
	defer remote.Close()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		buf := make([]byte, board.StateLen+1)
		io.ReadFull(remote, buf)
		// never answer
		cancel()
	}()
	np := NewNetworkPlayer(local)
	defer np.Close()
	_, _, err := np.Move(ctx, game.New(board.Default()))
	is.True(errors.Is(err, context.Canceled))
}

func TestAIPlayer(t *testing.T) {
	is := is.New(t)
	p := NewAIPlayer(strategy.Greedy{})
	is.Equal(p.Name(), "greedy")
	m, ok, err := p.Move(context.Background(), game.New(board.Default()))
	is.NoErr(err)
	is.True(ok)
	is.Equal(m, game.NewDuplicate(1))
}
