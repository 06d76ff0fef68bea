package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/positions"
)

var errBadPoint = errors.New("expected two numbers between 0 and 7: y x")

// LineReader is satisfied by *readline.Instance.
type LineReader interface {
	Readline() (string, error)
}

type scannerReader struct {
	sc *bufio.Scanner
}

func (s scannerReader) Readline() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

// HumanPlayer asks a person for the start and end cell of each move.
type HumanPlayer struct {
	name string
	in   LineReader
	out  io.Writer
}

func NewHumanPlayer(name string, in io.Reader, out io.Writer) *HumanPlayer {
	return &HumanPlayer{name: name, in: scannerReader{bufio.NewScanner(in)}, out: out}
}

// NewHumanPlayerFromLineReader lets a readline instance drive the player.
func NewHumanPlayerFromLineReader(name string, in LineReader, out io.Writer) *HumanPlayer {
	return &HumanPlayer{name: name, in: in, out: out}
}

func (p *HumanPlayer) Name() string {
	return p.name
}

// Move prompts until it gets a legal movement. A side with no movement
// passes without being asked.
func (p *HumanPlayer) Move(ctx context.Context, c game.Configuration) (game.Movement, bool, error) {
	if !c.HasMovements() {
		fmt.Fprintln(p.out, "no movement possible, passing")
		return game.Movement{}, false, nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return game.Movement{}, false, err
		}
		start, err := p.readPoint("enter start point")
		if err != nil {
			return game.Movement{}, false, err
		}
		end, err := p.readPoint("enter end point")
		if err != nil {
			return game.Movement{}, false, err
		}
		m, err := game.MovementFromCells(start, end)
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		if !c.CheckMove(m) {
			log.Debug().Stringer("move", m).Msg("illegal-human-move")
			fmt.Fprintf(p.out, "%v is not a legal move\n", m)
			continue
		}
		return m, true, nil
	}
}

func (p *HumanPlayer) readPoint(prompt string) (positions.Position, error) {
	for {
		fmt.Fprintln(p.out, prompt)
		line, err := p.in.Readline()
		if err != nil {
			return 0, err
		}
		pos, err := parsePoint(line)
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		return pos, nil
	}
}

// parsePoint reads "y x".
func parsePoint(line string) (positions.Position, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, errBadPoint
	}
	var coords [2]int
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 || v >= positions.Dim {
			return 0, errBadPoint
		}
		coords[i] = v
	}
	return positions.FromXY(coords[1], coords[0]), nil
}
