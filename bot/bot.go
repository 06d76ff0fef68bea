// Package bot serves moves over NATS: a request carries a serialized
// position and a strategy, the reply carries the chosen movement.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/anytime"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/game"
	"github.com/domino14/blobwar/strategy"
)

// Request asks for a move in State, the 65-character serialized
// position. DurationMS, when positive, searches under the anytime driver
// for that long and Depth is ignored.
type Request struct {
	State      string `json:"state"`
	Strategy   string `json:"strategy"`
	Depth      int    `json:"depth,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

// Response carries the movement, null for a pass, or an error.
type Response struct {
	Move  *game.Movement `json:"move"`
	Error string         `json:"error,omitempty"`
}

type Bot struct {
	config *config.Config
}

func NewBot(cfg *config.Config) *Bot {
	return &Bot{config: cfg}
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Error: msg}
}

// strategyFor builds the strategy a request asks for, filling blanks from
// the configuration.
func (bot *Bot) strategyFor(req *Request) (strategy.Strategy, error) {
	name := req.Strategy
	if name == "" {
		name = bot.config.GetString(config.ConfigDefaultStrategy)
	}
	kind, err := strategy.KindFromName(name)
	if err != nil {
		return nil, err
	}
	opts := []strategy.Option{
		strategy.WithThreads(bot.config.GetInt(config.ConfigThreads)),
		strategy.WithTableSize(bot.config.GetFloat64(config.ConfigTTFractionOfMem),
			bot.config.GetInt(config.ConfigTTMaxSizePower)),
	}
	if req.DurationMS > 0 {
		return anytime.NewIterative(kind, time.Duration(req.DurationMS)*time.Millisecond, opts...), nil
	}
	depth := req.Depth
	if depth <= 0 {
		depth = bot.config.GetInt(config.ConfigDefaultDepth)
	}
	return strategy.New(kind, depth, opts...)
}

func (bot *Bot) handle(ctx context.Context, data []byte) *Response {
	req := Request{}
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("Could not parse request", err)
	}
	return bot.Answer(ctx, &req)
}

// Answer searches the requested position. Failures are reported in the
// response rather than returned, so that they reach the requester.
func (bot *Bot) Answer(ctx context.Context, req *Request) *Response {
	c, err := game.ParseState(req.State)
	if err != nil {
		return errorResponse("Could not parse state", err)
	}
	st, err := bot.strategyFor(req)
	if err != nil {
		return errorResponse("Could not create AI player", err)
	}
	m, ok, err := st.BestMove(ctx, c)
	if err != nil {
		return errorResponse("Search failed", err)
	}
	if !ok {
		log.Info().Str("strategy", st.String()).Msg("generated-pass")
		return &Response{}
	}
	log.Info().Str("strategy", st.String()).Stringer("move", m).Msg("generated-move")
	return &Response{Move: &m}
}

// Main answers requests on channel until ctx is done.
func Main(ctx context.Context, channel string, bot *Bot) error {
	nc, err := nats.Connect(bot.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	_, err = nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		resp := bot.handle(ctx, m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, but the requester still needs an answer.
			m.Respond([]byte(err.Error()))
			return
		}
		m.Respond(data)
	})
	if err != nil {
		return err
	}
	nc.Flush()
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)

	<-ctx.Done()
	if err := nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return err
	}
	return nil
}
