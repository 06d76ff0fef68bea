package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/game"
)

// Requester is the part of *nats.Conn the client needs.
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// Client asks a bot for moves. It is a player.Player.
type Client struct {
	nc       Requester
	channel  string
	req      Request
	timeout  time.Duration
	attempts uint
}

// NewClient makes a client asking for strategy at the given depth, or for
// duration when it is positive.
func NewClient(nc Requester, channel, strategy string, depth int, duration time.Duration) *Client {
	return &Client{
		nc:      nc,
		channel: channel,
		req: Request{
			Strategy:   strategy,
			Depth:      depth,
			DurationMS: duration.Milliseconds(),
		},
		timeout:  10*time.Second + duration,
		attempts: 3,
	}
}

func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

func (c *Client) SetAttempts(n uint) {
	c.attempts = max(1, n)
}

func (c *Client) Name() string {
	return fmt.Sprintf("bot %s (%s)", c.channel, c.req.Strategy)
}

// MakeRequest encodes a request for the position cfg.
func (c *Client) MakeRequest(cfg game.Configuration) ([]byte, error) {
	state, err := cfg.Serialize()
	if err != nil {
		return nil, err
	}
	req := c.req
	req.State = state
	return json.Marshal(req)
}

// Move sends the position to the bot and returns its answer. Requests
// that time out or find no responder are retried with back-off.
func (c *Client) Move(ctx context.Context, cfg game.Configuration) (game.Movement, bool, error) {
	data, err := c.MakeRequest(cfg)
	if err != nil {
		return game.Movement{}, false, err
	}
	var res *nats.Msg
	err = retry.Do(
		func() error {
			rctx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			res, err = c.nc.RequestWithContext(rctx, c.channel, data)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("bot-did-not-answer-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		log.Error().Msgf("%v for request", err)
		return game.Movement{}, false, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))

	return decodeResponse(res.Data)
}

func decodeResponse(data []byte) (game.Movement, bool, error) {
	resp := Response{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return game.Movement{}, false, err
	}
	if resp.Error != "" {
		return game.Movement{}, false, errors.New("Bot returned: " + resp.Error)
	}
	if resp.Move == nil {
		return game.Movement{}, false, nil
	}
	return *resp.Move, true, nil
}
