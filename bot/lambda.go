package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/blobwar/game"
)

// HardTimeLimit caps the search time a lambda event may ask for.
const HardTimeLimit = 180 * time.Second

// LambdaEvent is a move request sent to a function. When ReplyChannel is
// set the answer is also published there.
type LambdaEvent struct {
	Request
	GameID       string `json:"game_id,omitempty"`
	ReplyChannel string `json:"reply_channel,omitempty"`
}

// Replier is the part of *nats.Conn the lambda handler needs.
type Replier interface {
	Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error)
}

// LambdaHandler answers lambda events with a Bot.
type LambdaHandler struct {
	Bot *Bot
	// NC may be nil if no event carries a reply channel.
	NC Replier
}

// Handle answers evt. It blocks until the answer has been acknowledged
// on the reply channel, if there is one.
func (h *LambdaHandler) Handle(ctx context.Context, evt LambdaEvent) (*Response, error) {
	logger := log.With().Str("gameID", evt.GameID).Logger()

	limit := HardTimeLimit
	if evt.DurationMS > 0 {
		limit = min(limit, time.Duration(evt.DurationMS)*time.Millisecond+5*time.Second)
	}
	logger.Info().Str("state", evt.State).Dur("limit", limit).Msg("time-management")
	ctx, cancel := context.WithTimeout(ctx, limit)
	resp := h.Bot.Answer(ctx, &evt.Request)
	cancel()

	if evt.ReplyChannel == "" {
		logger.Info().Msg("exiting-fn")
		return resp, nil
	}
	if h.NC == nil {
		return nil, errors.New("event has a reply channel but there is no nats connection")
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("move-success-sending-via-nats")
	err = retry.Do(
		func() error {
			// Only the acknowledgement matters, not its contents.
			_, err := h.NC.Request(evt.ReplyChannel, data, 3*time.Second)
			return err
		},
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			logger.Err(err).Uint("n", n).Msg("did-not-receive-ack-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		logger.Err(err).Msg("bot-move-failed")
		return nil, err
	}
	logger.Info().Msg("exiting-fn")
	return resp, nil
}

// Invoker is the part of *lambda.Client the lambda player needs.
type Invoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaClient asks a deployed function for moves. It is a
// player.Player.
type LambdaClient struct {
	invoker  Invoker
	function string
	req      Request
}

func NewLambdaClient(invoker Invoker, function, strategy string, depth int, duration time.Duration) *LambdaClient {
	return &LambdaClient{
		invoker:  invoker,
		function: function,
		req: Request{
			Strategy:   strategy,
			Depth:      depth,
			DurationMS: duration.Milliseconds(),
		},
	}
}

// NewLambdaClientFromEnv uses the default AWS credential chain.
func NewLambdaClientFromEnv(ctx context.Context, function, strategy string, depth int, duration time.Duration) (*LambdaClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return NewLambdaClient(lambda.NewFromConfig(cfg), function, strategy, depth, duration), nil
}

func (c *LambdaClient) Name() string {
	return fmt.Sprintf("lambda %s (%s)", c.function, c.req.Strategy)
}

func (c *LambdaClient) Move(ctx context.Context, cfg game.Configuration) (game.Movement, bool, error) {
	state, err := cfg.Serialize()
	if err != nil {
		return game.Movement{}, false, err
	}
	evt := LambdaEvent{Request: c.req}
	evt.State = state
	payload, err := json.Marshal(evt)
	if err != nil {
		return game.Movement{}, false, err
	}
	out, err := c.invoker.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(c.function),
		Payload:      payload,
	})
	if err != nil {
		return game.Movement{}, false, err
	}
	if out.FunctionError != nil {
		return game.Movement{}, false, fmt.Errorf("function %s failed: %s: %s",
			c.function, aws.ToString(out.FunctionError), string(out.Payload))
	}
	return decodeResponse(out.Payload)
}
