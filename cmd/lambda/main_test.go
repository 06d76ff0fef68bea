package main

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blobwar/board"
	"github.com/domino14/blobwar/bot"
	"github.com/domino14/blobwar/config"
	"github.com/domino14/blobwar/game"
)

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	state, err := game.New(board.Default()).Serialize()
	is.NoErr(err)
	evt := bot.LambdaEvent{
		Request: bot.Request{State: state, Strategy: "alphabeta", Depth: 2},
		GameID:  "foo",
	}
	handler = &bot.LambdaHandler{Bot: bot.NewBot(config.DefaultConfig())}
	resp, err := HandleRequest(context.Background(), evt)
	is.NoErr(err)
	is.Equal(resp.Error, "")
	is.True(resp.Move != nil)
	is.True(game.New(board.Default()).CheckMove(*resp.Move))
}
