package shell

import (
	"context"
	"errors"
	"net/http"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

type scriptContext struct {
	sc  *ShellController
	ctx context.Context
}

func getShell(L *lua.LState) *scriptContext {
	shell := L.GetGlobal("blobwar_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	s, ok := ud.Value.(*scriptContext)
	if !ok {
		panic("shellcontroller not right type")
	}
	return s
}

// Run executes a shell command line and returns its output, or
// "ERROR: ..." if it failed.
func Run(L *lua.LState) int {
	line := L.CheckString(1)
	s := getShell(L)
	r, err := s.sc.Execute(s.ctx, line)
	if errors.Is(err, errQuit) {
		L.RaiseError("exit is not allowed in scripts")
		return 0
	}
	if err != nil {
		log.Err(err).Str("line", line).Msg("error-executing-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	out := ""
	if r != nil {
		out = r.message
	}
	L.Push(lua.LString(out))
	// return number of results pushed to stack.
	return 1
}

// State returns the serialized position, or nil without a game.
func State(L *lua.LState) int {
	s := getShell(L)
	if !s.sc.hasGame {
		L.Push(lua.LNil)
		return 1
	}
	state, err := s.sc.game.Serialize()
	if err != nil {
		L.RaiseError("%v", err)
		return 0
	}
	L.Push(lua.LString(state))
	return 1
}

// Moves returns the legal movements as a list of strings.
func Moves(L *lua.LState) int {
	s := getShell(L)
	tbl := L.NewTable()
	if s.sc.hasGame {
		for _, m := range s.sc.game.Movements() {
			tbl.Append(lua.LString(m.String()))
		}
	}
	L.Push(tbl)
	return 1
}

func (sc *ShellController) script(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{}).Loader)

	lsc := L.NewUserData()
	lsc.Value = &scriptContext{sc: sc, ctx: ctx}

	L.SetGlobal("blobwar_shell", lsc)
	L.SetGlobal("blobwar_run", L.NewFunction(Run))
	L.SetGlobal("blobwar_state", L.NewFunction(State))
	L.SetGlobal("blobwar_moves", L.NewFunction(Moves))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
