package ap

import (
	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/applog"
	"github.com/lunatic-go/actorkit/host"
	"github.com/lunatic-go/actorkit/serializer"
	"github.com/lunatic-go/actorkit/tag"
)

// runEntry is the body of every abstract process's spawned goroutine: catch
// Init, report the outcome to the starter, then run the dispatch loop until
// a shutdown request arrives, then Terminate. It mirrors the Rust source's
// entry/startup/loop_and_handle/shutdown quartet collapsed into one
// function, since Go has no separate "process entry point" indirection to
// split them across.
func runEntry[State any, Arg any](child host.ABI, def Definition[State, Arg], parent host.ProcessIdentity, initTag tag.Tag, arg Arg, logger applog.Logger) {
	state, initErr := safeInit(child, def, arg, logger)
	if initErr != nil {
		logger.Error("ap init failed", "kind", initErr.Kind, "err", initErr.Error())
		sendStartupResult(child, parent, initTag, initErr)
		return
	}
	sendStartupResult(child, parent, initTag, nil)

	shutdown := loopAndHandle(child, def, &state)
	def.Terminate(&state)
	replyShutdown(child, shutdown)
}

// shutdownRequest is what ProcessRef.Shutdown/ShutdownTimeout send on the
// reserved shutdown handler id: who is waiting, and which tag to reply on.
// The dispatch loop decodes one from the incoming scratch buffer exactly
// like a Request handler would, since the shutdown handler is really just
// a built-in RequestHandler<()> that never gets registered by user code.
type shutdownRequest = shutdownEnvelope

func safeInit[State any, Arg any](child host.ABI, def Definition[State, Arg], arg Arg, logger applog.Logger) (state State, startupErr *aperrors.StartupError) {
	defer func() {
		if r := recover(); r != nil {
			startupErr = aperrors.NewStartupInitPanicked()
		}
	}()
	cfg := &Config[State]{abi: child, handlers: def.Handlers(), dieIfLinkDies: true, logger: logger}
	s, initErr := def.Init(cfg, arg)
	if initErr != nil {
		return state, aperrors.NewStartupCustom(initErr)
	}
	return s, nil
}

// loopAndHandle runs until the shutdown handler id is observed, returning
// the decoded shutdown request so the caller can be told the teardown
// finished.
func loopAndHandle[State any, Arg any](child host.ABI, def Definition[State, Arg], state *State) shutdownRequest {
	for {
		code, err := child.Message().Receive(nil, 0)
		if err != nil {
			panic(err)
		}
		if code == host.MessageLinkDied {
			deathTag := tag.Tag(child.Message().GetTag())
			def.HandleLinkDeath(state, deathTag)
			continue
		}

		rawTag := tag.Tag(child.Message().GetTag())
		_, handlerID := tag.ExtractU6Data(rawTag)
		if handlerID == tag.ShutdownHandlerID {
			return decodeCurrent[shutdownRequest](child, shutdownSerializer)
		}
		if handlerID == tag.IgnoreHandlerID {
			continue
		}

		h, ok := def.Handlers().byID[handlerID]
		if !ok {
			panic(aperrors.NewUnknownHandlerID(handlerID))
		}
		h.dispatch(child, state, rawTag.Uint64())
	}
}

func sendStartupResult(child host.ABI, parent host.ProcessIdentity, initTag tag.Tag, initErr *aperrors.StartupError) {
	result := startupResult{OK: initErr == nil}
	if initErr != nil {
		result.Kind = int(initErr.Kind)
		result.Message = initErr.Error()
	}
	payload, err := serializer.EncodeToBytes[startupResult](startupResultSerializer, result)
	if err != nil {
		panic(err)
	}
	m := child.Message()
	m.CreateData(initTag.Uint64(), len(payload))
	if _, err := m.WriteData(payload); err != nil {
		panic(err)
	}
	if err := m.Send(parent); err != nil {
		panic(err)
	}
}

func replyShutdown(child host.ABI, req shutdownRequest) {
	m := child.Message()
	m.CreateData(req.ReplyTag, 0)
	if err := m.Send(req.Caller); err != nil {
		panic(err)
	}
}
