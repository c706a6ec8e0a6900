package aptime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunatic-go/actorkit/ap"
	"github.com/lunatic-go/actorkit/aperrors"
	"github.com/lunatic-go/actorkit/hostsim"
	"github.com/lunatic-go/actorkit/serializer"
)

type echoState struct {
	last string
}

type ping struct{ Text string }
type query struct{}

type echo struct {
	ap.DefaultLifecycle[echoState]
}

var (
	echoHandlersOnce sync.Once
	echoHandlers     *ap.Handlers[echoState]
)

func (echo) Init(cfg *ap.Config[echoState], _ struct{}) (echoState, error) {
	return echoState{}, nil
}

func (echo) Handlers() *ap.Handlers[echoState] {
	echoHandlersOnce.Do(func() {
		echoHandlers = ap.NewHandlers[echoState]()
		ap.Message(echoHandlers, serializer.NewMsgPack[ping](), func(s *echoState, msg ping) {
			s.last = msg.Text
		})
		ap.Request(echoHandlers, serializer.NewMsgPack[query](), serializer.NewMsgPack[string](),
			func(s *echoState, _ query) string { return s.last })
	})
	return echoHandlers
}

func TestRequestRespectsTimeoutBound(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := ap.Start[echoState, struct{}](self, echo{}, struct{}{})
	require.NoError(t, err)
	defer ref.Shutdown(self)

	bounded := WithTimeout(ref, 50*time.Millisecond)
	out, err := Request[echoState, query, string](self, bounded, serializer.NewMsgPack[query](), query{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestShutdownRespectsTimeoutBoundOnDeadProcess(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := ap.Start[echoState, struct{}](self, echo{}, struct{}{})
	require.NoError(t, err)
	require.NoError(t, ref.Kill(self))

	bounded := WithTimeout(ref, 30*time.Millisecond)
	err = bounded.Shutdown(self)
	require.Error(t, err)
	assert.True(t, aperrors.IsTimeout(err))
}

func TestDelayedSendSchedulesDelivery(t *testing.T) {
	world := hostsim.New()
	defer world.Close()
	self := world.Root()

	ref, err := ap.Start[echoState, struct{}](self, echo{}, struct{}{})
	require.NoError(t, err)
	defer ref.Shutdown(self)

	delayed := WithDelay(ref, 30*time.Millisecond)
	start := time.Now()
	_, err = Send[echoState, ping](self, delayed, serializer.NewMsgPack[ping](), ping{Text: "later"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		out := ap.Request[echoState, query, string](self, ref, serializer.NewMsgPack[query](), query{})
		return out == "later"
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
