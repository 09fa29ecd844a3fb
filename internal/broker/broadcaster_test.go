package broker_test

import (
	"testing"

	"github.com/myrjola/mugshots/internal/broker"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster(t *testing.T) {
	type testCase struct {
		name     string
		testFunc func(b *broker.Broadcaster[string, bool])
	}
	tests := []testCase{
		{
			name: "every subscriber receives the payload",
			testFunc: func(b *broker.Broadcaster[string, bool]) {
				first, unsubscribeFirst := b.Subscribe("a")
				defer unsubscribeFirst()
				second, unsubscribeSecond := b.Subscribe("a")
				defer unsubscribeSecond()
				other, unsubscribeOther := b.Subscribe("b")
				defer unsubscribeOther()

				b.Publish("a", true)
				require.True(t, <-first)
				require.True(t, <-second)
				require.Empty(t, other, "subscriber of another ID received content")
			},
		},
		{
			name: "late subscriber receives the latest payload",
			testFunc: func(b *broker.Broadcaster[string, bool]) {
				b.Publish("a", true)
				b.Publish("a", false)
				c, unsubscribe := b.Subscribe("a")
				defer unsubscribe()
				require.False(t, <-c)
			},
		},
		{
			name: "slow subscriber gets the newest payload",
			testFunc: func(b *broker.Broadcaster[string, bool]) {
				c, unsubscribe := b.Subscribe("a")
				defer unsubscribe()
				b.Publish("a", true)
				b.Publish("a", false)
				// Subscribing again is a round trip through the broadcaster, so both publications are handled.
				_, unsubscribeSync := b.Subscribe("sync")
				unsubscribeSync()
				require.False(t, <-c)
				require.Empty(t, c)
			},
		},
		{
			name: "unsubscribe closes the channel",
			testFunc: func(b *broker.Broadcaster[string, bool]) {
				c, unsubscribe := b.Subscribe("a")
				unsubscribe()
				_, ok := <-c
				require.False(t, ok, "channel not closed")
			},
		},
		{
			name: "forget closes the channel and drops the latest payload",
			testFunc: func(b *broker.Broadcaster[string, bool]) {
				b.Publish("a", true)
				c, unsubscribe := b.Subscribe("a")
				require.True(t, <-c)
				b.Forget("a")
				_, ok := <-c
				require.False(t, ok, "channel not closed")
				unsubscribe()

				c, unsubscribe = b.Subscribe("a")
				defer unsubscribe()
				_, unsubscribeSync := b.Subscribe("sync")
				unsubscribeSync()
				require.Empty(t, c, "forgotten payload was replayed")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := broker.NewBroadcaster[string, bool]()
			go br.Start()
			t.Cleanup(func() {
				br.Stop()
			})
			tt.testFunc(br)
		})
	}
}

func TestBroadcaster_stop(t *testing.T) {
	br := broker.NewBroadcaster[string, bool]()
	go br.Start()
	c, unsubscribe := br.Subscribe("a")
	br.Stop()
	_, ok := <-c
	require.False(t, ok, "channel not closed on stop")
	unsubscribe()
	br.Publish("a", true)

	c, _ = br.Subscribe("a")
	_, ok = <-c
	require.False(t, ok)
	br.Stop()
}
