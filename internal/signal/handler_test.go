package signal

import (
	"runtime"
	"sync"
	"testing"
)

// A hub broadcast snapshots its targets before delivering, so a peer can
// receive a Send after its handler already tore the sender down. That must
// drop the message, never panic another peer's goroutine.
func TestSendAfterCloseIsDropped(t *testing.T) {
	out := newWSSender(nil)
	out.close()
	out.Send([]byte(`{"type":"offer"}`)) // must not panic
	out.close()                          // double close is fine
}

func TestBroadcastRacingDisconnect(t *testing.T) {
	hub := NewHub()
	roomID := hub.CreateRoom()
	a := &fakeSender{}
	hub.Join(roomID, "peer-a", a)

	for i := 0; i < 500; i++ {
		out := newWSSender(nil)
		hub.Join(roomID, "peer-b", out)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Relay(Message{Type: SignalTypeCandidate, From: "peer-a", RoomID: roomID})
		}()
		go func() {
			defer wg.Done()
			runtime.Gosched()
			hub.Leave("peer-b")
			out.close()
		}()
		wg.Wait()
	}
}
