package quaddle

import (
	"context"
	"testing"
)

func TestDispatcherRouting(t *testing.T) {
	var got []string
	var d Dispatcher
	d.OnReady(func(ev ReadyEvent) { got = append(got, "ready:"+ev.SessionID) })
	d.OnMessageCreate(func(ev MessageCreateEvent) { got = append(got, "msg:"+ev.Message.Content) })
	d.OnUnknown(func(ev UnknownEvent) { got = append(got, "unknown:"+ev.Tag) })
	d.OnError(func(err error) { got = append(got, "err") })

	d.Dispatch(ReadyEvent{SessionID: "s1"})
	d.Dispatch(MessageCreateEvent{Message: Message{Content: "hi"}})
	d.Dispatch(UnknownEvent{Tag: "typing_started"})
	d.Dispatch(ErrorEvent{Reason: "rate limited"})

	want := []string{"ready:s1", "msg:hi", "unknown:typing_started", "err"}
	if len(got) != len(want) {
		t.Fatalf("dispatched %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dispatched %v, want %v", got, want)
		}
	}
}

func TestDispatcherRunUntilClosed(t *testing.T) {
	conn := newScriptConn()
	conn.pushEvent(t, readyEv("s1"))
	conn.pushEvent(t, msgEv(10, "one"))
	conn.pushEvent(t, msgEv(11, "two"))

	g, _, _ := newTestGateway(t, testGatewayConfig(), conn)

	var msgs []string
	var terminal error
	var d Dispatcher
	d.OnMessageCreate(func(ev MessageCreateEvent) {
		msgs = append(msgs, ev.Message.Content)
		if len(msgs) == 2 {
			g.Close()
		}
	})
	d.OnError(func(err error) { terminal = err })

	err := d.Run(context.Background(), g)
	if !IsClosed(err) {
		t.Fatalf("Run returned %v, want closed", err)
	}
	if terminal == nil || !IsClosed(terminal) {
		t.Fatalf("terminal error not dispatched: %v", terminal)
	}
	if len(msgs) != 2 || msgs[0] != "one" || msgs[1] != "two" {
		t.Fatalf("messages = %v", msgs)
	}
}
