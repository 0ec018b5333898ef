package quaddle

import "context"

// Dispatcher routes gateway events to registered callbacks, for hosts that
// prefer handlers over driving the poll loop themselves.
type Dispatcher struct {
	onReady         func(ReadyEvent)
	onMessageCreate func(MessageCreateEvent)
	onUnknown       func(UnknownEvent)
	onError         func(error)
}

func (d *Dispatcher) OnReady(fn func(ReadyEvent))                 { d.onReady = fn }
func (d *Dispatcher) OnMessageCreate(fn func(MessageCreateEvent)) { d.onMessageCreate = fn }
func (d *Dispatcher) OnUnknown(fn func(UnknownEvent))             { d.onUnknown = fn }
func (d *Dispatcher) OnError(fn func(error))                      { d.onError = fn }

// Dispatch routes one event to its callback. Server error events reach the
// error callback as a protocol-kind Error.
func (d *Dispatcher) Dispatch(ev GatewayEvent) {
	switch e := ev.(type) {
	case ReadyEvent:
		if d.onReady != nil {
			d.onReady(e)
		}
	case MessageCreateEvent:
		if d.onMessageCreate != nil {
			d.onMessageCreate(e)
		}
	case ErrorEvent:
		if d.onError != nil {
			d.onError(NewError(KindProtocol, e.Reason))
		}
	case UnknownEvent:
		if d.onUnknown != nil {
			d.onUnknown(e)
		}
	}
}

// Run polls the gateway until it terminates, dispatching every event. The
// terminal error (or ctx error) is returned; it also reaches the error
// callback so handler-only hosts see the end of the stream.
func (d *Dispatcher) Run(ctx context.Context, g *Gateway) error {
	for {
		ev, err := g.Next(ctx)
		if err != nil {
			if d.onError != nil {
				d.onError(err)
			}
			return err
		}
		d.Dispatch(ev)
	}
}
