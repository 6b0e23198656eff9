package pubsub

import "sync"

// LoopbackPrimitives is the simplest concrete Primitives (spec.md §1/§6):
// it delivers every call synchronously to a local handler, standing in for
// an in-process client that never crosses a wire at all. This is the
// implementation cmd/routerd wires up for its single-process demo.
type LoopbackPrimitives struct {
	OnSubscriber       func(key ResKey, info SubInfo, treeSID *ZInt)
	OnForgetSubscriber func(key ResKey, treeSID *ZInt)
	OnData             func(key ResKey, payload []byte, reliability Reliability, cc CongestionControl, info *DataInfo, routingContext *ZInt)
}

func (p *LoopbackPrimitives) Subscriber(key ResKey, info SubInfo, treeSID *ZInt) {
	if p.OnSubscriber != nil {
		p.OnSubscriber(key, info, treeSID)
	}
}

func (p *LoopbackPrimitives) ForgetSubscriber(key ResKey, treeSID *ZInt) {
	if p.OnForgetSubscriber != nil {
		p.OnForgetSubscriber(key, treeSID)
	}
}

func (p *LoopbackPrimitives) Data(key ResKey, payload []byte, reliability Reliability, cc CongestionControl, info *DataInfo, routingContext *ZInt) {
	if p.OnData != nil {
		p.OnData(key, payload, reliability, cc, info, routingContext)
	}
}

// RecordedCall captures one outbound Primitives invocation, as used by
// RecordingPrimitives and the declare/route test suites to assert exactly
// what the core sent without standing up a real transport.
type RecordedCall struct {
	Method         string // "subscriber", "forget_subscriber" or "data"
	Key            ResKey
	SubInfo        SubInfo
	TreeSID        *ZInt
	Payload        []byte
	Reliability    Reliability
	CC             CongestionControl
	Info           *DataInfo
	RoutingContext *ZInt
}

// RecordingPrimitives is a Primitives that appends every call it receives to
// an in-memory log, in the style of the teacher's own test doubles
// (gossipsub_spam_test.go drives assertions off captured message structs
// rather than a mock framework).
type RecordingPrimitives struct {
	mu    sync.Mutex
	Calls []RecordedCall
}

func (p *RecordingPrimitives) Subscriber(key ResKey, info SubInfo, treeSID *ZInt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, RecordedCall{Method: "subscriber", Key: key, SubInfo: info, TreeSID: treeSID})
}

func (p *RecordingPrimitives) ForgetSubscriber(key ResKey, treeSID *ZInt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, RecordedCall{Method: "forget_subscriber", Key: key, TreeSID: treeSID})
}

func (p *RecordingPrimitives) Data(key ResKey, payload []byte, reliability Reliability, cc CongestionControl, info *DataInfo, routingContext *ZInt) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, RecordedCall{
		Method:         "data",
		Key:            key,
		Payload:        payload,
		Reliability:    reliability,
		CC:             cc,
		Info:           info,
		RoutingContext: routingContext,
	})
}

// Snapshot returns a copy of the calls recorded so far.
func (p *RecordingPrimitives) Snapshot() []RecordedCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]RecordedCall, len(p.Calls))
	copy(out, p.Calls)
	return out
}

// Reset clears the call log.
func (p *RecordingPrimitives) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}
