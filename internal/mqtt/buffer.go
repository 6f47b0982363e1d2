package mqtt

import "log"

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox is a fixed-capacity FIFO holding messages that could not be sent
// while the broker was unreachable. When full, the oldest message is
// dropped. Not safe for concurrent use — caller must synchronize.
type outbox struct {
	msgs     []queuedMsg
	capacity int
	head     int // next write position
	count    int
	dropped  bool // true if any message was dropped since last drain
}

func newOutbox(capacity int) *outbox {
	return &outbox{
		msgs:     make([]queuedMsg, capacity),
		capacity: capacity,
	}
}

func (o *outbox) push(msg queuedMsg) {
	if o.count == o.capacity {
		if !o.dropped {
			log.Printf("mqtt: outbox full (%d messages), dropping oldest", o.capacity)
			o.dropped = true
		}
		// head points at the oldest entry; overwrite it
		o.msgs[o.head] = msg
		o.head = (o.head + 1) % o.capacity
		return
	}
	o.msgs[o.head] = msg
	o.head = (o.head + 1) % o.capacity
	o.count++
}

func (o *outbox) len() int { return o.count }

// drain removes and returns all queued messages, oldest first.
func (o *outbox) drain() []queuedMsg {
	if o.count == 0 {
		return nil
	}
	out := make([]queuedMsg, 0, o.count)
	start := (o.head - o.count + o.capacity) % o.capacity
	for i := 0; i < o.count; i++ {
		out = append(out, o.msgs[(start+i)%o.capacity])
	}
	o.count = 0
	o.head = 0
	o.dropped = false
	return out
}
