package protocol

// Event represents a user interaction reported by the client.
//
// Node is the handle that holds the listener and Name is the event name the
// listener was registered under ("click", "input"). Value carries the
// optional payload, such as the current value of an input control, and is
// empty for events that have none. Seq is assigned by the client and
// increments per event so the server can spot drops and reordering.
type Event struct {
	Seq   uint64
	Node  uint64
	Name  string
	Value string
}

// EncodeEvent encodes an event to bytes.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	EncodeEventTo(e, ev)
	return e.Bytes()
}

// EncodeEventTo encodes an event using the provided encoder.
func EncodeEventTo(e *Encoder, ev *Event) {
	e.WriteUvarint(ev.Seq)
	e.WriteUvarint(ev.Node)
	e.WriteString(ev.Name)
	e.WriteString(ev.Value)
}

// DecodeEvent decodes an event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	return DecodeEventFrom(d)
}

// DecodeEventFrom decodes an event from a decoder.
func DecodeEventFrom(d *Decoder) (*Event, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	node, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	name, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	value, err := d.ReadString()
	if err != nil {
		return nil, err
	}

	return &Event{
		Seq:   seq,
		Node:  node,
		Name:  name,
		Value: value,
	}, nil
}
