package protocol

// HandshakeStatus represents the result of a handshake.
type HandshakeStatus uint8

const (
	HandshakeOK              HandshakeStatus = 0x00
	HandshakeVersionMismatch HandshakeStatus = 0x01
	HandshakeSessionExpired  HandshakeStatus = 0x02 // Presented session is gone
	HandshakeServerBusy      HandshakeStatus = 0x03 // Session limit reached
	HandshakeInternalError   HandshakeStatus = 0x04 // Server error
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeSessionExpired:
		return "SessionExpired"
	case HandshakeServerBusy:
		return "ServerBusy"
	case HandshakeInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// ProtocolVersion represents a protocol version as major.minor.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the current protocol version.
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// ClientHello is sent by the client after the WebSocket connection opens.
//
// A fresh client leaves SessionID empty. A reconnecting client presents its
// previous session ID plus the last ops sequence it applied, and the server
// either replays the gap from history or resets the tree.
type ClientHello struct {
	Version   ProtocolVersion // Protocol version
	SessionID string          // Existing session ID (empty if new)
	LastSeq   uint64          // Last applied ops sequence number
}

// ServerHello is the server's response to ClientHello.
type ServerHello struct {
	Status    HandshakeStatus // Handshake result
	SessionID string          // Session ID (new or resumed)
	NextSeq   uint64          // Next ops sequence the server will send
}

// EncodeClientHello encodes a ClientHello to bytes.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	EncodeClientHelloTo(e, ch)
	return e.Bytes()
}

// EncodeClientHelloTo encodes a ClientHello using the provided encoder.
func EncodeClientHelloTo(e *Encoder, ch *ClientHello) {
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.SessionID)
	e.WriteUvarint(ch.LastSeq)
}

// DecodeClientHello decodes a ClientHello from bytes.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)
	return DecodeClientHelloFrom(d)
}

// DecodeClientHelloFrom decodes a ClientHello from a decoder.
func DecodeClientHelloFrom(d *Decoder) (*ClientHello, error) {
	ch := &ClientHello{}
	var err error

	major, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ch.Version = ProtocolVersion{Major: major, Minor: minor}

	ch.SessionID, err = d.ReadString()
	if err != nil {
		return nil, err
	}

	ch.LastSeq, err = d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

// EncodeServerHello encodes a ServerHello to bytes.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	EncodeServerHelloTo(e, sh)
	return e.Bytes()
}

// EncodeServerHelloTo encodes a ServerHello using the provided encoder.
func EncodeServerHelloTo(e *Encoder, sh *ServerHello) {
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionID)
	e.WriteUvarint(sh.NextSeq)
}

// DecodeServerHello decodes a ServerHello from bytes.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)
	return DecodeServerHelloFrom(d)
}

// DecodeServerHelloFrom decodes a ServerHello from a decoder.
func DecodeServerHelloFrom(d *Decoder) (*ServerHello, error) {
	sh := &ServerHello{}
	var err error

	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sh.Status = HandshakeStatus(status)

	sh.SessionID, err = d.ReadString()
	if err != nil {
		return nil, err
	}

	sh.NextSeq, err = d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	return sh, nil
}

// NewClientHello creates a ClientHello for a fresh session at the current
// protocol version.
func NewClientHello() *ClientHello {
	return &ClientHello{Version: CurrentVersion}
}

// NewResumeHello creates a ClientHello that resumes an existing session.
func NewResumeHello(sessionID string, lastSeq uint64) *ClientHello {
	return &ClientHello{
		Version:   CurrentVersion,
		SessionID: sessionID,
		LastSeq:   lastSeq,
	}
}

// NewServerHello creates a new successful ServerHello.
func NewServerHello(sessionID string, nextSeq uint64) *ServerHello {
	return &ServerHello{
		Status:    HandshakeOK,
		SessionID: sessionID,
		NextSeq:   nextSeq,
	}
}

// NewServerHelloError creates a ServerHello with an error status.
func NewServerHelloError(status HandshakeStatus) *ServerHello {
	return &ServerHello{
		Status: status,
	}
}
