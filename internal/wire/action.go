package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ActionSize is the fixed wire size of every action: a 4-byte tag followed
// by a 20-byte union sized for the largest variant.
const ActionSize = 24

// ActionKind discriminates the Action variants.
type ActionKind uint32

// Action variants. The zero tag is NoAction.
const (
	NoAction           ActionKind = 0
	KeyPressed         ActionKind = 1
	MouseButtonPressed ActionKind = 2
)

func (k ActionKind) String() string {
	switch k {
	case NoAction:
		return "none"
	case KeyPressed:
		return "key"
	case MouseButtonPressed:
		return "mouse"
	default:
		return fmt.Sprintf("action(%d)", uint32(k))
	}
}

// Action is a remote-control event sent from a client to the producer.
// Only the fields belonging to Kind are meaningful.
type Action struct {
	Kind ActionKind

	// Key holds up to four key bytes, zero padded. Not necessarily
	// NUL-terminated.
	Key [4]byte

	// Button, X and Y describe a mouse click. X and Y are fractions of the
	// display surface in [0, 1].
	Button uint32
	X, Y   float64
}

// NewKeyPressed builds a KeyPressed action. Keys longer than four bytes are
// truncated.
func NewKeyPressed(key string) Action {
	a := Action{Kind: KeyPressed}
	copy(a.Key[:], key)
	return a
}

// NewMouseButtonPressed builds a MouseButtonPressed action.
func NewMouseButtonPressed(button uint32, x, y float64) Action {
	return Action{Kind: MouseButtonPressed, Button: button, X: x, Y: y}
}

// KeyString returns the key bytes up to the first NUL.
func (a Action) KeyString() string {
	if i := bytes.IndexByte(a.Key[:], 0); i >= 0 {
		return string(a.Key[:i])
	}
	return string(a.Key[:])
}

func (a Action) String() string {
	switch a.Kind {
	case KeyPressed:
		return fmt.Sprintf("key(%q)", a.KeyString())
	case MouseButtonPressed:
		return fmt.Sprintf("mouse(button=%d x=%.4f y=%.4f)", a.Button, a.X, a.Y)
	default:
		return a.Kind.String()
	}
}

// AppendAction appends the fixed-size encoding of a to buf. Bytes not used
// by the variant are zero.
func AppendAction(buf []byte, a Action) []byte {
	var b [ActionSize]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(a.Kind))
	switch a.Kind {
	case KeyPressed:
		copy(b[4:8], a.Key[:])
	case MouseButtonPressed:
		binary.BigEndian.PutUint32(b[4:8], a.Button)
		binary.BigEndian.PutUint64(b[8:16], math.Float64bits(a.X))
		binary.BigEndian.PutUint64(b[16:24], math.Float64bits(a.Y))
	}
	return append(buf, b[:]...)
}

// EncodeAction returns the fixed-size encoding of a.
func EncodeAction(a Action) []byte {
	return AppendAction(make([]byte, 0, ActionSize), a)
}

// WriteAction writes a with a single Write call.
func WriteAction(w io.Writer, a Action) error {
	_, err := w.Write(EncodeAction(a))
	return err
}

// DecodeAction parses one action from exactly ActionSize bytes.
func DecodeAction(b []byte) (Action, error) {
	if len(b) < ActionSize {
		return Action{}, &ParseError{Field: "action", Err: fmt.Errorf("%w: have %d of %d bytes", ErrTruncated, len(b), ActionSize)}
	}
	a := Action{Kind: ActionKind(binary.BigEndian.Uint32(b[0:4]))}
	switch a.Kind {
	case NoAction:
	case KeyPressed:
		copy(a.Key[:], b[4:8])
	case MouseButtonPressed:
		a.Button = binary.BigEndian.Uint32(b[4:8])
		a.X = math.Float64frombits(binary.BigEndian.Uint64(b[8:16]))
		a.Y = math.Float64frombits(binary.BigEndian.Uint64(b[16:24]))
	default:
		return Action{}, &ParseError{Field: "action_type", Err: fmt.Errorf("%w: %d", ErrUnknownAction, uint32(a.Kind))}
	}
	return a, nil
}

// ReadAction reads one fixed-size action frame from r.
func ReadAction(r io.Reader) (Action, error) {
	var b [ActionSize]byte
	if err := readFull(r, b[:], "action", true); err != nil {
		return Action{}, err
	}
	return DecodeAction(b[:])
}
