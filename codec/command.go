// Package codec decodes the delta run-length frame format.
//
// A frame is a sequence of commands, each covering a run of pixels in
// row-major order starting at pixel 0. Command byte layout:
//
//	bits 7-6  kind (0 skip, 1 white, 2 black, 3 flip)
//	bit  5    extended length flag
//	bits 4-0  base length - 1
//
// With the extended flag set, up to two continuation bytes follow. Each adds
// ((b & 0x7F) + 1) << shift to the length, shift starting at 5 and growing by 7;
// bit 7 of a continuation byte means another one follows.
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedStream reports a continuation byte missing at the end of the payload
	ErrTruncatedStream = errors.New("truncated command stream")
	// ErrRunOutOfBounds reports a command run extending past the canvas
	ErrRunOutOfBounds = errors.New("command run out of bounds")
	// ErrLengthOverflow reports a length needing more continuation bytes than allowed
	ErrLengthOverflow = errors.New("command length exceeds continuation limit")
)

// Kind selects the operation applied to a run
type Kind uint8

const (
	KindSkip  Kind = 0
	KindWhite Kind = 1
	KindBlack Kind = 2
	KindFlip  Kind = 3
)

var kindNames = [...]string{"skip", "white", "black", "flip"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

const (
	// MaxContinuation is the number of continuation bytes a command may carry
	MaxContinuation = 2

	// MaxRunLength is the longest run encodable with MaxContinuation bytes
	MaxRunLength = 0x1F + (0x80 << 5) + (0x80 << 12) + 1

	kindShift    = 6
	extendedFlag = 0x20
	baseMask     = 0x1F
	moreFlag     = 0x80
	contMask     = 0x7F
)

// Command is one decoded run
type Command struct {
	Kind   Kind
	Length int
}

func (c Command) String() string {
	return fmt.Sprintf("%s×%d", c.Kind, c.Length)
}

// DecodeCommand decodes the command at the start of buf.
// It returns the command and the number of bytes consumed; an empty buf
// yields zero bytes and no error. It never reads past len(buf)
func DecodeCommand(buf []byte) (Command, int, error) {
	if len(buf) == 0 {
		return Command{}, 0, nil
	}

	b := buf[0]
	cmd := Command{Kind: Kind(b >> kindShift)}
	length := int(b & baseMask)
	n := 1

	if b&extendedFlag != 0 {
		shift := 5
		for {
			if n > MaxContinuation {
				return Command{}, n, fmt.Errorf("%w: more than %d continuation bytes", ErrLengthOverflow, MaxContinuation)
			}
			if n >= len(buf) {
				return Command{}, n, fmt.Errorf("%w: need continuation byte %d, have %d bytes", ErrTruncatedStream, n, len(buf))
			}
			b = buf[n]
			length += (int(b&contMask) + 1) << shift
			shift += 7
			n++
			if b&moreFlag == 0 {
				break
			}
		}
	}

	cmd.Length = length + 1
	return cmd, n, nil
}
