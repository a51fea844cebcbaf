/*
Package der implements a minimal recursive decoder for DER-encoded
(tag-length-value) structures.

Only what is needed to walk an X.509 certificate down to its public key
is supported: single-byte tags (tag numbers below 31), definite lengths
in short and long form, and constructed nodes whose children must
exactly cover the declared value. Everything else is rejected.
*/
package der

import (
	"errors"
	"fmt"
)

// ErrMalformed is returned for any input whose declared tags, lengths,
// or offsets cannot be satisfied by the buffer. Inputs failing with this
// error are unusable and must be discarded by the caller.
var ErrMalformed = errors.New("malformed DER encoding")

// TagClass is the 2-bit class discriminant of a DER tag byte.
type TagClass uint8

const (
	ClassUniversal TagClass = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

// Universal tag numbers used by the certificate schema.
const (
	TagInteger   = 2
	TagBitString = 3
	TagSequence  = 16
)

// maxDepth bounds recursive descent. Certificates nest 6-8 levels deep;
// anything deeper is adversarial input.
const maxDepth = 16

// maxLength caps a single declared value length, mirroring the size cap
// on raw inputs. Certificates are a few KiB; 16 MiB is already absurd.
const maxLength = 16 * 1024 * 1024

// Node is one decoded TLV element. Value is a read-only slice into the
// decode input, exclusive of the node's own tag and length prefix.
// Children is populated only for constructed nodes and their byte ranges
// are contiguous, covering Value exactly.
type Node struct {
	Class       TagClass
	Tag         int
	Constructed bool
	Value       []byte
	Children    []Node
}

// Decode decodes a single TLV node starting at offset and returns it
// together with the offset immediately following the node's value, so
// callers can continue scanning siblings. Constructed nodes are decoded
// recursively; the children of each node must exactly cover its declared
// value length.
func Decode(data []byte, offset int) (Node, int, error) {
	return decode(data, offset, 0)
}

func decode(data []byte, offset, depth int) (Node, int, error) {
	if depth > maxDepth {
		return Node{}, 0, fmt.Errorf("%w: nesting exceeds maximum depth %d", ErrMalformed, maxDepth)
	}
	if offset < 0 || offset >= len(data) {
		return Node{}, 0, fmt.Errorf("%w: tag expected at offset %d, but input is %d bytes", ErrMalformed, offset, len(data))
	}

	tagByte := data[offset]
	node := Node{
		Class:       TagClass(tagByte >> 6),
		Tag:         int(tagByte & 0x1f),
		Constructed: tagByte&0x20 != 0,
	}
	if node.Tag == 0x1f {
		return Node{}, 0, fmt.Errorf("%w: multi-byte tag numbers (>= 31) are not supported (offset %d)", ErrMalformed, offset)
	}

	length, valueStart, err := decodeLength(data, offset+1)
	if err != nil {
		return Node{}, 0, err
	}
	end := valueStart + length
	if end > len(data) {
		return Node{}, 0, fmt.Errorf("%w: declared length %d at offset %d exceeds input (requires %d bytes, have %d)",
			ErrMalformed, length, offset, end, len(data))
	}
	node.Value = data[valueStart:end]

	if node.Constructed {
		childOffset := valueStart
		for childOffset < end {
			child, next, err := decode(data, childOffset, depth+1)
			if err != nil {
				return Node{}, 0, err
			}
			if next > end {
				return Node{}, 0, fmt.Errorf("%w: child ending at offset %d exceeds parent end %d", ErrMalformed, next, end)
			}
			node.Children = append(node.Children, child)
			childOffset = next
		}
		// The loop leaves childOffset == end exactly: a child can never
		// overshoot (checked above) and an undershoot means the next
		// iteration decodes another child or fails on a bad tag.
	}

	return node, end, nil
}

// decodeLength decodes a DER length field at offset and returns the
// value length plus the offset of the value's first byte.
//
// Short form: high bit clear, low 7 bits are the length. Long form:
// high bit set, low 7 bits give the count of subsequent big-endian
// length bytes. The reserved count 0x7f and the indefinite form (count
// 0) are rejected; DER requires definite lengths.
func decodeLength(data []byte, offset int) (length, valueStart int, err error) {
	if offset >= len(data) {
		return 0, 0, fmt.Errorf("%w: length expected at offset %d, but input is %d bytes", ErrMalformed, offset, len(data))
	}

	first := data[offset]
	if first&0x80 == 0 {
		return int(first), offset + 1, nil
	}

	numBytes := int(first & 0x7f)
	switch numBytes {
	case 0:
		return 0, 0, fmt.Errorf("%w: indefinite length at offset %d is not valid DER", ErrMalformed, offset)
	case 0x7f:
		return 0, 0, fmt.Errorf("%w: reserved length form 0xff at offset %d", ErrMalformed, offset)
	}
	if offset+1+numBytes > len(data) {
		return 0, 0, fmt.Errorf("%w: long-form length at offset %d declares %d length bytes, but only %d bytes remain",
			ErrMalformed, offset, numBytes, len(data)-offset-1)
	}

	for i := 0; i < numBytes; i++ {
		length = length<<8 | int(data[offset+1+i])
		if length > maxLength {
			return 0, 0, fmt.Errorf("%w: declared length at offset %d exceeds limit of %d bytes", ErrMalformed, offset, maxLength)
		}
	}
	return length, offset + 1 + numBytes, nil
}
