package binary

import (
	"github.com/pkg/errors"
)

// MinHeaderSize is the smallest header an account layout may declare. The
// first header byte is always the discriminator.
const MinHeaderSize = 8

var (
	// ErrTypeMismatch indicates the leading discriminator byte does not
	// belong to the requested account type.
	ErrTypeMismatch = errors.New("account discriminator mismatch")
	// ErrCorrupt indicates the bytes after the header cannot be parsed into
	// the fixed-width record.
	ErrCorrupt = errors.New("account data corrupt")
)

// Layout describes a discriminated, fixed-width account record.
type Layout[T any] struct {
	Discriminator byte
	HeaderSize    int
	RecordSize    int

	// Put writes v starting at *offset. It may assume dst is large enough.
	Put func(dst []byte, v *T, offset *int)
	// Get reads into v starting at *offset. A non-nil error means the field
	// encoding is invalid.
	Get func(src []byte, v *T, offset *int) error
}

// AccountCodec encodes and decodes records described by a Layout.
//
// Decode hands back a copy of the record, so callers reading an account can
// never write through it. Initialize and Update are the only entry points
// that mutate an account's data region.
type AccountCodec[T any] struct {
	layout Layout[T]
}

func NewAccountCodec[T any](layout Layout[T]) AccountCodec[T] {
	if layout.HeaderSize < MinHeaderSize {
		panic("account header must be at least 8 bytes")
	}
	if layout.Put == nil || layout.Get == nil {
		panic("account layout requires put and get functions")
	}
	return AccountCodec[T]{layout: layout}
}

func (c AccountCodec[T]) Discriminator() byte {
	return c.layout.Discriminator
}

func (c AccountCodec[T]) HeaderSize() int {
	return c.layout.HeaderSize
}

// AccountSize is the full size of the data region, header included.
func (c AccountCodec[T]) AccountSize() int {
	return c.layout.HeaderSize + c.layout.RecordSize
}

// Decode validates the discriminator before looking at any other byte, then
// parses the record that follows the header.
func (c AccountCodec[T]) Decode(data []byte) (T, error) {
	var v T

	if len(data) == 0 || data[0] != c.layout.Discriminator {
		return v, ErrTypeMismatch
	}
	if len(data) != c.AccountSize() {
		return v, errors.Wrapf(ErrCorrupt, "invalid account size %d (expected %d)", len(data), c.AccountSize())
	}

	offset := c.layout.HeaderSize
	if err := c.layout.Get(data, &v, &offset); err != nil {
		return v, errors.Wrap(ErrCorrupt, err.Error())
	}

	return v, nil
}

// Encode returns the record bytes only. The header is owned by the account
// region and written by Initialize.
func (c AccountCodec[T]) Encode(v *T) []byte {
	b := make([]byte, c.layout.RecordSize)

	var offset int
	c.layout.Put(b, v, &offset)

	return b
}

// Initialize performs the first write into a freshly allocated region: the
// discriminator byte followed by the encoded record. Reserved header bytes
// are left untouched.
func (c AccountCodec[T]) Initialize(data []byte, v *T) error {
	if len(data) != c.AccountSize() {
		return errors.Wrapf(ErrCorrupt, "invalid account size %d (expected %d)", len(data), c.AccountSize())
	}

	data[0] = c.layout.Discriminator
	copy(data[c.layout.HeaderSize:], c.Encode(v))
	return nil
}

// Update re-encodes the record of an already initialized region, preserving
// every header byte.
func (c AccountCodec[T]) Update(data []byte, v *T) error {
	if len(data) == 0 || data[0] != c.layout.Discriminator {
		return ErrTypeMismatch
	}
	if len(data) != c.AccountSize() {
		return errors.Wrapf(ErrCorrupt, "invalid account size %d (expected %d)", len(data), c.AccountSize())
	}

	copy(data[c.layout.HeaderSize:], c.Encode(v))
	return nil
}
