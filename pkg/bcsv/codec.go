package bcsv

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

// Observer receives the outcome of every read and write. It lets callers
// export metrics without the codec depending on a metrics library.
type Observer interface {
	ObserveRead(bytes int64, elapsed time.Duration, err error)
	ObserveWrite(bytes int64, elapsed time.Duration, err error)
	ObserveDegradedString(err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRead(int64, time.Duration, error)  {}
func (nopObserver) ObserveWrite(int64, time.Duration, error) {}
func (nopObserver) ObserveDegradedString(error)              {}

// Codec reads and writes tables with a fixed byte order, rank table and
// string encoding. A Codec holds no per-call state and can be used from
// several goroutines at once.
type Codec struct {
	endian   Endian
	order    binary.ByteOrder
	rank     RankTable
	enc      encoding.Encoding
	sugar    *zap.SugaredLogger
	observer Observer
}

// Option configures a Codec.
type Option func(c *Codec)

// WithEndian sets the byte order. The default is Big.
func WithEndian(e Endian) Option {
	return func(c *Codec) {
		c.endian = e
		c.order = e.ByteOrder()
	}
}

// WithRank sets the rank table used to lay out rows on write.
func WithRank(r RankTable) Option {
	return func(c *Codec) {
		c.rank = r
	}
}

// WithEncoding sets the encoding of the string table. The default is
// Shift-JIS; nil stores UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *Codec) {
		c.enc = enc
	}
}

// ParseEncoding maps a configuration name to a string table encoding.
// "shift-jis" (the default for an empty name) and "utf-8" are accepted;
// UTF-8 is returned as nil.
func ParseEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "shift-jis", "shift_jis", "shiftjis", "sjis":
		return japanese.ShiftJIS, nil
	case "utf-8", "utf8":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown string encoding %q", name)
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.sugar = logger.Named("bcsv").Sugar()
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(c *Codec) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewCodec creates a codec. Without options it reads and writes big endian
// files with the classic rank table and a Shift-JIS string table.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		endian:   Big,
		order:    binary.BigEndian,
		rank:     RankClassic,
		enc:      japanese.ShiftJIS,
		sugar:    zap.NewNop().Sugar(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endian returns the codec's byte order.
func (c *Codec) Endian() Endian {
	return c.endian
}

// Rank returns the codec's rank table.
func (c *Codec) Rank() RankTable {
	return c.rank
}
