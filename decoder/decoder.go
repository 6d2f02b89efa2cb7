// Package decoder unpacks column-major binary payloads into typed tables.
//
// Decoding is pure: given the raw bytes, the layout they were produced with,
// the column names and the row count, a Decoder either returns a complete
// Table or an error. There is no partial result.
//
// Every decoded column holds one of the following slice types:
//
//	INT8    []int8
//	INT16   []int16
//	INT32   []int32
//	INT64   []int64
//	FLOAT32 []float32
//	FLOAT64 []float64
//	CHAR16  []string     one single-character string per value
//
// A column named TIMESTAMP holding an integer or float type is read as
// milliseconds since the Unix epoch and decoded to []time.Time in UTC, unless
// disabled with WithTimestampConversion(false).
package decoder

import (
	"fmt"
	"math"
	"time"

	"github.com/arloliu/colbin/encoding"
	"github.com/arloliu/colbin/endian"
	"github.com/arloliu/colbin/errs"
	"github.com/arloliu/colbin/format"
	"github.com/arloliu/colbin/internal/options"
	"github.com/arloliu/colbin/layout"
)

// TimestampColumn is the reserved column name holding epoch-millisecond timestamps.
const TimestampColumn = "TIMESTAMP"

// Decoder decodes payloads with a single byte order for the whole payload.
//
// A Decoder is immutable after construction and safe for concurrent use.
type Decoder struct {
	engine            endian.EndianEngine
	convertTimestamps bool
}

// Option configures a Decoder.
type Option = options.Option[*Decoder]

// WithBigEndian decodes big-endian payloads. It is the default option.
func WithBigEndian() Option {
	return options.NoError(func(d *Decoder) {
		d.engine = endian.GetBigEndianEngine()
	})
}

// WithLittleEndian decodes little-endian payloads.
func WithLittleEndian() Option {
	return options.NoError(func(d *Decoder) {
		d.engine = endian.GetLittleEndianEngine()
	})
}

// WithByteOrder selects the byte order by name ("big" or "little").
func WithByteOrder(name string) Option {
	return options.New(func(d *Decoder) error {
		engine, err := endian.Parse(name)
		if err != nil {
			return err
		}
		d.engine = engine

		return nil
	})
}

// WithTimestampConversion enables or disables decoding the TIMESTAMP column
// to time.Time. Enabled by default; when disabled the raw numbers are kept.
func WithTimestampConversion(enabled bool) Option {
	return options.NoError(func(d *Decoder) {
		d.convertTimestamps = enabled
	})
}

// New creates a Decoder. Without options it decodes big-endian payloads and
// converts the TIMESTAMP column.
func New(opts ...Option) (*Decoder, error) {
	d := &Decoder{
		engine:            endian.GetBigEndianEngine(),
		convertTimestamps: true,
	}

	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	return d, nil
}

// Engine returns the byte order engine of the decoder.
func (d *Decoder) Engine() endian.EndianEngine {
	return d.engine
}

// ConvertsTimestamps reports whether the TIMESTAMP column is decoded to time.Time.
func (d *Decoder) ConvertsTimestamps() bool {
	return d.convertTimestamps
}

// Decode unpacks raw into a table with one column per layout segment.
//
// Parameters:
//   - raw: Column-major payload; its length must equal l.Size()
//   - l: Layout the payload was produced with
//   - names: Column name of every segment, in layout order
//   - rowCount: Number of values per column, must equal l.RowCount()
//
// Returns:
//   - *Table: Decoded table owning freshly allocated column slices
//   - error: *errs.TruncatedPayloadError if raw does not match the layout size,
//     ErrInvalidLayout if names or rowCount disagree with the layout
func (d *Decoder) Decode(raw []byte, l layout.Layout, names []string, rowCount int) (*Table, error) {
	if len(names) != l.Len() {
		return nil, fmt.Errorf("%w: %d column names for %d segments", errs.ErrInvalidLayout, len(names), l.Len())
	}
	if rowCount != l.RowCount() {
		return nil, fmt.Errorf("%w: row count %d, layout built for %d", errs.ErrInvalidLayout, rowCount, l.RowCount())
	}
	if err := l.Check(len(raw)); err != nil {
		return nil, err
	}

	table := newTable(rowCount, l.Len())
	for i, name := range names {
		if _, dup := table.Columns[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", errs.ErrInvalidLayout, name)
		}

		seg := l.Segment(i)
		off := l.Offset(i)
		values, err := d.decodeSegment(name, seg, raw[off:off+seg.Size()])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}

		table.add(&Column{Name: name, Type: seg.Type, Values: values})
	}

	return table, nil
}

func (d *Decoder) decodeSegment(name string, seg layout.Segment, data []byte) (any, error) {
	n := seg.Count
	timestamp := d.convertTimestamps && name == TimestampColumn

	switch seg.Type {
	case format.TypeInt8:
		return decodeInts(encoding.NewInt8Decoder(d.engine), data, n, timestamp)
	case format.TypeInt16:
		return decodeInts(encoding.NewInt16Decoder(d.engine), data, n, timestamp)
	case format.TypeInt32:
		return decodeInts(encoding.NewInt32Decoder(d.engine), data, n, timestamp)
	case format.TypeInt64:
		return decodeInts(encoding.NewInt64Decoder(d.engine), data, n, timestamp)
	case format.TypeFloat32:
		return decodeFloats(encoding.NewFloat32Decoder(d.engine), data, n, timestamp)
	case format.TypeFloat64:
		return decodeFloats(encoding.NewFloat64Decoder(d.engine), data, n, timestamp)
	case format.TypeChar16:
		codes, err := decodeColumn(encoding.NewChar16Decoder(d.engine), data, n)
		if err != nil {
			return nil, err
		}

		return CharsToStrings(codes), nil
	default:
		return nil, fmt.Errorf("%w: unsupported primitive type %s", errs.ErrInvalidLayout, seg.Type)
	}
}

func decodeColumn[T encoding.Fixed](dec encoding.FixedDecoder[T], data []byte, n int) ([]T, error) {
	values := make([]T, n)
	if err := dec.DecodeInto(values, data); err != nil {
		return nil, err
	}

	return values, nil
}

func decodeInts[T ~int8 | ~int16 | ~int32 | ~int64](dec encoding.FixedDecoder[T], data []byte, n int, timestamp bool) (any, error) {
	values, err := decodeColumn(dec, data, n)
	if err != nil {
		return nil, err
	}
	if !timestamp {
		return values, nil
	}

	times := make([]time.Time, len(values))
	for i, v := range values {
		times[i] = MillisToTime(int64(v))
	}

	return times, nil
}

func decodeFloats[T ~float32 | ~float64](dec encoding.FixedDecoder[T], data []byte, n int, timestamp bool) (any, error) {
	values, err := decodeColumn(dec, data, n)
	if err != nil {
		return nil, err
	}
	if !timestamp {
		return values, nil
	}

	times := make([]time.Time, len(values))
	for i, v := range values {
		times[i] = FloatMillisToTime(float64(v))
	}

	return times, nil
}

// MillisToTime converts milliseconds since the Unix epoch to a UTC time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FloatMillisToTime converts fractional milliseconds since the Unix epoch to a
// UTC time, keeping sub-millisecond precision to the nanosecond.
// NaN and infinities decode to the zero time.
func FloatMillisToTime(ms float64) time.Time {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}
	}

	whole := math.Floor(ms)
	nanos := math.Round((ms - whole) * float64(time.Millisecond))

	return time.UnixMilli(int64(whole)).Add(time.Duration(nanos)).UTC()
}

// CharsToStrings maps 16-bit character codes to single-character strings.
// Surrogate halves, which are not characters on their own, become U+FFFD.
func CharsToStrings(codes []uint16) []string {
	strs := make([]string, len(codes))
	for i, c := range codes {
		strs[i] = string(rune(c))
	}

	return strs
}
