package structclone

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/metrics"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

type brokenWriter struct{ after int }

func (w *brokenWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("connection reset")
	}
	w.after--
	return len(p), nil
}

type CodecSuite struct {
	suite.Suite

	buf bytes.Buffer
}

func (s *CodecSuite) SetupTest() {
	s.buf.Reset()
}

func (s *CodecSuite) writer(opts ...Option) *Writer {
	return NewWriter(stream.NewSink(&s.buf), append([]Option{WithMetrics(false)}, opts...)...)
}

func (s *CodecSuite) reader(data []byte, opts ...Option) *Reader {
	return NewReader(stream.NewSource(bytes.NewReader(data)), append([]Option{WithMetrics(false)}, opts...)...)
}

func (s *CodecSuite) readAll(data []byte, opts ...Option) []Token {
	r := s.reader(data, opts...)
	var toks []Token
	for {
		tok, err := r.ReadToken()
		if errors.Is(err, io.EOF) {
			return toks
		}
		s.Require().NoError(err)
		toks = append(toks, tok)
	}
}

func (s *CodecSuite) TestInt32() {
	s.Require().NoError(s.writer().WriteToken(Int32(-1)))
	s.Equal([]byte{0x49, 0x01}, s.buf.Bytes())

	tok, err := s.reader(s.buf.Bytes()).ReadToken()
	s.Require().NoError(err)
	s.Equal(TagInt32, tok.Tag)
	s.Equal(int32(-1), tok.Int)

	for _, v := range []int32{0, 1, -64, 64, math.MaxInt32, math.MinInt32} {
		s.buf.Reset()
		s.Require().NoError(s.writer().WriteToken(Int32(v)))
		tok, err := s.reader(s.buf.Bytes()).ReadToken()
		s.Require().NoError(err)
		s.Equal(v, tok.Int)
	}
}

func (s *CodecSuite) TestInt32Overflow() {
	_, err := s.reader([]byte{'I', 0x80, 0x80, 0x80, 0x80, 0x10}).ReadToken()
	s.ErrorIs(err, merr.ErrInvalidPayload)
}

func (s *CodecSuite) TestVersion() {
	w := s.writer()
	s.Require().NoError(w.WriteToken(Version(9)))
	s.Equal([]byte{0xFF, 0x09}, s.buf.Bytes())
	v, ok := w.Version()
	s.True(ok)
	s.Equal(uint64(9), v)

	err := w.WriteToken(Version(10))
	s.ErrorIs(err, merr.ErrUnsupportedVersion)
	s.Equal([]byte{0xFF, 0x09}, s.buf.Bytes())

	r := s.reader([]byte{0xFF, 0x09, 0xFF, 0x0A})
	_, ok = r.Version()
	s.False(ok)
	tok, err := r.ReadToken()
	s.Require().NoError(err)
	s.Equal(uint64(9), tok.Uint)
	v, ok = r.Version()
	s.True(ok)
	s.Equal(uint64(9), v)

	_, err = r.ReadToken()
	s.ErrorIs(err, merr.ErrUnsupportedVersion)
	s.Contains(err.Error(), "10 out of range")
}

func (s *CodecSuite) TestString() {
	w := s.writer()
	s.Require().NoError(w.WriteToken(String([]byte("hi"))))
	s.Equal([]byte{'S', 0x02, 'h', 'i'}, s.buf.Bytes())

	for _, short := range [][]byte{nil, {}, []byte("h")} {
		err := w.WriteToken(String(short))
		s.ErrorIs(err, merr.ErrInvalidPayload)
	}
	s.Equal(4, s.buf.Len())

	tok, err := s.reader(s.buf.Bytes()).ReadToken()
	s.Require().NoError(err)
	s.Equal([]byte("hi"), tok.Bytes)
}

func (s *CodecSuite) TestReaderAcceptsShortString() {
	tok, err := s.reader([]byte{'S', 0x01, 'h'}).ReadToken()
	s.Require().NoError(err)
	s.Equal([]byte("h"), tok.Bytes)
}

func (s *CodecSuite) TestFixedStringLength() {
	w := s.writer(WithFixedStringLength(7))
	s.Require().NoError(w.WriteToken(String([]byte("ab"))))
	s.Require().NoError(w.WriteToken(Version(7)))
	s.Require().NoError(w.WriteToken(String([]byte("hi"))))
	s.Equal([]byte{
		'S', 0x02, 'a', 'b',
		0xFF, 0x07,
		'S', 0x02, 0x00, 0x00, 0x00, 'h', 'i',
	}, s.buf.Bytes())

	toks := s.readAll(s.buf.Bytes(), WithFixedStringLength(7))
	s.Require().Len(toks, 3)
	s.Equal([]byte("ab"), toks[0].Bytes)
	s.Equal([]byte("hi"), toks[2].Bytes)
}

func (s *CodecSuite) TestFixedStringLengthOtherVersion() {
	w := s.writer(WithFixedStringLength(7))
	s.Require().NoError(w.WriteTokens(Version(8), String([]byte("hi"))))
	s.Equal([]byte{0xFF, 0x08, 'S', 0x02, 'h', 'i'}, s.buf.Bytes())
}

func (s *CodecSuite) TestArrayBufferView() {
	s.Require().NoError(s.writer().WriteToken(View(SubtagFloatArray, 0, 16)))
	s.Equal([]byte{'V', 'f', 0x00, 0x10}, s.buf.Bytes())

	tok, err := s.reader(s.buf.Bytes()).ReadToken()
	s.Require().NoError(err)
	s.Equal(ArrayBufferView{Subtag: SubtagFloatArray, Offset: 0, Length: 16}, tok.View)
	n, ok := tok.View.Elements()
	s.True(ok)
	s.Equal(uint64(4), n)
}

func (s *CodecSuite) TestArrayBufferViewBadSubtag() {
	err := s.writer().WriteToken(View(Subtag('z'), 0, 1))
	s.ErrorIs(err, merr.ErrInvalidTag)
	s.Zero(s.buf.Len())

	_, err = s.reader([]byte{'V', 'z', 0x00, 0x01}).ReadToken()
	s.ErrorIs(err, merr.ErrInvalidTag)
	s.Contains(err.Error(), "subtag")
}

func (s *CodecSuite) TestDate() {
	s.Require().NoError(s.writer().WriteToken(Date(1.5e12)))
	want := binary.LittleEndian.AppendUint64([]byte{'D'}, math.Float64bits(1.5e12))
	s.Equal(want, s.buf.Bytes())

	tok, err := s.reader(s.buf.Bytes()).ReadToken()
	s.Require().NoError(err)
	s.Equal(1.5e12, tok.Double)
}

func (s *CodecSuite) TestInvalidTag() {
	_, err := s.reader([]byte{0x01}).ReadToken()
	s.ErrorIs(err, merr.ErrInvalidTag)
	s.Contains(err.Error(), "0x01")

	err = s.writer().WriteToken(Token{Tag: Tag(0x01)})
	s.ErrorIs(err, merr.ErrInvalidTag)
	s.ErrorIs(s.writer().WriteTag(Tag(0x01)), merr.ErrInvalidTag)
	s.Zero(s.buf.Len())
}

func (s *CodecSuite) TestNotImplemented() {
	_, err := s.reader([]byte{':'}).ReadToken()
	s.ErrorIs(err, merr.ErrNotImplemented)
	s.Contains(err.Error(), "MAP")

	err = s.writer().WriteToken(Token{Tag: TagMap})
	s.ErrorIs(err, merr.ErrNotImplemented)
	s.Zero(s.buf.Len())

	for _, tag := range Tags() {
		if tag.Handled() {
			continue
		}
		_, err := s.reader([]byte{byte(tag)}).ReadToken()
		s.ErrorIs(err, merr.ErrNotImplemented, tag.String())
	}
}

func (s *CodecSuite) TestEndOfStream() {
	_, err := s.reader(nil).ReadToken()
	s.ErrorIs(err, io.EOF)
	s.ErrorIs(err, merr.ErrShortRead)

	for _, data := range [][]byte{
		{'B', 0x05, 'a'},
		{'V', 'f', 0x00},
		{'D', 0x00, 0x00},
		{0xFF},
		{'I', 0x80},
	} {
		_, err := s.reader(data).ReadToken()
		s.ErrorIs(err, merr.ErrShortRead)
		s.NotErrorIs(err, io.EOF)
	}
}

func (s *CodecSuite) TestOversizedPayload() {
	_, err := s.reader([]byte{'B', 0xFF, 0xFF, 0xFF, 0xFF, 0x0F}).ReadToken()
	s.ErrorIs(err, merr.ErrInvalidPayload)
}

// 长度声明为 1GiB 而数据只有 6 字节时，读取应以 ShortRead 结束且不按声明长度分配。
func (s *CodecSuite) TestTruncatedArrayBufferBoundsAllocation() {
	data := []byte{'B', 0x80, 0x80, 0x80, 0x80, 0x04}
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	_, err := s.reader(data).ReadToken()

	runtime.ReadMemStats(&after)
	s.ErrorIs(err, merr.ErrShortRead)
	s.Contains(err.Error(), "want=1073741824")
	s.Less(after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}

func (s *CodecSuite) TestRoundTrip() {
	toks := []Token{
		Version(9),
		Padding(),
		FreshObject(),
		ReferenceCount(3),
		Object(300),
		ArrayBuffer([]byte{}),
		ArrayBuffer([]byte{0, 1, 2, 0xFF}),
		String([]byte("hello")),
		Date(-1),
		Int32(math.MinInt32),
		View(SubtagDataView, 4, 7),
		View(SubtagDoubleArray, 8, 64),
	}
	s.Require().NoError(s.writer().WriteTokens(toks...))
	s.Equal(toks, s.readAll(s.buf.Bytes()))
}

func (s *CodecSuite) TestVarint() {
	w := s.writer()
	s.Require().NoError(w.WriteVarint(300))
	s.Require().NoError(w.WriteVarint(math.MaxUint64))
	r := s.reader(s.buf.Bytes())
	v, err := r.ReadVarint()
	s.Require().NoError(err)
	s.Equal(uint64(300), v)
	v, err = r.ReadVarint()
	s.Require().NoError(err)
	s.Equal(uint64(math.MaxUint64), v)
}

func (s *CodecSuite) TestAliases() {
	tok, err := s.reader([]byte{'@', 'f'}).ReadToken()
	s.Require().NoError(err)
	s.Equal(TagPadding, tok.Tag)
	s.Equal("PADDING", tok.Tag.String())
	s.Equal(TagSparseArray, tok.Tag)

	tag, err := ParseTag('f')
	s.Require().NoError(err)
	s.Equal("FILE", tag.String())
	s.Equal([]string{"FILE_INDEX"}, tag.Aliases())
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}

func TestStagedWriter(t *testing.T) {
	var dst bytes.Buffer
	st := stream.NewStage(&dst)
	defer st.Release()
	w := NewWriter(st, WithMetrics(false))

	require.NoError(t, w.WriteToken(String([]byte("hi"))))
	require.NoError(t, st.Commit())
	assert.Equal(t, []byte{'S', 0x02, 'h', 'i'}, dst.Bytes())

	require.NoError(t, w.WriteToken(Int32(5)))
	st.Discard()
	require.NoError(t, st.Commit())
	assert.Equal(t, 4, dst.Len())
}

func TestWriterTransportFailure(t *testing.T) {
	w := NewWriter(stream.NewSink(&brokenWriter{after: 1}), WithMetrics(false))
	err := w.WriteToken(ArrayBuffer([]byte("xyz")))
	assert.ErrorIs(t, err, merr.ErrIoFailed)
}

func TestMetrics(t *testing.T) {
	tokens := metrics.CodecTokens.WithLabelValues(metrics.ReadLabel, "OBJECT")
	errs := metrics.CodecErrors.WithLabelValues(metrics.ReadLabel, "invalid_tag")
	bytesRead := metrics.CodecPayloadBytes.WithLabelValues(metrics.ReadLabel)
	beforeTokens, beforeErrs, beforeBytes := testutil.ToFloat64(tokens), testutil.ToFloat64(errs), testutil.ToFloat64(bytesRead)

	r := NewReader(stream.NewSource(bytes.NewReader([]byte{'{', 0x02, 'B', 0x03, 1, 2, 3, 0x01})))
	for i := 0; i < 2; i++ {
		_, err := r.ReadToken()
		require.NoError(t, err)
	}
	_, err := r.ReadToken()
	require.ErrorIs(t, err, merr.ErrInvalidTag)

	assert.Equal(t, beforeTokens+1, testutil.ToFloat64(tokens))
	assert.Equal(t, beforeErrs+1, testutil.ToFloat64(errs))
	assert.Equal(t, beforeBytes+3, testutil.ToFloat64(bytesRead))
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"invalid_tag":         merr.WrapErrInvalidTag("tag", 1),
		"unsupported_version": merr.WrapErrUnsupportedVersion(10, MaxVersion),
		"not_implemented":     merr.WrapErrNotImplemented("MAP"),
		"short_read":          merr.WrapErrShortRead(1, 0),
		"invalid_payload":     merr.WrapErrInvalidPayload("odd"),
		"io_failed":           merr.WrapErrIoFailed("sink", errors.New("x")),
		"unknown":             errors.New("x"),
	}
	for kind, err := range cases {
		assert.Equal(t, kind, errorKind(err))
	}
}

func TestWithLogger(t *testing.T) {
	logger, _, err := log.InitTestLogger(t, &log.Config{Level: "debug"})
	require.NoError(t, err)
	ml := &log.MLogger{Logger: logger}
	r := NewReader(stream.NewSource(bytes.NewReader(nil)), WithLogger(ml))
	assert.Same(t, ml, r.Logger())
	w := NewWriter(stream.NewSink(io.Discard))
	assert.NotNil(t, w.Logger())
}
