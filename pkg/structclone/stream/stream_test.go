package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

type failingWriter struct {
	err   error
	short bool
}

func (w failingWriter) Write(p []byte) (int, error) {
	if w.short {
		return len(p) / 2, nil
	}
	return 0, w.err
}

type failingReader struct{ err error }

func (r failingReader) Read(p []byte) (int, error) { return 0, r.err }

type StreamSuite struct {
	suite.Suite
}

func (s *StreamSuite) TestReadFull() {
	src := NewSource(bytes.NewReader([]byte("abcdef")))
	p, err := src.ReadFull(4)
	s.Require().NoError(err)
	s.Equal([]byte("abcd"), p)
	s.Equal(int64(4), src.Offset())

	b, err := src.ReadByte()
	s.Require().NoError(err)
	s.Equal(byte('e'), b)

	p, err = src.ReadFull(0)
	s.NoError(err)
	s.Empty(p)
}

func (s *StreamSuite) TestShortRead() {
	src := NewSource(bytes.NewReader([]byte("ab")), WithName("blob"))
	_, err := src.ReadFull(3)
	s.ErrorIs(err, merr.ErrShortRead)
	s.Contains(err.Error(), "want=3")
	s.Contains(err.Error(), "got=2")
	s.Equal(int64(2), src.Offset())

	_, err = src.ReadByte()
	s.ErrorIs(err, merr.ErrShortRead)
}

func (s *StreamSuite) TestNegativeLength() {
	_, err := NewSource(bytes.NewReader(nil)).ReadFull(-1)
	s.ErrorIs(err, merr.ErrParameterInvalid)
}

func (s *StreamSuite) TestTransportFailure() {
	boom := errors.New("boom")
	_, err := NewSource(failingReader{boom}).ReadFull(1)
	s.ErrorIs(err, merr.ErrIoFailed)
	s.NotErrorIs(err, merr.ErrShortRead)

	err = NewSink(failingWriter{err: boom}).WriteBytes([]byte("x"))
	s.ErrorIs(err, merr.ErrIoFailed)

	err = NewSink(failingWriter{short: true}).WriteBytes([]byte("xyz"))
	s.ErrorIs(err, merr.ErrIoFailed)
}

func (s *StreamSuite) TestDoubleRoundTrip() {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		var buf bytes.Buffer
		sink := NewSink(&buf, WithByteOrder(order))
		for _, f := range []float64{0, -0.5, 1.6e12, math.Inf(-1), math.MaxFloat64} {
			s.Require().NoError(sink.WriteDouble(f))
		}
		s.Equal(int64(5*DoubleSize), sink.Written())

		src := NewSource(&buf, WithByteOrder(order))
		for _, want := range []float64{0, -0.5, 1.6e12, math.Inf(-1), math.MaxFloat64} {
			got, err := src.ReadDouble()
			s.Require().NoError(err)
			s.Equal(want, got)
		}
	}
}

func (s *StreamSuite) TestDoubleLittleEndianDefault() {
	var buf bytes.Buffer
	s.Require().NoError(NewSink(&buf).WriteDouble(1.0))
	s.Equal([]byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}, buf.Bytes())
}

func (s *StreamSuite) TestNaNBits() {
	var buf bytes.Buffer
	nan := math.Float64frombits(0x7ff8000000000001)
	s.Require().NoError(NewSink(&buf).WriteDouble(nan))
	got, err := NewSource(&buf).ReadDouble()
	s.Require().NoError(err)
	s.Equal(uint64(0x7ff8000000000001), math.Float64bits(got))
}

func (s *StreamSuite) TestLargeRead() {
	data := bytes.Repeat([]byte("0123456789abcdef"), 1024)
	src := NewSource(bytes.NewReader(append(data, 'x')))

	p, err := src.ReadFull(len(data))
	s.Require().NoError(err)
	s.Equal(data, p)
	s.Equal(int64(len(data)), src.Offset())

	b, err := src.ReadByte()
	s.Require().NoError(err)
	s.Equal(byte('x'), b)
	s.Nil(src.large)
}

func (s *StreamSuite) TestLargeShortRead() {
	src := NewSource(bytes.NewReader(make([]byte, 5000)), WithName("blob"))
	_, err := src.ReadFull(8000)
	s.ErrorIs(err, merr.ErrShortRead)
	s.Contains(err.Error(), "want=8000")
	s.Contains(err.Error(), "got=5000")
	s.Equal(int64(5000), src.Offset())
	s.Nil(src.large)
}

func TestStream(t *testing.T) {
	suite.Run(t, new(StreamSuite))
}

func TestStageCommit(t *testing.T) {
	var dst bytes.Buffer
	st := NewStage(&dst)
	defer st.Release()

	require.NoError(t, st.WriteByte('D'))
	require.NoError(t, st.WriteDouble(2.5))
	require.NoError(t, st.WriteBytes([]byte{1, 2}))
	assert.Equal(t, 11, st.Buffered())
	assert.Zero(t, dst.Len())

	require.NoError(t, st.Commit())
	assert.Equal(t, 11, dst.Len())
	assert.Zero(t, st.Buffered())
	assert.NoError(t, st.Commit())
}

func TestStageDiscard(t *testing.T) {
	var dst bytes.Buffer
	st := NewStage(&dst)
	require.NoError(t, st.WriteBytes([]byte("partial")))
	st.Discard()
	require.NoError(t, st.Commit())
	assert.Zero(t, dst.Len())

	st.Release()
	assert.ErrorIs(t, st.WriteByte('x'), merr.ErrOperationNotSupported)
	assert.ErrorIs(t, st.Commit(), merr.ErrOperationNotSupported)
	assert.Nil(t, st.Bytes())
	st.Release()
}

func TestStageCommitFailure(t *testing.T) {
	st := NewStage(failingWriter{err: errors.New("closed")})
	defer st.Release()
	require.NoError(t, st.WriteBytes([]byte("abc")))
	assert.ErrorIs(t, st.Commit(), merr.ErrIoFailed)
	assert.Zero(t, st.Buffered())
}

// 声明长度远大于实际数据时，分配量应只与到达的数据相关。
func TestClaimedLengthBoundsAllocation(t *testing.T) {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	_, err := NewSource(bytes.NewReader([]byte("abc"))).ReadFull(1 << 30)

	runtime.ReadMemStats(&after)
	require.ErrorIs(t, err, merr.ErrShortRead)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}
