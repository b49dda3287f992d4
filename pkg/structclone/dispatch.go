package structclone

import (
	"encoding/binary"
	"math"

	"github.com/lk2023060901/structclone-go/pkg/structclone/encoding"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// fixedStringLengthSize 是 STRING 定长长度前缀的字节数。
const fixedStringLengthSize = 4

// tokenCodec 描述一个标签的负载语法。check 在写出任何字节之前校验 token，
// write 只写负载，标签字节由调用方写出。
type tokenCodec struct {
	read  func(src stream.Source, st *state, tok *Token) error
	check func(st *state, tok Token) error
	write func(dst stream.Sink, st *state, tok Token) error
}

// codecs 以标签字节为下标。合法标签对应 nil 表示可识别但没有负载语法。
var codecs = [256]*tokenCodec{
	TagPadding:             {read: readNothing, write: writeNothing},
	TagGenerateFreshObject: {read: readNothing, write: writeNothing},
	TagVersion:             {read: readVersion, check: checkVersion, write: writeVersion},
	TagReferenceCount:      {read: readUint, write: writeUint},
	TagObject:              {read: readUint, write: writeUint},
	TagArrayBuffer:         {read: readBytes, write: writeBytes},
	TagString:              {read: readString, check: checkString, write: writeString},
	TagDate:                {read: readDate, write: writeDate},
	TagInt32:               {read: readInt32, write: writeInt32},
	TagArrayBufferView:     {read: readView, check: checkView, write: writeView},
}

func readNothing(stream.Source, *state, *Token) error { return nil }

func writeNothing(stream.Sink, *state, Token) error { return nil }

func readVersion(src stream.Source, st *state, tok *Token) error {
	v, err := encoding.DecodeVarint(src)
	if err != nil {
		return err
	}
	if v > MaxVersion {
		return merr.WrapErrUnsupportedVersion(v, MaxVersion)
	}
	tok.Uint = v
	st.setVersion(v)
	return nil
}

func checkVersion(_ *state, tok Token) error {
	if tok.Uint > MaxVersion {
		return merr.WrapErrUnsupportedVersion(tok.Uint, MaxVersion)
	}
	return nil
}

func writeVersion(dst stream.Sink, st *state, tok Token) error {
	if err := writeVarint(dst, tok.Uint); err != nil {
		return err
	}
	st.setVersion(tok.Uint)
	return nil
}

func readUint(src stream.Source, _ *state, tok *Token) error {
	v, err := encoding.DecodeVarint(src)
	if err != nil {
		return err
	}
	tok.Uint = v
	return nil
}

func writeUint(dst stream.Sink, _ *state, tok Token) error {
	return writeVarint(dst, tok.Uint)
}

func readBytes(src stream.Source, _ *state, tok *Token) error {
	n, err := encoding.DecodeVarint(src)
	if err != nil {
		return err
	}
	tok.Bytes, err = readPayload(src, n)
	return err
}

func writeBytes(dst stream.Sink, _ *state, tok Token) error {
	if err := writeVarint(dst, uint64(len(tok.Bytes))); err != nil {
		return err
	}
	return dst.WriteBytes(tok.Bytes)
}

func readString(src stream.Source, st *state, tok *Token) error {
	if !st.fixedStringLength() {
		return readBytes(src, st, tok)
	}
	p, err := src.ReadFull(fixedStringLengthSize)
	if err != nil {
		return err
	}
	tok.Bytes, err = readPayload(src, uint64(binary.LittleEndian.Uint32(p)))
	return err
}

func checkString(st *state, tok Token) error {
	if len(tok.Bytes) <= 1 {
		return merr.WrapErrInvalidPayloadLength("string", len(tok.Bytes), "strings of one byte or less have no encoding")
	}
	if st.fixedStringLength() && uint64(len(tok.Bytes)) > math.MaxUint32 {
		return merr.WrapErrInvalidPayloadLength("string", len(tok.Bytes), "exceeds the 32-bit length prefix")
	}
	return nil
}

func writeString(dst stream.Sink, st *state, tok Token) error {
	if !st.fixedStringLength() {
		return writeBytes(dst, st, tok)
	}
	var p [fixedStringLengthSize]byte
	binary.LittleEndian.PutUint32(p[:], uint32(len(tok.Bytes)))
	if err := dst.WriteBytes(p[:]); err != nil {
		return err
	}
	return dst.WriteBytes(tok.Bytes)
}

func readDate(src stream.Source, _ *state, tok *Token) error {
	f, err := src.ReadDouble()
	if err != nil {
		return err
	}
	tok.Double = f
	return nil
}

func writeDate(dst stream.Sink, _ *state, tok Token) error {
	return dst.WriteDouble(tok.Double)
}

func readInt32(src stream.Source, _ *state, tok *Token) error {
	v, err := encoding.DecodeVarint(src)
	if err != nil {
		return err
	}
	if v > math.MaxUint32 {
		return merr.WrapErrInvalidPayload("int32 payload exceeds 32 bits")
	}
	tok.Int = encoding.ZigZagDecode(uint32(v))
	return nil
}

func writeInt32(dst stream.Sink, _ *state, tok Token) error {
	return writeVarint(dst, encoding.ZigZagEncode(tok.Int))
}

func readView(src stream.Source, _ *state, tok *Token) error {
	b, err := src.ReadByte()
	if err != nil {
		return err
	}
	subtag, err := ParseSubtag(b)
	if err != nil {
		return err
	}
	offset, err := encoding.DecodeVarint(src)
	if err != nil {
		return err
	}
	length, err := encoding.DecodeVarint(src)
	if err != nil {
		return err
	}
	tok.View = ArrayBufferView{Subtag: subtag, Offset: offset, Length: length}
	return nil
}

func checkView(_ *state, tok Token) error {
	_, err := ParseSubtag(byte(tok.View.Subtag))
	return err
}

func writeView(dst stream.Sink, _ *state, tok Token) error {
	if err := dst.WriteByte(byte(tok.View.Subtag)); err != nil {
		return err
	}
	if err := writeVarint(dst, tok.View.Offset); err != nil {
		return err
	}
	return writeVarint(dst, tok.View.Length)
}

// readPayload 读取 n 个原始字节，返回的切片归调用方所有。
func readPayload(src stream.Source, n uint64) ([]byte, error) {
	if n > math.MaxInt32 {
		return nil, merr.WrapErrInvalidPayload("payload length exceeds 2GiB")
	}
	p, err := src.ReadFull(int(n))
	if err != nil {
		return nil, err
	}
	return append(make([]byte, 0, len(p)), p...), nil
}

func writeVarint[T uint32 | uint64](dst stream.Sink, v T) error {
	var buf [encoding.MaxVarintLen64]byte
	return dst.WriteBytes(encoding.AppendVarint(buf[:0], v))
}
