package structclone

import (
	"fmt"
	"strconv"
)

// ArrayBufferView 是 ARRAY_BUFFER_VIEW 的负载：视图类型，
// 以及相对前一个 ArrayBuffer 的字节偏移和字节长度。
type ArrayBufferView struct {
	Subtag Subtag
	Offset uint64
	Length uint64
}

// Elements 返回 Length 除以元素宽度得到的元素个数。
// Length 不是元素宽度的整数倍或 subtag 未映射时，第二个返回值为 false。
func (v ArrayBufferView) Elements() (uint64, bool) {
	size := v.Subtag.ElementSize()
	if size == 0 || v.Length%size != 0 {
		return 0, false
	}
	return v.Length / size, true
}

func (v ArrayBufferView) String() string {
	return fmt.Sprintf("%s[offset=%d length=%d]", v.Subtag, v.Offset, v.Length)
}

// Token 是一个解码后的 (tag, payload) 单元，有效的负载字段取决于 Tag：
//
//	PADDING, GENERATE_FRESH_OBJECT       无
//	VERSION, REFERENCE_COUNT, OBJECT     Uint
//	ARRAY_BUFFER, STRING                 Bytes
//	DATE                                 Double
//	INT32                                Int
//	ARRAY_BUFFER_VIEW                    View
type Token struct {
	Tag    Tag
	Uint   uint64
	Int    int32
	Bytes  []byte
	Double float64
	View   ArrayBufferView
}

// Padding 构造 PADDING token。
func Padding() Token { return Token{Tag: TagPadding} }

// FreshObject 构造 GENERATE_FRESH_OBJECT token。
func FreshObject() Token { return Token{Tag: TagGenerateFreshObject} }

// Version 构造 VERSION token，写出时 v 不能超过 MaxVersion。
func Version(v uint64) Token { return Token{Tag: TagVersion, Uint: v} }

// ReferenceCount 构造 REFERENCE_COUNT token。
func ReferenceCount(n uint64) Token { return Token{Tag: TagReferenceCount, Uint: n} }

// Object 构造 OBJECT token，n 为对象的属性个数。
func Object(n uint64) Token { return Token{Tag: TagObject, Uint: n} }

// ArrayBuffer 构造 ARRAY_BUFFER token，b 不会被复制。
func ArrayBuffer(b []byte) Token { return Token{Tag: TagArrayBuffer, Bytes: b} }

// String 构造 STRING token，b 按原样写出，不做编码校验。
func String(b []byte) Token { return Token{Tag: TagString, Bytes: b} }

// Date 构造 DATE token，ms 为自 Unix 纪元起的毫秒数。
func Date(ms float64) Token { return Token{Tag: TagDate, Double: ms} }

// Int32 构造 INT32 token。
func Int32(v int32) Token { return Token{Tag: TagInt32, Int: v} }

// View 构造 ARRAY_BUFFER_VIEW token。
func View(subtag Subtag, offset, length uint64) Token {
	return Token{Tag: TagArrayBufferView, View: ArrayBufferView{Subtag: subtag, Offset: offset, Length: length}}
}

// Payload 以对应的 Go 类型返回负载：nil、uint64、[]byte、float64、int32 或 ArrayBufferView。
// 不支持负载的标签返回 nil。
func (t Token) Payload() any {
	switch t.Tag {
	case TagVersion, TagReferenceCount, TagObject:
		return t.Uint
	case TagArrayBuffer, TagString:
		return t.Bytes
	case TagDate:
		return t.Double
	case TagInt32:
		return t.Int
	case TagArrayBufferView:
		return t.View
	default:
		return nil
	}
}

func (t Token) String() string {
	switch p := t.Payload().(type) {
	case nil:
		return t.Tag.String()
	case []byte:
		return t.Tag.String() + "(" + strconv.Quote(string(p)) + ")"
	default:
		return fmt.Sprintf("%s(%v)", t.Tag, p)
	}
}
