// Package tokenfmt 负责 token 与文档形式之间的转换，文档可以渲染为表格、JSON 或 YAML。
// 同时解析以 JSON 或 YAML 编写的 token 脚本。
package tokenfmt

import (
	"encoding/hex"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Doc 是单个 token 的文档形式，只设置该标签负载语法需要的字段。
// 字节负载为合法 UTF-8 时存为 Text，否则存为 Hex；非有限值的 DATE 存为 Text。
type Doc struct {
	Tag    string   `json:"tag" yaml:"tag"`
	Uint   *uint64  `json:"uint,omitempty" yaml:"uint,omitempty"`
	Int    *int32   `json:"int,omitempty" yaml:"int,omitempty"`
	Double *float64 `json:"double,omitempty" yaml:"double,omitempty"`
	Text   *string  `json:"text,omitempty" yaml:"text,omitempty"`
	Hex    *string  `json:"hex,omitempty" yaml:"hex,omitempty"`
	View   *ViewDoc `json:"view,omitempty" yaml:"view,omitempty"`
}

// ViewDoc 是 ArrayBufferView 的文档形式，subtag 使用规范名。
type ViewDoc struct {
	Subtag string `json:"subtag" yaml:"subtag"`
	Offset uint64 `json:"offset" yaml:"offset"`
	Length uint64 `json:"length" yaml:"length"`
}

// FromToken 构建 tok 的文档形式。
func FromToken(tok structclone.Token) Doc {
	doc := Doc{Tag: tok.Tag.String()}
	switch p := tok.Payload().(type) {
	case uint64:
		doc.Uint = &p
	case int32:
		doc.Int = &p
	case float64:
		if math.IsNaN(p) || math.IsInf(p, 0) {
			s := strconv.FormatFloat(p, 'g', -1, 64)
			doc.Text = &s
		} else {
			doc.Double = &p
		}
	case []byte:
		if utf8.Valid(p) {
			s := string(p)
			doc.Text = &s
		} else {
			s := hex.EncodeToString(p)
			doc.Hex = &s
		}
	case structclone.ArrayBufferView:
		doc.View = &ViewDoc{Subtag: p.Subtag.String(), Offset: p.Offset, Length: p.Length}
	}
	return doc
}

// Token 将文档还原为 token。没有负载语法的标签还原为空 token，写出时报告未实现。
func (d Doc) Token() (structclone.Token, error) {
	tag, ok := structclone.TagByName(d.Tag)
	if !ok {
		return structclone.Token{}, merr.WrapErrParameterInvalidMsg("unknown tag %q", d.Tag)
	}
	tok := structclone.Token{Tag: tag}

	switch tag {
	case structclone.TagVersion, structclone.TagReferenceCount, structclone.TagObject:
		if d.Uint == nil {
			return tok, merr.WrapErrParameterMissing("uint", d.Tag)
		}
		tok.Uint = *d.Uint
	case structclone.TagInt32:
		if d.Int == nil {
			return tok, merr.WrapErrParameterMissing("int", d.Tag)
		}
		tok.Int = *d.Int
	case structclone.TagDate:
		switch {
		case d.Double != nil:
			tok.Double = *d.Double
		case d.Text != nil:
			f, err := strconv.ParseFloat(*d.Text, 64)
			if err != nil {
				return tok, merr.WrapErrParameterInvalidMsg("date %q: %s", *d.Text, err.Error())
			}
			tok.Double = f
		default:
			return tok, merr.WrapErrParameterMissing("double", d.Tag)
		}
	case structclone.TagArrayBuffer, structclone.TagString:
		b, err := d.bytes()
		if err != nil {
			return tok, err
		}
		tok.Bytes = b
	case structclone.TagArrayBufferView:
		if d.View == nil {
			return tok, merr.WrapErrParameterMissing("view", d.Tag)
		}
		subtag, ok := structclone.SubtagByName(d.View.Subtag)
		if !ok {
			return tok, merr.WrapErrParameterInvalidMsg("unknown subtag %q", d.View.Subtag)
		}
		tok.View = structclone.ArrayBufferView{Subtag: subtag, Offset: d.View.Offset, Length: d.View.Length}
	}
	return tok, nil
}

func (d Doc) bytes() ([]byte, error) {
	switch {
	case d.Text != nil:
		return append([]byte{}, *d.Text...), nil
	case d.Hex != nil:
		b, err := hex.DecodeString(*d.Hex)
		if err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("hex payload: %s", err.Error())
		}
		return b, nil
	default:
		return []byte{}, nil
	}
}

// payloadString 渲染表格视图中的负载列。
func (d Doc) payloadString() string {
	switch {
	case d.Uint != nil:
		return strconv.FormatUint(*d.Uint, 10)
	case d.Int != nil:
		return strconv.FormatInt(int64(*d.Int), 10)
	case d.Double != nil:
		return strconv.FormatFloat(*d.Double, 'g', -1, 64)
	case d.Text != nil:
		return strconv.Quote(*d.Text)
	case d.Hex != nil:
		return "0x" + *d.Hex
	case d.View != nil:
		return d.View.Subtag + " offset=" + strconv.FormatUint(d.View.Offset, 10) +
			" length=" + strconv.FormatUint(d.View.Length, 10)
	default:
		return ""
	}
}
