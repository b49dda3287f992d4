package structclone

import (
	"fmt"

	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Subtag 是 ARRAY_BUFFER_VIEW 负载中的视图类型。
type Subtag byte

const (
	SubtagByteArray                Subtag = 'b'
	SubtagUnsignedByteArray        Subtag = 'B'
	SubtagUnsignedByteClampedArray Subtag = 'C'
	SubtagShortArray               Subtag = 'w'
	SubtagUnsignedShortArray       Subtag = 'W'
	SubtagIntArray                 Subtag = 'd'
	SubtagUnsignedIntArray         Subtag = 'D'
	SubtagFloatArray               Subtag = 'f'
	SubtagDoubleArray              Subtag = 'F'
	SubtagDataView                 Subtag = '?'
)

type subtagInfo struct {
	name        string
	elementSize uint64
}

var subtagTable = [256]subtagInfo{
	SubtagByteArray:                {"BYTE_ARRAY", 1},
	SubtagUnsignedByteArray:        {"UNSIGNED_BYTE_ARRAY", 1},
	SubtagUnsignedByteClampedArray: {"UNSIGNED_BYTE_CLAMPED_ARRAY", 1},
	SubtagShortArray:               {"SHORT_ARRAY", 2},
	SubtagUnsignedShortArray:       {"UNSIGNED_SHORT_ARRAY", 2},
	SubtagIntArray:                 {"INT_ARRAY", 4},
	SubtagUnsignedIntArray:         {"UNSIGNED_INT_ARRAY", 4},
	SubtagFloatArray:               {"FLOAT_ARRAY", 4},
	SubtagDoubleArray:              {"DOUBLE_ARRAY", 8},
	SubtagDataView:                 {"DATA_VIEW", 1},
}

// ParseSubtag 将线上字节映射为 Subtag。
func ParseSubtag(b byte) (Subtag, error) {
	if subtagTable[b].name == "" {
		return 0, merr.WrapErrInvalidTag("subtag", b)
	}
	return Subtag(b), nil
}

// SubtagByName 按规范名查找 Subtag。
func SubtagByName(name string) (Subtag, bool) {
	for b, info := range subtagTable {
		if info.name != "" && info.name == name {
			return Subtag(b), true
		}
	}
	return 0, false
}

// Valid 判断 s 是否为已知的视图类型。
func (s Subtag) Valid() bool {
	return subtagTable[s].name != ""
}

// String 返回规范名，未映射的字节以十六进制形式输出。
func (s Subtag) String() string {
	if name := subtagTable[s].name; name != "" {
		return name
	}
	return fmt.Sprintf("Subtag(0x%02x)", byte(s))
}

// ElementSize 返回视图单个元素的字节宽度，DataView 按字节寻址。
// 未映射的 subtag 返回 0。
func (s Subtag) ElementSize() uint64 {
	return subtagTable[s].elementSize
}

// Subtags 按字节序返回全部 subtag。
func Subtags() []Subtag {
	var out []Subtag
	for b, info := range subtagTable {
		if info.name != "" {
			out = append(out, Subtag(b))
		}
	}
	return out
}
