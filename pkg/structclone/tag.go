package structclone

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/lk2023060901/structclone-go/pkg/structclone/encoding"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Tag 是 token 的单字节类型标识，决定其后负载的语法。
type Tag byte

// 序列化标签。有两组名字在线上共用同一个字节：FILE 与 FILE_INDEX 都是 'f'，
// SPARSE_ARRAY 与 PADDING 都是 '@'。解码时总是得到规范名（FILE、PADDING），
// 另一个名字只以别名常量和 Tag.Aliases 的形式保留。
const (
	TagInvalid                   Tag = '!'
	TagPadding                   Tag = Tag(encoding.PaddingByte)
	TagUndefined                 Tag = '_'
	TagNull                      Tag = '0'
	TagTrue                      Tag = 'T'
	TagFalse                     Tag = 'F'
	TagString                    Tag = 'S'
	TagStringUChar               Tag = 'c'
	TagInt32                     Tag = 'I'
	TagUint32                    Tag = 'U'
	TagDate                      Tag = 'D'
	TagMessagePort               Tag = 'M'
	TagNumber                    Tag = 'N'
	TagBlob                      Tag = 'b'
	TagBlobIndex                 Tag = 'i'
	TagFile                      Tag = 'f'
	TagDOMFileSystem             Tag = 'd'
	TagFileList                  Tag = 'l'
	TagFileListIndex             Tag = 'L'
	TagImageData                 Tag = '#'
	TagObject                    Tag = '{'
	TagDenseArray                Tag = '$'
	TagRegExp                    Tag = 'R'
	TagArrayBuffer               Tag = 'B'
	TagArrayBufferTransfer       Tag = 't'
	TagImageBitmapTransfer       Tag = 'G'
	TagArrayBufferView           Tag = 'V'
	TagSharedArrayBufferTransfer Tag = 'u'
	TagCryptoKey                 Tag = 'K'
	TagObjectReference           Tag = '^'
	TagGenerateFreshObject       Tag = 'o'
	TagGenerateFreshSparseArray  Tag = 'a'
	TagGenerateFreshDenseArray   Tag = 'A'
	TagReferenceCount            Tag = '?'
	TagStringObject              Tag = 's'
	TagNumberObject              Tag = 'n'
	TagTrueObject                Tag = 'y'
	TagFalseObject               Tag = 'x'
	TagCompositorProxy           Tag = 'C'
	TagMap                       Tag = ':'
	TagSet                       Tag = ','
	TagGenerateFreshMap          Tag = ';'
	TagGenerateFreshSet          Tag = '\''
	TagVersion                   Tag = 0xFF

	// TagFileIndex 与 TagFile 共用 'f'，解码为 FILE。
	TagFileIndex = TagFile
	// TagSparseArray 与 TagPadding 共用 '@'，解码为 PADDING。
	TagSparseArray = TagPadding
)

// MaxVersion 是可接受的最大 VERSION 负载。
const MaxVersion = 9

// tagNames 记录每个已映射字节的规范名，空串表示该字节不在词表中。
var tagNames = [256]string{
	TagInvalid:                   "INVALID",
	TagPadding:                   "PADDING",
	TagUndefined:                 "UNDEFINED",
	TagNull:                      "NULL",
	TagTrue:                      "TRUE",
	TagFalse:                     "FALSE",
	TagString:                    "STRING",
	TagStringUChar:               "STRING_UCHAR",
	TagInt32:                     "INT32",
	TagUint32:                    "UINT32",
	TagDate:                      "DATE",
	TagMessagePort:               "MESSAGE_PORT",
	TagNumber:                    "NUMBER",
	TagBlob:                      "BLOB",
	TagBlobIndex:                 "BLOB_INDEX",
	TagFile:                      "FILE",
	TagDOMFileSystem:             "DOM_FILE_SYSTEM",
	TagFileList:                  "FILE_LIST",
	TagFileListIndex:             "FILE_LIST_INDEX",
	TagImageData:                 "IMAGE_DATA",
	TagObject:                    "OBJECT",
	TagDenseArray:                "DENSE_ARRAY",
	TagRegExp:                    "REG_EXP",
	TagArrayBuffer:               "ARRAY_BUFFER",
	TagArrayBufferTransfer:       "ARRAY_BUFFER_TRANSFER",
	TagImageBitmapTransfer:       "IMAGE_BITMAP_TRANSFER",
	TagArrayBufferView:           "ARRAY_BUFFER_VIEW",
	TagSharedArrayBufferTransfer: "SHARED_ARRAY_BUFFER_TRANSFER",
	TagCryptoKey:                 "CRYPTO_KEY",
	TagObjectReference:           "OBJECT_REFERENCE",
	TagGenerateFreshObject:       "GENERATE_FRESH_OBJECT",
	TagGenerateFreshSparseArray:  "GENERATE_FRESH_SPARSE_ARRAY",
	TagGenerateFreshDenseArray:   "GENERATE_FRESH_DENSE_ARRAY",
	TagReferenceCount:            "REFERENCE_COUNT",
	TagStringObject:              "STRING_OBJECT",
	TagNumberObject:              "NUMBER_OBJECT",
	TagTrueObject:                "TRUE_OBJECT",
	TagFalseObject:               "FALSE_OBJECT",
	TagCompositorProxy:           "COMPOSITOR_PROXY",
	TagMap:                       "MAP",
	TagSet:                       "SET",
	TagGenerateFreshMap:          "GENERATE_FRESH_MAP",
	TagGenerateFreshSet:          "GENERATE_FRESH_SET",
	TagVersion:                   "VERSION",
}

var tagAliases = map[Tag][]string{
	TagFile:    {"FILE_INDEX"},
	TagPadding: {"SPARSE_ARRAY"},
}

// ParseTag 将线上字节映射为 Tag，未映射的字节返回 merr.ErrInvalidTag。
func ParseTag(b byte) (Tag, error) {
	if tagNames[b] == "" {
		return 0, merr.WrapErrInvalidTag("tag", b)
	}
	return Tag(b), nil
}

// TagByName 按规范名或别名查找 Tag。
func TagByName(name string) (Tag, bool) {
	for b, n := range tagNames {
		if n != "" && n == name {
			return Tag(b), true
		}
	}
	for tag, aliases := range tagAliases {
		if lo.Contains(aliases, name) {
			return tag, true
		}
	}
	return 0, false
}

// Valid 判断 t 是否在词表中。
func (t Tag) Valid() bool {
	return tagNames[t] != ""
}

// String 返回规范名，未映射的字节以十六进制形式输出。
func (t Tag) String() string {
	if name := tagNames[t]; name != "" {
		return name
	}
	return fmt.Sprintf("Tag(0x%02x)", byte(t))
}

// Aliases 返回与 t 共用字节的其他名字。
func (t Tag) Aliases() []string {
	return append([]string(nil), tagAliases[t]...)
}

// Handled 判断编解码器是否支持 t 的负载。
func (t Tag) Handled() bool {
	return codecs[t] != nil
}

// Tags 按字节序返回词表中的全部标签。
func Tags() []Tag {
	tags := make([]Tag, 0, 64)
	for b, name := range tagNames {
		if name != "" {
			tags = append(tags, Tag(b))
		}
	}
	return tags
}

// HandledTags 按字节序返回已支持负载的标签。
func HandledTags() []Tag {
	return lo.Filter(Tags(), func(t Tag, _ int) bool { return t.Handled() })
}
