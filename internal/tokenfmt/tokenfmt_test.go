package tokenfmt

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

func sampleTokens() []structclone.Token {
	return []structclone.Token{
		structclone.Version(9),
		structclone.FreshObject(),
		structclone.ReferenceCount(1),
		structclone.String([]byte("hi")),
		structclone.ArrayBuffer([]byte{0xff, 0x00, 0x10}),
		structclone.ArrayBuffer([]byte{}),
		structclone.Date(1.5e12),
		structclone.Int32(-7),
		structclone.View(structclone.SubtagFloatArray, 0, 16),
		structclone.Object(1),
		structclone.Padding(),
	}
}

func TestDocRoundTrip(t *testing.T) {
	for _, tok := range sampleTokens() {
		got, err := FromToken(tok).Token()
		require.NoError(t, err, tok.String())
		assert.Equal(t, tok, got)
	}
}

func TestDocNonFiniteDate(t *testing.T) {
	for _, f := range []float64{math.Inf(1), math.Inf(-1)} {
		doc := FromToken(structclone.Date(f))
		assert.Nil(t, doc.Double)
		require.NotNil(t, doc.Text)
		tok, err := doc.Token()
		require.NoError(t, err)
		assert.Equal(t, f, tok.Double)
	}
	tok, err := FromToken(structclone.Date(math.NaN())).Token()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(tok.Double))
}

func TestDocErrors(t *testing.T) {
	_, err := Doc{Tag: "NOPE"}.Token()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = Doc{Tag: "OBJECT"}.Token()
	assert.ErrorIs(t, err, merr.ErrParameterMissing)

	bad := "zz"
	_, err = Doc{Tag: "ARRAY_BUFFER", Hex: &bad}.Token()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	_, err = Doc{Tag: "ARRAY_BUFFER_VIEW", View: &ViewDoc{Subtag: "NOPE"}}.Token()
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	tok, err := Doc{Tag: "MAP"}.Token()
	require.NoError(t, err)
	assert.Equal(t, structclone.TagMap, tok.Tag)

	tok, err = Doc{Tag: "SPARSE_ARRAY"}.Token()
	require.NoError(t, err)
	assert.Equal(t, structclone.TagPadding, tok.Tag)
}

func TestScriptRoundTrip(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		data, err := Script(sampleTokens(), format)
		require.NoError(t, err)
		toks, err := ParseScript(data, format)
		require.NoError(t, err, format)
		assert.Equal(t, sampleTokens(), toks, format)
	}
}

func TestParseYAMLScript(t *testing.T) {
	toks, err := ParseScript([]byte(`
- tag: VERSION
  uint: 9
- tag: STRING
  text: hi
- tag: ARRAY_BUFFER_VIEW
  view: {subtag: FLOAT_ARRAY, offset: 0, length: 16}
`), ScriptFormat("tokens.yml"))
	require.NoError(t, err)
	assert.Equal(t, []structclone.Token{
		structclone.Version(9),
		structclone.String([]byte("hi")),
		structclone.View(structclone.SubtagFloatArray, 0, 16),
	}, toks)

	_, err = ParseScript([]byte(`- tag: INT32`), "yaml")
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
	assert.Contains(t, err.Error(), "script entry 0")

	_, err = ParseScript([]byte(`[`), "json")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	_, err = ParseScript(nil, "toml")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	assert.Equal(t, "json", ScriptFormat("a.JSON"))
}

func sampleDumps() []Dump {
	version := uint64(9)
	entries := make([]Entry, 0)
	offset := int64(0)
	for _, tok := range sampleTokens()[:4] {
		entries = append(entries, Entry{Offset: offset, Doc: FromToken(tok)})
		offset += 2
	}
	return []Dump{
		{Input: "a.bin", Version: &version, Tokens: entries},
		{Input: "b.bin", Tokens: []Entry{}, Error: "invalid tag[tag=0x01]"},
	}
}

func TestTableFormatter(t *testing.T) {
	f, err := NewFormatter("table")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleDumps()))

	out := buf.String()
	assert.Contains(t, out, "# a.bin (version 9)")
	assert.Contains(t, out, "OFFSET")
	assert.Contains(t, out, `"hi"`)
	assert.Contains(t, out, "GENERATE_FRESH_OBJECT")
	assert.Contains(t, out, "error: invalid tag[tag=0x01]")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "error:"))
}

func TestJSONFormatter(t *testing.T) {
	f, err := NewFormatter("JSON")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleDumps()))
	assert.Contains(t, buf.String(), `"input": "a.bin"`)
	assert.Contains(t, buf.String(), `"tag": "STRING"`)
	assert.Contains(t, buf.String(), `"text": "hi"`)
}

func TestYAMLFormatter(t *testing.T) {
	f, err := NewFormatter("yaml")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleDumps()))
	assert.Contains(t, buf.String(), "input: a.bin")
	assert.Contains(t, buf.String(), "tag: VERSION")
	assert.Contains(t, buf.String(), "error: invalid tag[tag=0x01]")

	_, err = NewFormatter("xml")
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
