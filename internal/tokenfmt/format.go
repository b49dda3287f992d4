package tokenfmt

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/structclone-go/internal/json"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// Entry 是附带标签字节流偏移的 token 文档。
type Entry struct {
	Offset int64 `json:"offset" yaml:"offset"`
	Doc    `yaml:",inline"`
}

// Dump 是单个输入解码得到的 token 列表。
type Dump struct {
	Input   string  `json:"input" yaml:"input"`
	Version *uint64 `json:"version,omitempty" yaml:"version,omitempty"`
	Tokens  []Entry `json:"tokens" yaml:"tokens"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Formatter 负责渲染 Dump。
type Formatter interface {
	Format(w io.Writer, dumps []Dump) error
}

// NewFormatter 按格式名返回 Formatter，支持 "table"、"json" 与 "yaml"。
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "table", "":
		return TableFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	case "yaml":
		return YAMLFormatter{}, nil
	default:
		return nil, merr.WrapErrParameterInvalid("table|json|yaml", format, "format")
	}
}

// TableFormatter 将每个 Dump 输出为对齐的 OFFSET/TAG/PAYLOAD 表格。
type TableFormatter struct{}

func (TableFormatter) Format(w io.Writer, dumps []Dump) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, d := range dumps {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		if d.Version != nil {
			fmt.Fprintf(tw, "# %s (version %d)\n", d.Input, *d.Version)
		} else {
			fmt.Fprintf(tw, "# %s\n", d.Input)
		}
		fmt.Fprintln(tw, "OFFSET\tTAG\tPAYLOAD")
		for _, e := range d.Tokens {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Offset, e.Tag, e.payloadString())
		}
		if d.Error != "" {
			fmt.Fprintf(tw, "error: %s\n", d.Error)
		}
	}
	return tw.Flush()
}

// JSONFormatter 输出带缩进的 JSON。
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, dumps []Dump) error {
	b, err := json.MarshalIndent(dumps, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// YAMLFormatter 输出 YAML。
type YAMLFormatter struct{}

func (YAMLFormatter) Format(w io.Writer, dumps []Dump) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(dumps); err != nil {
		return err
	}
	return enc.Close()
}
