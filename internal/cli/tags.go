package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/structclone-go/internal/json"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
)

type tagInfo struct {
	Name    string   `json:"name" yaml:"name"`
	Byte    string   `json:"byte" yaml:"byte"`
	Handled bool     `json:"handled" yaml:"handled"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

type subtagInfo struct {
	Name        string `json:"name" yaml:"name"`
	Byte        string `json:"byte" yaml:"byte"`
	ElementSize uint64 `json:"elementSize" yaml:"elementSize"`
}

type vocabulary struct {
	Tags    []tagInfo    `json:"tags" yaml:"tags"`
	Subtags []subtagInfo `json:"subtags" yaml:"subtags"`
}

func newTagsCmd(state *rootState) *cobra.Command {
	var handledOnly bool
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tag and subtag vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := structclone.Tags()
			if handledOnly {
				tags = structclone.HandledTags()
			}
			vocab := vocabulary{
				Tags: lo.Map(tags, func(t structclone.Tag, _ int) tagInfo {
					return tagInfo{Name: t.String(), Byte: byteString(byte(t)), Handled: t.Handled(), Aliases: t.Aliases()}
				}),
				Subtags: lo.Map(structclone.Subtags(), func(s structclone.Subtag, _ int) subtagInfo {
					return subtagInfo{Name: s.String(), Byte: byteString(byte(s)), ElementSize: s.ElementSize()}
				}),
			}

			w := cmd.OutOrStdout()
			switch state.app.Config().Dump.Format {
			case "json":
				b, err := json.MarshalIndent(vocab, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(b))
				return err
			case "yaml":
				return yaml.NewEncoder(w).Encode(vocab)
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TAG\tBYTE\tHANDLED\tALIASES")
			for _, t := range vocab.Tags {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", t.Name, t.Byte, t.Handled, strings.Join(t.Aliases, ","))
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "SUBTAG\tBYTE\tELEMENT SIZE")
			for _, s := range vocab.Subtags {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Name, s.Byte, s.ElementSize)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&handledOnly, "handled", false, "only list tags with a payload grammar")
	return cmd
}

// byteString 将可打印字节输出为带引号的字符，其余以十六进制输出。
func byteString(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return fmt.Sprintf("%q (0x%02x)", rune(b), b)
	}
	return fmt.Sprintf("0x%02x", b)
}
