package cli

import (
	"bytes"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/structclone-go/internal/compressor"
	"github.com/lk2023060901/structclone-go/internal/tokenfmt"
	"github.com/lk2023060901/structclone-go/pkg/log"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/structclone/stream"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

type encodeFlags struct {
	out          string
	compression  string
	scriptFormat string
}

func newEncodeCmd(state *rootState) *cobra.Command {
	flags := &encodeFlags{}
	cmd := &cobra.Command{
		Use:   "encode <script>",
		Short: "Encode a JSON or YAML token script into wire bytes",
		Long: `Encode a token script, a list of {tag, payload} documents as printed by
"dump -o yaml", into wire bytes. Every token is validated before any of its
bytes are emitted, and nothing is written to the output unless the whole
script encodes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(cmd, state, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.out, "out", "", "output file (default stdout)")
	cmd.Flags().StringVar(&flags.compression, "compression", compressor.NameNone, "block compression of the output: none, zstd, snappy, lz4")
	cmd.Flags().StringVar(&flags.scriptFormat, "script-format", "", "script syntax: json or yaml (default from the file extension)")
	return cmd
}

func runEncode(cmd *cobra.Command, state *rootState, flags *encodeFlags, script string) error {
	ctx, span := state.intent("encode")
	defer span.End()

	var (
		data []byte
		err  error
	)
	if script == stdinName {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(script)
	}
	if err != nil {
		return merr.WrapErrIoFailed(script, err)
	}

	format := flags.scriptFormat
	if format == "" {
		format = tokenfmt.ScriptFormat(script)
	}
	toks, err := tokenfmt.ParseScript(data, format)
	if err != nil {
		return err
	}

	wire, err := encodeTokens(toks, state.app.StreamOptions(script), state.app.CodecOptions())
	if err != nil {
		return err
	}

	comp, err := compressor.New(flags.compression)
	if err != nil {
		return err
	}
	if z, ok := comp.(*compressor.ZstdCompressor); ok {
		defer z.Close()
	}
	packet, err := comp.Compress(nil, wire)
	if err != nil {
		return err
	}

	if flags.out == "" {
		_, err = cmd.OutOrStdout().Write(packet)
	} else {
		err = os.WriteFile(flags.out, packet, 0o644)
	}
	if err != nil {
		return merr.WrapErrIoFailed(flags.out, err)
	}

	log.Ctx(ctx).Debug("script encoded",
		zap.Int("tokens", len(toks)),
		zap.Int("bytes", len(wire)),
		zap.String("compression", comp.Name()))
	return nil
}

// encodeTokens 经由 Stage 写出 toks，每写完一个 token 提交一次。
func encodeTokens(toks []structclone.Token, streamOpts []stream.Option, codecOpts []structclone.Option) ([]byte, error) {
	var buf bytes.Buffer
	st := stream.NewStage(&buf, streamOpts...)
	defer st.Release()

	w := structclone.NewWriter(st, codecOpts...)
	for i, tok := range toks {
		if err := w.WriteToken(tok); err != nil {
			st.Discard()
			return nil, errors.Wrapf(err, "token %d (%s)", i, tok.Tag)
		}
		if err := st.Commit(); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
