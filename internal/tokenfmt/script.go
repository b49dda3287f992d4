package tokenfmt

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/structclone-go/internal/json"
	"github.com/lk2023060901/structclone-go/pkg/structclone"
	"github.com/lk2023060901/structclone-go/pkg/util/merr"
)

// ScriptFormat 根据文件名选择脚本语法：.json 为 JSON，其余为 YAML。
func ScriptFormat(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "json"
	}
	return "yaml"
}

// ParseScript 解析 token 脚本，即 JSON 或 YAML 格式的 Doc 列表。
//
//	- tag: VERSION
//	  uint: 9
//	- tag: STRING
//	  text: hi
func ParseScript(data []byte, format string) ([]structclone.Token, error) {
	var docs []Doc
	switch format {
	case "json":
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("json script: %s", err.Error())
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &docs); err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("yaml script: %s", err.Error())
		}
	default:
		return nil, merr.WrapErrParameterInvalid("json|yaml", format, "script format")
	}

	toks := make([]structclone.Token, 0, len(docs))
	for i, doc := range docs {
		tok, err := doc.Token()
		if err != nil {
			return nil, merr.Combine(merr.WrapErrParameterInvalidMsg("script entry %d", i), err)
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// Script 将 toks 渲染为 ParseScript 可以解析的 token 脚本。
func Script(toks []structclone.Token, format string) ([]byte, error) {
	docs := lo.Map(toks, func(tok structclone.Token, _ int) Doc { return FromToken(tok) })
	if format == "json" {
		return json.MarshalIndent(docs, "", "  ")
	}
	return yaml.Marshal(docs)
}
