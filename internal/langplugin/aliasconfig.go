package langplugin

import (
	"encoding/json"

	"github.com/nsavage/relocore/internal/corefail"
)

// AliasConfigExtraKey is the RenameInfo.Extra key a caller populates
// with a JSON-encoded AliasConfig before invoking a PathAliasResolver-
// capable plugin's ImportRenameSupport, since RewriteRequest itself
// carries no dedicated AliasConfig field (most languages have no such
// concept). Kept here rather than in a single language's package so
// any PathAliasResolver-capable plugin, and the reference updater that
// calls it, share one encoding.
const AliasConfigExtraKey = "path_alias_config_json"

// EncodeAliasConfigExtra marshals cfg for RenameInfo.Extra.
func EncodeAliasConfigExtra(cfg AliasConfig) (string, error) {
	b, err := json.Marshal(cfg.Aliases)
	if err != nil {
		return "", corefail.Wrap(corefail.Internal, err, "encoding alias config")
	}
	return string(b), nil
}

// DecodeAliasConfigExtra reads an AliasConfig back out of a
// RenameInfo.Extra map, defaulting to an empty config when the key is
// absent or malformed.
func DecodeAliasConfigExtra(extra map[string]string) AliasConfig {
	raw, ok := extra[AliasConfigExtraKey]
	if !ok {
		return AliasConfig{}
	}
	var aliases map[string]string
	if err := json.Unmarshal([]byte(raw), &aliases); err != nil {
		return AliasConfig{}
	}
	return AliasConfig{Aliases: aliases}
}
