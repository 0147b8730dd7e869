package refupdate

import (
	"encoding/json"
	"strings"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/langplugin"
)

// conventionalAliases covers the path-alias prefixes common JavaScript
// frameworks wire up by convention, used when a workspace carries no
// tsconfig.json/jsconfig.json of its own (or one that doesn't mention a
// given prefix): SvelteKit's $lib always resolves to src/lib, and the
// bare "@/" root alias a plain tsconfig.json "paths" block would
// otherwise have to spell out.
var conventionalAliases = map[string]string{
	"$lib/*": "src/lib/*",
	"$lib":   "src/lib",
	"@/*":    "*",
}

// tsconfigShape is the subset of tsconfig.json/jsconfig.json this
// package reads: compilerOptions.paths, a map of alias prefix to a
// one-element array of target globs (TypeScript allows multiple
// fallback targets per alias; only the first is used here).
type tsconfigShape struct {
	CompilerOptions struct {
		BaseURL string              `json:"baseUrl"`
		Paths   map[string][]string `json:"paths"`
	} `json:"compilerOptions"`
}

// loadAliasConfig builds the AliasConfig a move's alias resolution uses,
// independent of whether the move also detected a package rename: every
// move reads the workspace's own tsconfig.json/jsconfig.json (first one
// found wins) layered over the conventional defaults, so an aliased
// import can be recognized even when the project carries no path-alias
// configuration file at all.
func (u *Updater) loadAliasConfig(projectRoot string) langplugin.AliasConfig {
	cfg := langplugin.AliasConfig{Aliases: make(map[string]string, len(conventionalAliases))}
	for prefix, dir := range conventionalAliases {
		cfg.Aliases[prefix] = dir
	}

	for _, name := range []string{"tsconfig.json", "jsconfig.json"} {
		content, err := afero.ReadFile(u.fs, joinWorkspacePath(projectRoot, name))
		if err != nil {
			continue
		}
		var parsed tsconfigShape
		if err := json.Unmarshal(content, &parsed); err != nil {
			continue
		}
		for prefix, targets := range parsed.CompilerOptions.Paths {
			if len(targets) == 0 {
				continue
			}
			cfg.Aliases[prefix] = joinBaseURL(parsed.CompilerOptions.BaseURL, targets[0])
		}
		break
	}

	return cfg
}

// joinBaseURL applies tsconfig's compilerOptions.baseUrl to a paths
// target, matching tsc's own resolution order.
func joinBaseURL(baseURL, target string) string {
	baseURL = strings.Trim(baseURL, "/")
	if baseURL == "" || baseURL == "." {
		return target
	}
	return baseURL + "/" + target
}

// mergeAliasConfig layers override's entries on top of base, returning a
// new AliasConfig rather than mutating either argument.
func mergeAliasConfig(base, override langplugin.AliasConfig) langplugin.AliasConfig {
	merged := make(map[string]string, len(base.Aliases)+len(override.Aliases))
	for k, v := range base.Aliases {
		merged[k] = v
	}
	for k, v := range override.Aliases {
		merged[k] = v
	}
	return langplugin.AliasConfig{Aliases: merged}
}
