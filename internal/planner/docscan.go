package planner

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/registry"
	"github.com/nsavage/relocore/internal/walker"
)

// docConfigExtensions is the fixed set of non-source extensions scanned
// for textual references to a moved path (spec.md §4.F step 5); source
// extensions come from the registry itself, one per registered plugin,
// for the "string-literal references inside code" case.
var docConfigExtensions = map[string]bool{
	"md":       true,
	"markdown": true,
	"toml":     true,
	"yaml":     true,
	"yml":      true,
}

// scanDocsAndConfig implements spec.md §4.F step 5: every file carrying
// a textual reference to the moved path, or to a path inside a moved
// directory, gets a full-file replacement edit. movedPairs is (old, new)
// workspace-relative path for the moved entry itself plus, for a
// directory move, every file that was inside it.
func scanDocsAndConfig(ctx context.Context, fs afero.Fs, reg *registry.Registry, w *walker.Walker, plan *editplan.Plan, projectRoot string, movedPairs [][2]string, renameInfo *editplan.RenameInfo) error {
	scanExt := make(map[string]bool, len(docConfigExtensions))
	for ext := range docConfigExtensions {
		scanExt[ext] = true
	}
	for _, ext := range reg.Extensions() {
		scanExt[ext] = true
	}

	result, err := w.Walk(ctx, projectRoot, walker.Options{HonorGitignore: true, Extensions: scanExt})
	if err != nil {
		return err
	}

	movedSet := make(map[string]bool, len(movedPairs))
	for _, pair := range movedPairs {
		movedSet[pair[0]] = true
		movedSet[pair[1]] = true
	}

	for _, rel := range result.Files {
		if movedSet[rel] {
			// A file being scanned is itself one of the moved files only
			// once it no longer exists at its old relative path; skip
			// self-references entirely rather than rewrite a file while
			// also moving it out from under the edit.
			continue
		}
		absPath := toAbsolutePath(projectRoot, rel)
		content, err := afero.ReadFile(fs, absPath)
		if err != nil {
			plan.AddWarning(rel, corefail.NotFound, err.Error())
			continue
		}

		current := string(content)
		totalChanges := 0
		for _, pair := range movedPairs {
			for _, variant := range pairVariants(pair[0], pair[1]) {
				rewritten, n := replaceWordBoundary(current, variant[0], variant[1])
				current = rewritten
				totalChanges += n
			}
		}
		if renameInfo != nil && renameInfo.OldPackageName != renameInfo.NewPackageName {
			rewritten, n := replaceWordBoundary(current, renameInfo.OldPackageName, renameInfo.NewPackageName)
			current = rewritten
			totalChanges += n
		}
		if totalChanges == 0 {
			continue
		}

		if err := plan.AddEdit(editplan.TextEdit{
			FilePath:     rel,
			Kind:         editplan.Replace,
			Location:     editplan.FullFileLocation(string(content)),
			OriginalText: string(content),
			NewText:      current,
			Priority:     editplan.PriorityMisc,
			Description:  "updated references to moved path",
		}); err != nil {
			return err
		}
		plan.SetChecksum(rel, editplan.Checksum(content))
	}
	return nil
}

// replaceWordBoundary replaces every occurrence of old in src with new,
// requiring old not be immediately preceded or followed by a word
// character, the same safeguard the typemill prototype applies so that
// renaming "foo" never touches "foobar".
func replaceWordBoundary(src, old, new string) (string, int) {
	if old == "" || old == new {
		return src, 0
	}
	re := regexp.MustCompile(`(\W|^)` + regexp.QuoteMeta(old) + `(\W|$)`)
	count := 0
	out := re.ReplaceAllStringFunc(src, func(m string) string {
		count++
		loc := re.FindStringSubmatchIndex(m)
		prefix := m[loc[2]:loc[3]]
		suffix := m[loc[4]:loc[5]]
		return prefix + new + suffix
	})
	return out, count
}

// pairVariants expands one (old, new) path pair into the spellings
// documentation and config files commonly use to reference a path: the
// slash path as-is, with a leading "./", and without its extension.
func pairVariants(oldRel, newRel string) [][2]string {
	oldBase := strings.TrimSuffix(oldRel, path.Ext(oldRel))
	newBase := strings.TrimSuffix(newRel, path.Ext(newRel))
	return [][2]string{
		{oldRel, newRel},
		{"./" + oldRel, "./" + newRel},
		{oldBase, newBase},
	}
}
