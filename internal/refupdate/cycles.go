package refupdate

import (
	"context"
	"sort"

	"github.com/nsavage/relocore/internal/editplan"
)

// FindingKind classifies a circular-dependency analysis result.
type FindingKind string

// CircularDependency is the only finding kind this analysis produces
// (spec.md §8 scenario S5).
const CircularDependency FindingKind = "circular_dependency"

// Finding is one reported issue from FindCycles.
type Finding struct {
	Kind  FindingKind `json:"kind"`
	Cycle []string    `json:"cycle"`
}

// FindCycles scans every plugin-coverable file under projectRoot that
// scope admits, builds an import graph by resolving each parsed
// specifier to the candidate file it most plausibly names (see
// modulePathFor's documented suffix-match heuristic in resolve.go), and
// reports each elementary cycle exactly once (spec.md §8 scenario S5:
// "a.ts imports b.ts imports a.ts" yields one finding, not two).
//
// The reference updater "visits files, not modules" (spec.md §7), so a
// cycle manifests here purely as a file reachable from itself through
// the edges built below — the candidate set already bounds recursion.
func (u *Updater) FindCycles(ctx context.Context, projectRoot string, scope *editplan.RenameScope) ([]Finding, error) {
	candidates, err := u.enumerateCandidates(ctx, projectRoot, "", scope)
	if err != nil {
		return nil, err
	}

	segmentsByFile := make(map[string][]string, len(candidates))
	for _, c := range candidates {
		segmentsByFile[c.relPath] = modulePathFor(c.relPath)
	}

	graph := make(map[string][]string, len(candidates))
	for _, c := range candidates {
		plugin, ok := u.reg.PluginForExtension(c.ext)
		if !ok {
			continue
		}
		parser, ok := plugin.ImportParser()
		if !ok {
			continue
		}

		absPath := joinWorkspacePath(projectRoot, c.relPath)
		content, mtime, readErr := readFileWithMtime(u.fs, absPath)
		if readErr != nil {
			continue
		}

		imports, hit := u.cache.Get(absPath, mtime)
		if !hit {
			parsed, parseErr := parser.ParseImports(ctx, content)
			if parseErr != nil {
				continue
			}
			imports = parsed
			u.cache.Put(absPath, mtime, imports)
		}

		sep := plugin.Metadata().ModuleSeparator
		for _, imp := range imports {
			for target, targetSegs := range segmentsByFile {
				if target == c.relPath {
					continue
				}
				if specifierMatchesTarget(imp, sep, targetSegs) {
					graph[c.relPath] = append(graph[c.relPath], target)
					break
				}
			}
		}
	}

	return findingsFromGraph(graph), nil
}

// findingsFromGraph runs DFS from every node, reporting the first
// back-edge found on each path and deduplicating cycles that are
// rotations of one another (A->B->A and B->A->B are the same cycle).
func findingsFromGraph(graph map[string][]string) []Finding {
	seen := make(map[string]bool)
	var findings []Finding

	var nodes []string
	for n := range graph {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	for _, start := range nodes {
		path := []string{start}
		onPath := map[string]int{start: 0}
		visitForCycle(graph, start, path, onPath, &findings, seen)
	}
	return findings
}

func visitForCycle(graph map[string][]string, node string, path []string, onPath map[string]int, findings *[]Finding, seen map[string]bool) {
	neighbors := append([]string(nil), graph[node]...)
	sort.Strings(neighbors)

	for _, next := range neighbors {
		if idx, onCurrentPath := onPath[next]; onCurrentPath {
			cycle := append([]string(nil), path[idx:]...)
			key := canonicalCycleKey(cycle)
			if !seen[key] {
				seen[key] = true
				*findings = append(*findings, Finding{Kind: CircularDependency, Cycle: cycle})
			}
			continue
		}
		onPath[next] = len(path)
		visitForCycle(graph, next, append(path, next), onPath, findings, seen)
		delete(onPath, next)
	}
}

// canonicalCycleKey rotates cycle to start at its lexicographically
// smallest element so equivalent rotations hash identically.
func canonicalCycleKey(cycle []string) string {
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	var key string
	for i := 0; i < len(cycle); i++ {
		key += cycle[(minIdx+i)%len(cycle)] + ">"
	}
	return key
}
