// Package executor implements the Plan Executor (spec.md §4.H):
// verifies an EditPlan's checksum preconditions, partitions its edits
// into file-level operations (create, delete, move) and intra-file
// text edits, applies each in priority/location order, and reports a
// per-file result.
//
// Grounded on
// _examples/original_source/crates/cb-services/src/services/file_service/basic_ops.rs's
// create_file/delete_file: dry_run returns a preview without touching
// the filesystem, execute mode queues one FileOperation per step on the
// Operation Queue and blocks on wait_until_idle before reporting
// success. This package reproduces that same two-mode split
// (QueueWrites=true submits through internal/opqueue and waits for
// idle; QueueWrites=false — the default — writes directly with an
// afero temp-file-then-rename, the other apply mode spec.md §4.H step 3
// names) rather than the exact Rust FileService/PlanExecutor pair,
// which depended on its out-of-process server's ToolHandler plumbing
// and was not present in the retrieved original_source pack.
package executor

import (
	"context"
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/opqueue"
)

// Options configures a single Execute call.
type Options struct {
	// DryRun returns a successful Result marked DryRun without touching
	// disk. The Result lists no applied files or per-file outcomes, and
	// the plan's checksums are not checked.
	DryRun bool
	// QueueWrites routes file writes, deletes and moves through an
	// opqueue.Queue (enqueue-and-wait-until-idle) instead of performing
	// them directly. When the Executor was built with a nil Queue, this
	// option has no effect and everything is written directly.
	QueueWrites bool
}

// FileOutcome reports what happened to a single file.
type FileOutcome struct {
	Path    string `json:"path"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// Result is the serializable record spec.md §4.H step 5 calls for.
type Result struct {
	Success      bool          `json:"success"`
	DryRun       bool          `json:"dry_run"`
	AppliedFiles []string      `json:"applied_files"`
	FileResults  []FileOutcome `json:"file_results"`
}

// Executor applies EditPlans against fs, optionally routing writes
// through an opqueue.Queue.
type Executor struct {
	fs    afero.Fs
	queue *opqueue.Queue
}

// New builds an Executor. queue may be nil; it is only consulted when
// Options.QueueWrites is set.
func New(fs afero.Fs, queue *opqueue.Queue) *Executor {
	return &Executor{fs: fs, queue: queue}
}

// Execute implements spec.md §4.H's five-step algorithm.
func (ex *Executor) Execute(ctx context.Context, projectRoot string, plan *editplan.Plan, opts Options) (Result, error) {
	if opts.DryRun {
		return Result{Success: true, DryRun: true}, nil
	}

	if err := ex.checkPreconditions(projectRoot, plan); err != nil {
		return Result{}, err
	}

	fileEdits, fileOps := partition(plan.Edits)

	result := Result{Success: true, DryRun: false}

	for filePath, edits := range fileEdits {
		outcome := ex.applyTextEdits(ctx, projectRoot, filePath, edits, opts)
		result.FileResults = append(result.FileResults, outcome)
		if outcome.Applied {
			result.AppliedFiles = append(result.AppliedFiles, outcome.Path)
		} else {
			result.Success = false
		}
	}

	creates, deletes, moves := bucketByKind(fileOps)
	for _, e := range creates {
		outcome := ex.applyCreate(ctx, projectRoot, e, opts)
		result.FileResults = append(result.FileResults, outcome)
		if outcome.Applied {
			result.AppliedFiles = append(result.AppliedFiles, outcome.Path)
		} else {
			result.Success = false
		}
	}
	for _, e := range moves {
		outcome := ex.applyMove(ctx, projectRoot, e, opts)
		result.FileResults = append(result.FileResults, outcome)
		if outcome.Applied {
			result.AppliedFiles = append(result.AppliedFiles, outcome.Path)
		} else {
			result.Success = false
		}
	}
	for _, e := range deletes {
		outcome := ex.applyDelete(ctx, projectRoot, e, opts)
		result.FileResults = append(result.FileResults, outcome)
		if outcome.Applied {
			result.AppliedFiles = append(result.AppliedFiles, outcome.Path)
		} else {
			result.Success = false
		}
	}

	sort.Strings(result.AppliedFiles)
	return result, nil
}

// checkPreconditions implements step 1: every checksummed path's
// current content must hash to the recorded value.
func (ex *Executor) checkPreconditions(projectRoot string, plan *editplan.Plan) error {
	for filePath, want := range plan.Checksums {
		abs := joinPath(projectRoot, filePath)
		content, err := afero.ReadFile(ex.fs, abs)
		if err != nil {
			continue // file already moved/deleted by a prior partial apply; nothing to compare
		}
		got := editplan.Checksum(content)
		if got != want {
			return corefail.New(corefail.PreconditionFailed, "checksum mismatch for %s: file changed since the plan was produced", filePath)
		}
	}
	return nil
}

// partition implements step 2: Insert/Replace edits are grouped by
// file path for in-buffer application; Create/Delete/Move edits are
// collected separately as file-level operations.
func partition(edits []editplan.TextEdit) (map[string][]editplan.TextEdit, []editplan.TextEdit) {
	fileEdits := make(map[string][]editplan.TextEdit)
	var fileOps []editplan.TextEdit
	for _, e := range edits {
		switch e.Kind {
		case editplan.Insert, editplan.Replace:
			fileEdits[e.FilePath] = append(fileEdits[e.FilePath], e)
		default:
			fileOps = append(fileOps, e)
		}
	}
	return fileEdits, fileOps
}

// bucketByKind splits fileOps (already filtered to Create/Delete/Move
// by partition) by kind, so Execute can enforce spec.md §4.H step 4's
// ordering: creates before deletes, with moves handled as their own
// rename step in between.
func bucketByKind(ops []editplan.TextEdit) (creates, deletes, moves []editplan.TextEdit) {
	for _, e := range ops {
		switch e.Kind {
		case editplan.Create:
			creates = append(creates, e)
		case editplan.Delete:
			deletes = append(deletes, e)
		case editplan.Move:
			moves = append(moves, e)
		}
	}
	return
}

// applyTextEdits implements step 3: sort descending by priority then
// by descending (start_line, start_column) so earlier-applied edits
// never shift the byte offsets later edits in the same pass depend on,
// splice each into an in-memory buffer, then write the result.
func (ex *Executor) applyTextEdits(ctx context.Context, projectRoot, filePath string, edits []editplan.TextEdit, opts Options) FileOutcome {
	abs := joinPath(projectRoot, filePath)
	content, err := afero.ReadFile(ex.fs, abs)
	if err != nil {
		return FileOutcome{Path: filePath, Applied: false, Error: err.Error()}
	}

	sorted := make([]editplan.TextEdit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		if sorted[i].Location.Start.Line != sorted[j].Location.Start.Line {
			return sorted[i].Location.Start.Line > sorted[j].Location.Start.Line
		}
		return sorted[i].Location.Start.Column > sorted[j].Location.Start.Column
	})

	buf := string(content)
	for _, e := range sorted {
		start, end := e.Location.Offsets(buf)
		if start < 0 || end > len(buf) || start > end {
			return FileOutcome{Path: filePath, Applied: false, Error: "edit location out of bounds after prior splices"}
		}
		if e.Kind == editplan.Replace && e.OriginalText != "" && buf[start:end] != e.OriginalText {
			return FileOutcome{Path: filePath, Applied: false, Error: "original text does not match the file content at the edit location"}
		}
		buf = buf[:start] + e.NewText + buf[end:]
	}

	if err := ex.writeFile(ctx, abs, []byte(buf), opts); err != nil {
		return FileOutcome{Path: filePath, Applied: false, Error: err.Error()}
	}
	return FileOutcome{Path: filePath, Applied: true}
}

func (ex *Executor) applyCreate(ctx context.Context, projectRoot string, e editplan.TextEdit, opts Options) FileOutcome {
	abs := joinPath(projectRoot, e.FilePath)
	if err := ex.fs.MkdirAll(path.Dir(abs), 0o755); err != nil {
		return FileOutcome{Path: e.FilePath, Applied: false, Error: err.Error()}
	}
	if err := ex.writeFile(ctx, abs, []byte(e.NewText), opts); err != nil {
		return FileOutcome{Path: e.FilePath, Applied: false, Error: err.Error()}
	}
	return FileOutcome{Path: e.FilePath, Applied: true}
}

func (ex *Executor) applyDelete(ctx context.Context, projectRoot string, e editplan.TextEdit, opts Options) FileOutcome {
	abs := joinPath(projectRoot, e.FilePath)
	if opts.QueueWrites && ex.queue != nil {
		if err := ex.submitAndWait(ctx, opqueue.Operation{Kind: opqueue.OpDelete, Path: abs}); err != nil {
			return FileOutcome{Path: e.FilePath, Applied: false, Error: err.Error()}
		}
		return FileOutcome{Path: e.FilePath, Applied: true}
	}
	if err := ex.fs.Remove(abs); err != nil {
		return FileOutcome{Path: e.FilePath, Applied: false, Error: err.Error()}
	}
	return FileOutcome{Path: e.FilePath, Applied: true}
}

// applyMove performs the physical rename spec.md §4.F's Move edits
// describe; parent directories for the destination are created first
// since step 4 says "within creates, parent directories created as
// needed" and a move's destination is effectively a create of a new
// path.
func (ex *Executor) applyMove(ctx context.Context, projectRoot string, e editplan.TextEdit, opts Options) FileOutcome {
	fromAbs := joinPath(projectRoot, e.MovedFrom)
	toAbs := joinPath(projectRoot, e.MovedTo)
	if err := ex.fs.MkdirAll(path.Dir(toAbs), 0o755); err != nil {
		return FileOutcome{Path: e.MovedFrom, Applied: false, Error: err.Error()}
	}
	if opts.QueueWrites && ex.queue != nil {
		if err := ex.submitAndWait(ctx, opqueue.Operation{Kind: opqueue.OpRename, Path: fromAbs, Payload: []byte(toAbs)}); err != nil {
			return FileOutcome{Path: e.MovedFrom, Applied: false, Error: err.Error()}
		}
		return FileOutcome{Path: e.MovedFrom, Applied: true}
	}
	if err := ex.fs.Rename(fromAbs, toAbs); err != nil {
		return FileOutcome{Path: e.MovedFrom, Applied: false, Error: err.Error()}
	}
	return FileOutcome{Path: e.MovedFrom, Applied: true}
}

// writeFile performs the atomic per-file write spec.md §4.H step 3
// allows either way: directly via a temp-file-then-rename when
// opts.QueueWrites is false (the default), or by enqueuing a write
// operation on the Operation Queue and waiting for idle otherwise.
func (ex *Executor) writeFile(ctx context.Context, abs string, content []byte, opts Options) error {
	if opts.QueueWrites && ex.queue != nil {
		return ex.submitAndWait(ctx, opqueue.Operation{Kind: opqueue.OpWrite, Path: abs, Payload: content})
	}
	return atomicWrite(ex.fs, abs, content)
}

func (ex *Executor) submitAndWait(ctx context.Context, op opqueue.Operation) error {
	result, err := ex.queue.SubmitAndWait(ctx, opqueue.NewTransaction([]opqueue.Operation{op}))
	if err != nil {
		return err
	}
	return result.Err
}

// atomicWrite writes content to a sibling temp file, then renames it
// over abs, so a crash or concurrent reader never observes a partially
// written file.
func atomicWrite(fs afero.Fs, abs string, content []byte) error {
	dir := path.Dir(abs)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmpFile, err := afero.TempFile(fs, dir, "."+path.Base(abs)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := tmpFile.Name()
	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		_ = fs.Remove(tmp)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	if err := fs.Rename(tmp, abs); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	return nil
}

func joinPath(root, rel string) string {
	return path.Clean(root + "/" + rel)
}
