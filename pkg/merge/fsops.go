package merge

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdejongh/dirmerge/pkg/logging"
	"github.com/sdejongh/dirmerge/pkg/models"
	"github.com/sdejongh/dirmerge/pkg/storage"
)

// fsPath is a path on one backend; it may not exist
type fsPath struct {
	backend storage.Backend
	path    string
}

func (p fsPath) String() string {
	if p.backend == nil || p.backend.IsLocal() {
		return p.path
	}
	return p.backend.String() + ":" + p.path
}

func (p fsPath) parent() fsPath {
	return fsPath{backend: p.backend, path: p.backend.Dir(p.path)}
}

func (p fsPath) same(o fsPath) bool {
	return p.backend == o.backend && p.path == o.path
}

func (x *Executor) side(e *Entry, side Side) fsPath {
	backend, p := x.tree.location(e.ID, side)
	return fsPath{backend: backend, path: p}
}

// destination returns where the operation of e writes
func (x *Executor) destination(e *Entry) fsPath {
	switch e.Operation {
	case models.OpMergeToAB, models.OpMergeToB, models.OpDeleteB, models.OpCopyAToB:
		return x.side(e, SideB)
	case models.OpMergeToA, models.OpDeleteA, models.OpCopyBToA:
		return x.side(e, SideA)
	}
	return x.side(e, SideDest)
}

func (x *Executor) stat(ctx context.Context, p fsPath) (*storage.FileNode, error) {
	return storage.NewFileNode(ctx, p.backend, p.path)
}

// logf appends a line to the run log
func (x *Executor) logf(ctx context.Context, format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	x.log = append(x.log, line)
	x.logger.Debug(ctx, line, nil)
}

// executeOperation carries out the operation of e. errMergePending means
// a single-file merge was handed to the merger.
func (x *Executor) executeOperation(ctx context.Context, e *Entry) error {
	backups := x.config.CreateBackups
	dest := x.destination(e)

	switch e.Operation {
	case models.OpNone:
		return nil
	case models.OpCopyAToDest, models.OpCopyAToB:
		return x.copyFLD(ctx, x.side(e, SideA), dest)
	case models.OpCopyBToDest, models.OpCopyBToA:
		return x.copyFLD(ctx, x.side(e, SideB), dest)
	case models.OpCopyCToDest:
		return x.copyFLD(ctx, x.side(e, SideC), dest)
	case models.OpDeleteFromDest, models.OpDeleteA, models.OpDeleteB:
		return x.deleteFLD(ctx, dest, backups)
	case models.OpDeleteAB:
		if err := x.deleteFLD(ctx, x.side(e, SideA), backups); err != nil {
			return err
		}
		return x.deleteFLD(ctx, x.side(e, SideB), backups)
	case models.OpMergeABToDest, models.OpMergeToA, models.OpMergeToAB, models.OpMergeToB, models.OpMergeABCToDest:
		return x.mergeFLD(ctx, e, dest)
	}

	if e.Operation.IsError() {
		return &ConflictError{Path: x.tree.SubPath(e.ID), Operation: e.Operation}
	}
	return fmt.Errorf("unknown merge operation %s", e.Operation)
}

// deleteFLD removes p, recursively for directories. With backup the item
// is renamed to p+extension instead.
func (x *Executor) deleteFLD(ctx context.Context, p fsPath, backup bool) error {
	node, err := x.stat(ctx, p)
	if err != nil {
		return err
	}
	if !node.Exists() {
		return nil
	}

	if backup {
		if err := x.backupFLD(ctx, node); err != nil {
			x.logf(ctx, "Error: While deleting %s: Creating backup failed.", p)
			return err
		}
		return nil
	}

	isDir := node.IsDir() && !node.IsSymlink()
	if isDir {
		x.logf(ctx, "delete folder recursively( %s )", p)
	} else {
		x.logf(ctx, "delete( %s )", p)
	}
	if x.simulate {
		return nil
	}

	if isDir {
		children, err := node.List(ctx, storage.ListOptions{FindHidden: true}, nil)
		if err != nil {
			x.logf(ctx, "Error: delete folder operation failed while trying to read the folder.")
			return err
		}
		for _, child := range children {
			if err := x.deleteFLD(ctx, fsPath{backend: p.backend, path: child.Path()}, false); err != nil {
				return err
			}
		}
		if err := node.Remove(ctx); err != nil {
			x.logf(ctx, "Error: rmdir( %s ) operation failed.", p)
			return err
		}
		return nil
	}

	if err := node.Remove(ctx); err != nil {
		x.logf(ctx, "Error: delete operation failed.")
		return err
	}
	return nil
}

// backupFLD renames node to node+extension, deleting an older backup first
func (x *Executor) backupFLD(ctx context.Context, node *storage.FileNode) error {
	src := fsPath{backend: node.Backend(), path: node.Path()}
	backup := fsPath{backend: node.Backend(), path: node.Path() + x.config.BackupExtension}

	if err := x.deleteFLD(ctx, backup, false); err != nil {
		return err
	}

	x.logf(ctx, "rename( %s -> %s )", src, backup)
	if x.simulate {
		return nil
	}
	if err := node.CreateBackup(ctx, x.config.BackupExtension); err != nil {
		x.logf(ctx, "Error: Rename failed.")
		return err
	}
	return nil
}

// copyFLD copies src to dest. An incompatible item at dest is deleted first.
func (x *Executor) copyFLD(ctx context.Context, src, dest fsPath) error {
	if src.same(dest) {
		return nil
	}

	srcNode, err := x.stat(ctx, src)
	if err != nil {
		return err
	}
	if !srcNode.Exists() {
		x.logf(ctx, "Error: copy( %s -> %s ) failed. Source does not exist.", src, dest)
		return &storage.Error{Op: "copy", Path: src.path, Kind: storage.KindNotFound}
	}

	destNode, err := x.stat(ctx, dest)
	if err != nil {
		return err
	}
	keepDest := destNode.Exists() && srcNode.IsDir() && destNode.IsDir() && srcNode.IsSymlink() == destNode.IsSymlink()
	if destNode.Exists() && !keepDest {
		if err := x.deleteFLD(ctx, dest, x.config.CreateBackups); err != nil {
			x.logf(ctx, "Error: copy( %s -> %s ) failed. Deleting existing destination failed.", src, dest)
			return err
		}
	}

	if srcNode.IsSymlink() && ((srcNode.IsDir() && !x.config.FollowDirLinks) || (!srcNode.IsDir() && !x.config.FollowFileLinks)) {
		return x.copyLink(ctx, srcNode, src, dest)
	}

	if srcNode.IsDir() {
		if keepDest {
			return nil
		}
		return x.makeDir(ctx, dest, false)
	}

	if err := x.makeDir(ctx, dest.parent(), true); err != nil {
		return err
	}

	x.logf(ctx, "copy( %s -> %s )", src, dest)
	if x.simulate {
		return nil
	}

	destNode, err = x.stat(ctx, dest)
	if err == nil {
		err = srcNode.CopyTo(ctx, destNode, x.limiter)
	}
	if err != nil {
		x.logf(ctx, "Error: copy( %s -> %s ) failed.", src, dest)
		return err
	}
	return nil
}

func (x *Executor) copyLink(ctx context.Context, srcNode *storage.FileNode, src, dest fsPath) error {
	x.logf(ctx, "copyLink( %s -> %s )", src, dest)
	if x.simulate {
		return nil
	}

	if !src.backend.IsLocal() || !dest.backend.IsLocal() {
		x.logf(ctx, "Error: copyLink failed: Remote links are not yet supported.")
		return &storage.Error{Op: "symlink", Path: dest.path, Kind: storage.KindOther, Err: errors.New("remote links are not supported")}
	}
	target := srcNode.LinkTarget()
	if target == "" {
		x.logf(ctx, "Error: copyLink failed.")
		return &storage.Error{Op: "symlink", Path: src.path, Kind: storage.KindOther, Err: errors.New("empty link target")}
	}

	destNode, err := x.stat(ctx, dest)
	if err == nil {
		err = destNode.Symlink(ctx, target)
	}
	if err != nil {
		x.logf(ctx, "Error: copyLink failed.")
		return err
	}
	return nil
}

// makeDir creates p and its missing parents. A file in the way is deleted
// with a backup.
func (x *Executor) makeDir(ctx context.Context, p fsPath, quiet bool) error {
	node, err := x.stat(ctx, p)
	if err != nil {
		return err
	}
	if node.IsDir() {
		return nil
	}
	if node.Exists() {
		if err := x.deleteFLD(ctx, p, true); err != nil {
			x.logf(ctx, "Error: makeDir( %s ) failed. Cannot delete existing file.", p)
			return err
		}
	}

	if parent := p.parent(); parent.path != p.path {
		if err := x.makeDir(ctx, parent, true); err != nil {
			return err
		}
	}

	if !quiet {
		x.logf(ctx, "makeDir( %s )", p)
	}
	if x.simulate {
		return nil
	}
	if err := node.MakeDir(ctx); err != nil {
		x.logf(ctx, "Error while creating folder.")
		return err
	}
	return nil
}

// mergeFLD creates directories directly and hands files to the merger
func (x *Executor) mergeFLD(ctx context.Context, e *Entry, dest fsPath) error {
	if e.HasDir() {
		return x.makeDir(ctx, dest, false)
	}

	if err := x.makeDir(ctx, dest.parent(), true); err != nil {
		return err
	}

	req := MergeRequest{Dest: dest.path, Local: dest.backend.IsLocal()}
	inputs := []*string{&req.A, &req.B, &req.C}
	names := make([]string, 3)
	for i, s := range sides {
		if !e.Exists(s) {
			continue
		}
		p := x.side(e, s)
		*inputs[i] = p.path
		names[i] = p.String()
		req.Local = req.Local && p.backend.IsLocal()
	}

	x.logf(ctx, "manual merge( %s, %s, %s -> %s)", names[0], names[1], names[2], dest)
	if x.simulate {
		x.logf(ctx, "     Note: After a manual merge the user should run the merge again to continue.")
		return nil
	}
	if x.merger == nil {
		return errors.New("no single file merge tool configured")
	}

	x.singleFileMerge = true
	e.Status = models.StatusInProgress
	x.logger.Info(ctx, "Starting single file merge", logging.Fields{"dest": dest.String()})
	if err := x.merger.RequestMerge(ctx, req); err != nil {
		x.singleFileMerge = false
		return err
	}
	return errMergePending
}
