package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSPublisher — публикация артефактов в локальный каталог.
//
// Артефакт job'а J с путём P копируется в <root>/<J>/<base(P)>.
// Каталоги копируются рекурсивно.
type FSPublisher struct {
	root string
	// workdir — база для относительных путей артефактов.
	workdir string
}

// NewFSPublisher создаёт publisher с корневым каталогом хранилища.
// workdir — рабочий каталог pipeline (база относительных путей);
// пустая строка означает текущий каталог процесса.
func NewFSPublisher(root, workdir string) *FSPublisher {
	return &FSPublisher{root: root, workdir: workdir}
}

// Publish копирует артефакт в хранилище.
func (p *FSPublisher) Publish(ctx context.Context, jobName, path string) (string, error) {
	src := path
	if !filepath.IsAbs(src) {
		src = filepath.Join(p.workdir, src)
	}

	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	// Имя job может содержать символы, недопустимые в путях (":").
	dir := filepath.Join(p.root, sanitize(jobName))
	dst := filepath.Join(dir, filepath.Base(strings.TrimRight(path, "/")))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	if info.IsDir() {
		err = copyDir(ctx, src, dst)
	} else {
		err = copyFile(src, dst, info.Mode())
	}
	if err != nil {
		return "", fmt.Errorf("copy artifact %s: %w", path, err)
	}

	return dst, nil
}

// sanitize заменяет недопустимые в путях символы имени job.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\':
			return '_'
		}
		return r
	}, name)
}

// copyDir рекурсивно копирует каталог.
func copyDir(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode())
	})
}

// copyFile копирует один файл с сохранением прав.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
