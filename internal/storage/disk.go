package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-classifieds/pkg/utils"
)

// Store 附件存储；Save 返回后续可引用的存储名
type Store interface {
	Save(originalName string, r io.Reader) (string, error)
	Remove(ref string) error
}

// Disk 本地磁盘实现，文件名用随机 id，保留原扩展名
type Disk struct {
	dir string
}

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	ref := utils.NewID() + ext
	f, err := os.Create(filepath.Join(d.dir, ref))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return ref, nil
}

func (d *Disk) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	// 防止引用越界到上层目录
	ref = filepath.Base(ref)
	err := os.Remove(filepath.Join(d.dir, ref))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
