//go:build !linux

package filesystem

import "os"

const blockSize = 4096

func inspect(_ string, e os.DirEntry) (FileEntry, error) {
	info, err := e.Info()
	if err != nil {
		return FileEntry{}, err
	}
	size := info.Size()
	if rem := size % blockSize; rem != 0 {
		size += blockSize - rem
	}
	return FileEntry{Name: e.Name(), ModTime: info.ModTime(), Allocated: size}, nil
}
