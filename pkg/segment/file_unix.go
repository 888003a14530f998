//go:build unix

package segment

import (
	"os"

	"golang.org/x/sys/unix"
)

// dupFile 复制文件描述符
func dupFile(f *os.File) (*os.File, error) {
	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	return os.NewFile(uintptr(fd), f.Name()), nil
}
