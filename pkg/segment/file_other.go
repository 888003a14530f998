//go:build !unix

package segment

import "os"

// dupFile 在不支持 dup 的平台上按名称重新打开文件
func dupFile(f *os.File) (*os.File, error) {
	return os.Open(f.Name())
}
