//go:build unix

package collection

import "golang.org/x/sys/unix"

func checkReadWrite(path string) error {
	return unix.Access(path, unix.R_OK|unix.W_OK)
}
