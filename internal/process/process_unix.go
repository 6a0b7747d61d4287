//go:build unix

package process

import "syscall"

// sysProcAttrNewGroup puts the child in its own process group so Kill
// can signal the whole JVM + any subprocesses it spawns.
func sysProcAttrNewGroup() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
