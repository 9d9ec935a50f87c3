//go:build windows

package sandbox

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {
	// Process groups are a Unix concept; on Windows only the direct child
	// is terminated.
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
