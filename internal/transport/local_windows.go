//go:build windows

package transport

import "os/exec"

func shellInvocation(shell string) (string, string) {
	return "cmd", "/C"
}

func configureCommandForCancellation(_ *exec.Cmd) {
	// Windows has no Unix process-group model to set up here.
}

func terminateCommandOnCancel(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
