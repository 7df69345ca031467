package history

import (
	"os"
	"runtime"
)

// HostFacts identifies the machine a run happened on.
type HostFacts struct {
	Hostname string
	Kernel   string
	Machine  string
}

// LocalHost never fails; unknown fields are left empty.
func LocalHost() HostFacts {
	facts := uname()
	if facts.Hostname == "" {
		facts.Hostname, _ = os.Hostname()
	}
	if facts.Machine == "" {
		facts.Machine = runtime.GOARCH
	}
	return facts
}
