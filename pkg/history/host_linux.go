//go:build linux

package history

import "golang.org/x/sys/unix"

func uname() HostFacts {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return HostFacts{}
	}
	return HostFacts{
		Hostname: unix.ByteSliceToString(u.Nodename[:]),
		Kernel:   unix.ByteSliceToString(u.Release[:]),
		Machine:  unix.ByteSliceToString(u.Machine[:]),
	}
}
