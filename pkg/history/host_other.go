//go:build !linux

package history

func uname() HostFacts {
	return HostFacts{}
}
