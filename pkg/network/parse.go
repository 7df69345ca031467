// pkg/network/parse.go

package network

import (
	"bufio"
	"net"
	"strings"
)

// LinkState is what `ip link show <iface>` says about an interface.
type LinkState struct {
	Present bool
	// Up is the administrative UP flag.
	Up bool
	// OperState is the kernel operational state (UP, DOWN, DORMANT, ...).
	OperState string
}

// ParseLinkShow parses `ip link show <iface>` output, e.g.
//
//	3: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc ... state UP mode DORMANT ...
func ParseLinkShow(out string) LinkState {
	var st LinkState
	for _, line := range strings.Split(out, "\n") {
		open := strings.IndexByte(line, '<')
		end := strings.IndexByte(line, '>')
		if open < 0 || end < open {
			continue
		}
		st.Present = true
		for _, flag := range strings.Split(line[open+1:end], ",") {
			if flag == "UP" {
				st.Up = true
			}
		}
		fields := strings.Fields(line[end+1:])
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "state" {
				st.OperState = fields[i+1]
				break
			}
		}
		break
	}
	return st
}

// ParseScan extracts SSIDs from `iwlist <iface> scan` output, dropping
// hidden networks and duplicates while keeping first-seen order.
func ParseScan(out string) []string {
	seen := make(map[string]struct{})
	var ssids []string

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "ESSID:") {
			continue
		}
		ssid := unquote(strings.TrimPrefix(line, "ESSID:"))
		if ssid == "" || strings.Contains(ssid, `\x00`) {
			continue
		}
		if _, dup := seen[ssid]; dup {
			continue
		}
		seen[ssid] = struct{}{}
		ssids = append(ssids, ssid)
	}
	return ssids
}

// ParseIwconfigESSID reads the associated ESSID from `iwconfig <iface>`,
// returning "" for `ESSID:off/any` or an unassociated card.
func ParseIwconfigESSID(out string) string {
	idx := strings.Index(out, "ESSID:")
	if idx < 0 {
		return ""
	}
	rest := out[idx+len("ESSID:"):]
	if !strings.HasPrefix(rest, `"`) {
		return ""
	}
	rest = rest[1:]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// ParseIPv4 returns the first IPv4 address from `ip -4 addr show <iface>`.
func ParseIPv4(out string) string {
	fields := strings.Fields(out)
	for i, f := range fields {
		if f != "inet" || i+1 >= len(fields) {
			continue
		}
		addr := fields[i+1]
		if ip, _, err := net.ParseCIDR(addr); err == nil {
			return ip.String()
		}
		if ip := net.ParseIP(addr); ip != nil {
			return ip.String()
		}
	}
	return ""
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
