package network

import (
	"context"
	"os/exec"
	"testing"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iwlistSample = `wlan0     Scan completed :
          Cell 01 - Address: AA:BB:CC:DD:EE:01
                    Channel:6
                    Quality=70/70  Signal level=-32 dBm
                    Encryption key:on
                    ESSID:"HomeNet"
          Cell 02 - Address: AA:BB:CC:DD:EE:02
                    ESSID:""
          Cell 03 - Address: AA:BB:CC:DD:EE:03
                    ESSID:"Cafe Guest"
          Cell 04 - Address: AA:BB:CC:DD:EE:04
                    ESSID:"HomeNet"
          Cell 05 - Address: AA:BB:CC:DD:EE:05
                    ESSID:"\x00\x00\x00\x00"
`

func TestParseScan(t *testing.T) {
	assert.Equal(t, []string{"HomeNet", "Cafe Guest"}, ParseScan(iwlistSample))
	assert.Empty(t, ParseScan("wlan0     No scan results\n"))
}

func TestParseLinkShow(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want LinkState
	}{
		{
			name: "up and associated",
			out:  "3: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc pfifo_fast state UP mode DORMANT group default qlen 1000\n    link/ether b8:27:eb:00:00:01 brd ff:ff:ff:ff:ff:ff\n",
			want: LinkState{Present: true, Up: true, OperState: "UP"},
		},
		{
			name: "up but not associated",
			out:  "3: wlan0: <NO-CARRIER,BROADCAST,MULTICAST,UP> mtu 1500 qdisc pfifo_fast state DOWN mode DORMANT\n",
			want: LinkState{Present: true, Up: true, OperState: "DOWN"},
		},
		{
			name: "administratively down",
			out:  "3: wlan0: <BROADCAST,MULTICAST> mtu 1500 qdisc noop state DOWN mode DEFAULT\n",
			want: LinkState{Present: true, Up: false, OperState: "DOWN"},
		},
		{
			name: "missing",
			out:  `Device "wlan0" does not exist.`,
			want: LinkState{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLinkShow(tt.out))
		})
	}
}

func TestParseIwconfigESSID(t *testing.T) {
	assert.Equal(t, "HomeNet", ParseIwconfigESSID(`wlan0     IEEE 802.11  ESSID:"HomeNet"
          Mode:Managed  Frequency:2.437 GHz  Access Point: AA:BB:CC:DD:EE:01`))
	assert.Empty(t, ParseIwconfigESSID(`wlan0     IEEE 802.11  ESSID:off/any
          Mode:Managed  Access Point: Not-Associated`))
	assert.Empty(t, ParseIwconfigESSID("wlan0     no wireless extensions."))
}

func TestParseIPv4(t *testing.T) {
	out := `3: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc pfifo_fast state UP group default qlen 1000
    inet 192.168.1.42/24 brd 192.168.1.255 scope global dynamic noprefixroute wlan0
       valid_lft 86000sec preferred_lft 75200sec
`
	assert.Equal(t, "192.168.1.42", ParseIPv4(out))
	assert.Empty(t, ParseIPv4(""))
	assert.Empty(t, ParseIPv4("3: wlan0: <NO-CARRIER,BROADCAST,MULTICAST,UP> mtu 1500 state DOWN\n"))
}

func TestWireless(t *testing.T) {
	ctx := context.Background()
	runner := testutil.NewFakeRunner().
		OnOutput("ip link show wlan0", "3: wlan0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 state UP\n").
		OnOutput("iwlist wlan0 scan", iwlistSample).
		OnOutput("iwgetid wlan0 -r", "HomeNet\n").
		OnOutput("ip -4 addr show wlan0", "    inet 10.0.0.7/24 brd 10.0.0.255 scope global wlan0\n")

	w := NewWireless(runner, "wlan0")
	assert.Equal(t, "wlan0", w.Interface())
	assert.Equal(t, LinkState{Present: true, Up: true, OperState: "UP"}, w.Link(ctx))

	require.NoError(t, w.Up(ctx))
	assert.True(t, runner.Sudoed("ip link set wlan0 up"))

	ssids, err := w.Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"HomeNet", "Cafe Guest"}, ssids)
	assert.True(t, runner.Sudoed("iwlist wlan0 scan"))

	assert.Equal(t, "HomeNet", w.CurrentSSID(ctx))
	assert.Equal(t, "10.0.0.7", w.IPv4(ctx))

	for _, query := range []string{"ip link show wlan0", "iwlist wlan0 scan", "iwgetid wlan0 -r", "ip -4 addr show wlan0"} {
		assert.True(t, runner.ReadOnly(query), query)
	}
	assert.False(t, runner.ReadOnly("ip link set wlan0 up"))
}

func TestWireless_Failures(t *testing.T) {
	ctx := context.Background()
	runner := testutil.NewFakeRunner().
		OnFail("ip link show wlan1", `Device "wlan1" does not exist.`).
		OnFail("iwlist wlan1 scan", "wlan1     Interface doesn't support scanning.").
		OnFail("iwgetid wlan1 -r", "").
		OnFail("ip -4 addr show wlan1", "")

	w := NewWireless(runner, "wlan1")
	assert.False(t, w.Link(ctx).Present)

	_, err := w.Scan(ctx)
	require.Error(t, err)

	assert.Empty(t, w.CurrentSSID(ctx))
	assert.Zero(t, runner.Count("iwconfig wlan1"), "iwconfig only used when iwgetid is missing")
	assert.Empty(t, w.IPv4(ctx))
}

func TestWireless_IwconfigFallback(t *testing.T) {
	runner := testutil.NewFakeRunner().
		On("iwgetid wlan0 -r", testutil.Response{Err: &exec.Error{Name: "iwgetid", Err: exec.ErrNotFound}}).
		OnOutput("iwconfig wlan0", `wlan0     IEEE 802.11  ESSID:"Cafe Guest"`)

	w := NewWireless(runner, "wlan0")
	assert.Equal(t, "Cafe Guest", w.CurrentSSID(context.Background()))
}
