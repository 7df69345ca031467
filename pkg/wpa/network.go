// pkg/wpa/network.go

package wpa

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/rescue_err"
	cerr "github.com/cockroachdb/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	MinPassphraseLen = 8
	MaxPassphraseLen = 63
	MaxSSIDLen       = 32
)

// Network is one `network={...}` block.
type Network struct {
	SSID       string
	Passphrase string
}

// Validate rejects credentials wpa_supplicant would refuse to load.
func (n Network) Validate() error {
	if strings.TrimSpace(n.SSID) == "" {
		return rescue_err.NewExpectedError(rescue_err.ErrEmptySSID)
	}
	if len(n.SSID) > MaxSSIDLen {
		return rescue_err.NewExpectedError(cerr.Newf("SSID is %d bytes, the limit is %d", len(n.SSID), MaxSSIDLen))
	}
	if n.Passphrase == "" {
		return rescue_err.NewExpectedError(rescue_err.ErrEmptyPassword)
	}
	if l := len(n.Passphrase); l < MinPassphraseLen || l > MaxPassphraseLen {
		return rescue_err.NewExpectedError(cerr.Newf("password must be %d-%d characters, got %d", MinPassphraseLen, MaxPassphraseLen, l))
	}
	for _, r := range n.Passphrase {
		if r < 0x20 || r > 0x7e {
			return rescue_err.NewExpectedError(cerr.New("password must be printable ASCII"))
		}
	}
	return nil
}

// Block renders the network block. The PSK is stored pre-hashed, the way
// wpa_passphrase does it, so the plaintext never reaches disk.
func (n Network) Block() string {
	var b strings.Builder
	b.WriteString("\nnetwork={\n")
	fmt.Fprintf(&b, "\tssid=%s\n", encodeSSID(n.SSID))
	fmt.Fprintf(&b, "\tpsk=%s\n", DerivePSK(n.Passphrase, n.SSID))
	b.WriteString("\tkey_mgmt=WPA-PSK\n")
	b.WriteString("}\n")
	return b.String()
}

// DerivePSK computes the 256-bit WPA pre-shared key (IEEE 802.11i, PBKDF2-SHA1, 4096 rounds).
func DerivePSK(passphrase, ssid string) string {
	key := pbkdf2.Key([]byte(passphrase), []byte(ssid), 4096, 32, sha1.New)
	return hex.EncodeToString(key)
}

// encodeSSID quotes plain SSIDs and hex-encodes anything that would break
// the quoted form.
func encodeSSID(ssid string) string {
	if !utf8.ValidString(ssid) || strings.ContainsAny(ssid, "\"\\") {
		return hex.EncodeToString([]byte(ssid))
	}
	for _, r := range ssid {
		if r < 0x20 || r == 0x7f {
			return hex.EncodeToString([]byte(ssid))
		}
	}
	return `"` + ssid + `"`
}
