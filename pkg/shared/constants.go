// pkg/shared/constants.go

package shared

// Version is overridden at build time with -ldflags "-X ...shared.Version=".
var Version = "0.3.1"

const (
	AppName = "pirescue"

	// Environment prefix for viper, e.g. PIRESCUE_INTERFACE=wlan1
	EnvPrefix = "PIRESCUE"

	LogDir  = "/var/log/pirescue/"
	LogFile = LogDir + "pirescue.log"
	// relative fallback when /var/log is not writable
	LogFilePWD = "./pirescue.log"

	ConfigDir       = "/etc/pirescue"
	ConfigFile      = ConfigDir + "/config.yaml"
	EnvDefaultsFile = "/etc/default/pirescue"

	StateDir    = "/var/lib/pirescue"
	HistoryFile = StateDir + "/history.db"
)

const (
	DefaultInterface  = "wlan0"
	DefaultWPAConfig  = "/etc/wpa_supplicant/wpa_supplicant.conf"
	DefaultCountry    = "US"
	BackupSuffix      = ".emergency_backup"
	DefaultSSHService = "ssh"
	DefaultVNCService = "vncserver-x11-serviced"
)

// Network services restarted by the immediate fixes phase.
var DefaultRestartServices = []string{"dhcpcd", "wpa_supplicant", "networking"}

// Network services restarted after a new WiFi network is written.
var DefaultNetworkServices = []string{"dhcpcd", "wpa_supplicant"}

const (
	DirPermStandard        = 0755
	RuntimeDirPerms        = 0750
	FilePermStandard       = 0644
	FilePermOwnerReadWrite = 0600
)
