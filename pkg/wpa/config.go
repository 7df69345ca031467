// pkg/wpa/config.go

// Package wpa reads and edits the wpa_supplicant configuration file.
package wpa

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/CodeMonkeyCybersecurity/pirescue/pkg/shared"
	cerr "github.com/cockroachdb/errors"
)

// DefaultContent is the minimal configuration: country, control socket, update flag.
func DefaultContent(country string) string {
	return fmt.Sprintf("country=%s\nctrl_interface=DIR=/var/run/wpa_supplicant GROUP=netdev\nupdate_config=1\n", country)
}

// File is a wpa_supplicant.conf on disk.
type File struct {
	Path    string
	Country string
}

func NewFile(path, country string) *File {
	return &File{Path: path, Country: country}
}

// BackupPath is the sibling file holding the pre-edit copy.
func (f *File) BackupPath() string {
	return f.Path + shared.BackupSuffix
}

// Exists reports whether the configuration file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.Path)
	return err == nil
}

// CountNetworks returns how many network blocks the file holds.
func (f *File) CountNetworks() (int, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return 0, cerr.Wrapf(err, "open %s", f.Path)
	}
	defer fh.Close()
	return CountNetworks(fh)
}

// CountNetworks counts `network={` openings, ignoring comments and spacing.
func CountNetworks(r io.Reader) (int, error) {
	n := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		compact := strings.Join(strings.Fields(line), "")
		if strings.HasPrefix(compact, "network={") {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return n, cerr.Wrap(err, "read wpa_supplicant config")
	}
	return n, nil
}

// WriteDefault replaces the file with DefaultContent.
func (f *File) WriteDefault() error {
	if err := os.WriteFile(f.Path, []byte(DefaultContent(f.Country)), shared.FilePermOwnerReadWrite); err != nil {
		return cerr.Wrapf(err, "write default config %s", f.Path)
	}
	return nil
}

// Backup copies the file over BackupPath, replacing any earlier backup.
func (f *File) Backup() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", cerr.WithHint(cerr.Wrapf(err, "nothing to back up"), "run diagnose first to create a default configuration")
		}
		return "", cerr.Wrapf(err, "read %s", f.Path)
	}
	dst := f.BackupPath()
	if err := os.WriteFile(dst, data, shared.FilePermOwnerReadWrite); err != nil {
		return "", cerr.Wrapf(err, "write backup %s", dst)
	}
	return dst, nil
}

// AppendNetwork validates n and appends its block.
func (f *File) AppendNetwork(n Network) error {
	if err := n.Validate(); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.Path, os.O_APPEND|os.O_WRONLY, shared.FilePermOwnerReadWrite)
	if err != nil {
		return cerr.Wrapf(err, "open %s for append", f.Path)
	}
	if _, err := fh.WriteString(n.Block()); err != nil {
		_ = fh.Close()
		return cerr.Wrapf(err, "append network to %s", f.Path)
	}
	return cerr.Wrapf(fh.Close(), "close %s", f.Path)
}
