// Package perms provides the file and directory permission modes used when
// portal writes its registry, settings and log files.
package perms

import "os"

const (
	// RegularFile is used for the server registry and log files.
	// Mode 0644: owner read/write, group read, others read.
	RegularFile os.FileMode = 0o644

	// SecureFile is used for the default-server settings document.
	// Mode 0600: owner read/write only.
	SecureFile os.FileMode = 0o600
)

const (
	// RegularDir is used for the per-user config directory.
	// Mode 0755: owner read/write/execute, group and others read/execute.
	RegularDir os.FileMode = 0o755

	// SecureDir is used when portal creates the directory holding the settings document.
	// Mode 0700: owner read/write/execute only.
	SecureDir os.FileMode = 0o700
)
