package config

import (
	"fmt"
	"os"
)

// UserHomeDirPath returns "$HOME/tftp", creating it if it does not already
// exist. Used as the server's default base directory when TFTP_BASE_DIR is
// unset.
func UserHomeDirPath() string {
	p, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("error while getting user home dir: %w", err))
	}

	tftpBaseDir := fmt.Sprintf("%s/tftp", p)

	if _, err := os.Stat(tftpBaseDir); err != nil {
		if os.IsNotExist(err) {
			if err := os.Mkdir(tftpBaseDir, 0o750); err != nil {
				panic(fmt.Errorf("error while creating tftp base dir: %w", err))
			}
		} else {
			panic(fmt.Errorf("error checking if tftp base dir exists: %w", err))
		}
	}

	return tftpBaseDir
}
