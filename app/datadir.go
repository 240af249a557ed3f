// SPDX-License-Identifier: Unlicense OR MIT

package app

import "os"

func dataDir() (string, error) {
	return os.UserConfigDir()
}
