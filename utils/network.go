package utils

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// networkFilesystems are mount types reported by /proc/self/mounts for remote storage
var networkFilesystems = map[string]bool{
	"nfs": true, "nfs4": true, "cifs": true, "smb3": true, "smbfs": true,
	"fuse.sshfs": true, "davfs": true, "fuse.rclone": true, "9p": true,
}

// IsNetworkDrive guesses whether a path sits on a network mount, where
// GDAL block writes are slow
func IsNetworkDrive(filePath string) bool {
	// UNC paths, before converting to absolute path
	if strings.HasPrefix(filePath, "//") || strings.HasPrefix(filePath, "\\\\") {
		return true
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return false
	}

	if f, err := os.Open("/proc/self/mounts"); err == nil {
		defer f.Close()
		if fstype := mountType(f, absPath); fstype != "" {
			return networkFilesystems[fstype]
		}
	}

	return looksRemote(absPath)
}

// mountType returns the filesystem type of the longest mount point containing path
func mountType(mounts io.Reader, path string) string {
	var best, fstype string
	scanner := bufio.NewScanner(mounts)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mnt := fields[1]
		if !within(path, mnt) || len(mnt) < len(best) {
			continue
		}
		best, fstype = mnt, fields[2]
	}
	return fstype
}

func within(path, dir string) bool {
	if dir == "/" {
		return true
	}
	return path == dir || strings.HasPrefix(path, dir+"/")
}

// looksRemote falls back to path conventions when mount data is unavailable
func looksRemote(absPath string) bool {
	for _, prefix := range []string{"/mnt/", "/media/", "/Volumes/"} {
		if strings.HasPrefix(absPath, prefix) {
			return true
		}
	}

	lowerPath := strings.ToLower(absPath)
	for _, indicator := range []string{"nfs", "cifs", "smb", "webdav", "sftp"} {
		if strings.Contains(lowerPath, indicator) {
			return true
		}
	}
	return false
}
