package wrapper

import (
	"crypto"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Ensure SHA384 available for checksum calculation.
	_ "crypto/sha512"
)

// ChecksumFunction is used to hash the downloaded installer.
const ChecksumFunction crypto.Hash = crypto.SHA384

// FileChecksum returns the lowercase hex ChecksumFunction digest of the file at path.
func FileChecksum(path string) (string, error) {
	if !ChecksumFunction.Available() {
		return "", fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := ChecksumFunction.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
