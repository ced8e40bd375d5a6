package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// relay places src's bytes at dst unchanged. A hard link is tried first;
// across filesystems (or where links are unsupported) the file is copied.
// An existing dst is replaced.
func relay(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("relay %s: %w", dst, err)
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return fmt.Errorf("relay %s: %w", src, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
