package openai

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

func (c *Client) readAsDataURL(path string) (string, error) {
	if st, err := os.Stat(path); err != nil {
		return "", err
	} else if st.Size() > int64(c.cfg.MaxImageMB)*1024*1024 {
		return "", fmt.Errorf("page image %s exceeds %dMB", filepath.Base(path), c.cfg.MaxImageMB)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	mt := mime.TypeByExtension("." + ext)
	if mt == "" {
		switch ext {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		default:
			mt = "application/octet-stream"
		}
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
