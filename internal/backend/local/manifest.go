package local

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	ManifestFileName = "modpack.json"
	modsDirName      = "mods"

	// Highest manifest format this launcher understands.
	supportedManifestFormat = 3
)

var (
	ErrUnsupportedManifest = errors.New("Unsupported modpack metadata version!  Please upgrade the launcher")
	ErrManifestNoVersion   = errors.New("modpack manifest has no version")
)

type Manifest struct {
	Format   *int              `json:"format,omitempty"`
	Metadata *ManifestMetadata `json:"metadata,omitempty"`
	Mods     []Mod             `json:"mods"`
}

type ManifestMetadata struct {
	Version string `json:"version,omitempty"`
}

type Mod struct {
	Name              string   `json:"name"`
	Value             string   `json:"value"`
	ExtraDependencies []string `json:"extra_dependencies,omitempty"`
	Patches           []string `json:"patches,omitempty"`
	Rimraf            []string `json:"rimraf,omitempty"`
	LastChange        string   `json:"last_change,omitempty"`
	Version           string   `json:"version,omitempty"`
	LastVersion       string   `json:"last_version,omitempty"`
	URL               string   `json:"url,omitempty"`
	CustomPakName     string   `json:"custom_pak_name,omitempty"`
	SteamID           *int64   `json:"steam_id,omitempty"`
	Checksum          string   `json:"checksum,omitempty"`
}

func (m Manifest) Version() string {
	if m.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(m.Metadata.Version)
}

// FileName is the pak file the mod occupies inside the mods directory. It is
// always a plain name so joining it to the mods directory stays inside it.
func (m Mod) FileName() string {
	if name, ok := pakName(m.CustomPakName); ok {
		return name
	}
	if m.URL != "" {
		if parsed, err := url.Parse(m.URL); err == nil {
			if name, ok := pakName(path.Base(parsed.Path)); ok {
				return name
			}
		}
	}
	if name, ok := pakName(m.Name); ok {
		return name
	}
	return "mod.pak"
}

func pakName(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "/" || raw == "." {
		return "", false
	}
	name := ensurePak(sanitizeFileName(raw))
	if !filepath.IsLocal(name) {
		return "", false
	}
	return name, true
}

// WantChecksum is the expected lowercase hex sha256, or "" when unpinned.
func (m Mod) WantChecksum() string {
	sum := strings.ToLower(strings.TrimSpace(m.Checksum))
	return strings.TrimPrefix(sum, "sha256:")
}

func ensurePak(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".pak") {
		return name
	}
	return name + ".pak"
}

func sanitizeFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "mod"
	}
	return b.String()
}

func ParseManifest(data []byte) (Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse modpack manifest: %w", err)
	}
	if manifest.Format != nil && *manifest.Format > supportedManifestFormat {
		return Manifest{}, ErrUnsupportedManifest
	}
	return manifest, nil
}

func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(data)
}

func modsDir(installLocation string) string {
	return filepath.Join(installLocation, modsDirName)
}

func manifestPath(installLocation string) string {
	return filepath.Join(modsDir(installLocation), ManifestFileName)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
