package selfupdate

import (
	"strconv"
	"strings"
)

type semver struct {
	major int
	minor int
	patch int
}

type versionInfo struct {
	semver semver
	hash   string
}

// parseVersionInfo accepts tags like v1.2, 1.2.3 and v1.2.3-4-gdeadbeef.
func parseVersionInfo(raw string) (versionInfo, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return versionInfo{}, false
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	hash := ""
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		hash = parseCommitHash(s[i+1:])
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return versionInfo{}, false
	}
	ints := make([]int, 3)
	for i := range parts {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return versionInfo{}, false
		}
		ints[i] = n
	}
	return versionInfo{
		semver: semver{major: ints[0], minor: ints[1], patch: ints[2]},
		hash:   hash,
	}, true
}

// isNewer reports whether latest should replace current. Equal versions
// count as newer only when both carry a commit hash and the hashes differ.
func isNewer(current versionInfo, latest versionInfo) bool {
	if latest.semver.greaterThan(current.semver) {
		return true
	}
	return latest.semver == current.semver && latest.hash != "" && current.hash != "" && latest.hash != current.hash
}

func (v semver) greaterThan(other semver) bool {
	if v.major != other.major {
		return v.major > other.major
	}
	if v.minor != other.minor {
		return v.minor > other.minor
	}
	return v.patch > other.patch
}

func parseCommitHash(s string) string {
	meta := strings.TrimSpace(strings.ToLower(s))
	if meta == "" {
		return ""
	}
	parts := strings.FieldsFunc(meta, func(r rune) bool {
		return (r < '0' || r > '9') && (r < 'a' || r > 'z')
	})
	for _, part := range parts {
		candidate := strings.TrimPrefix(part, "g")
		if len(candidate) < 7 || len(candidate) > 40 {
			continue
		}
		if strings.Trim(candidate, "0123456789abcdef") == "" {
			return candidate
		}
	}
	return ""
}
