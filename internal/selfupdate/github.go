package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"time"

	"modpack-launcher/internal/logging"
	"modpack-launcher/internal/proc"
)

const (
	defaultAPIBase  = "https://api.github.com"
	checkTimeout    = 10 * time.Second
	downloadChunk   = 32 * 1024
	assetNamePrefix = "modpack-launcher"
	replacedSuffix  = ".old"
)

var ErrNoAsset = errors.New("release has no build for this platform")

type releaseAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
}

type latestRelease struct {
	TagName     string         `json:"tag_name"`
	HTMLURL     string         `json:"html_url"`
	Draft       bool           `json:"draft"`
	PublishedAt string         `json:"published_at"`
	Body        string         `json:"body"`
	Assets      []releaseAsset `json:"assets"`
}

type GitHubOptions struct {
	// Repo is owner/name.
	Repo           string
	CurrentVersion string
	HTTP           *http.Client
	APIBase        string
	// Executable returns the path of the running binary. Defaults to
	// os.Executable.
	Executable func() (string, error)
	Exit       func(code int)
	// BeforeRelaunch runs right before the new build is started. The
	// launcher uses it to give up the single-instance lock so the new
	// build can take it.
	BeforeRelaunch func() error
	// Start spawns the new build. Defaults to proc.StartDetached.
	Start  func(path string, args []string, dir string) (int, error)
	Args   []string
	GOOS   string
	GOARCH string
}

// GitHubUpdater updates the launcher from the latest release of a GitHub
// repository.
type GitHubUpdater struct {
	opts   GitHubOptions
	logger *logging.Logger

	asset     releaseAsset
	installed string
}

func NewGitHubUpdater(opts GitHubOptions, logger *logging.Logger) *GitHubUpdater {
	if logger == nil {
		panic("selfupdate.NewGitHubUpdater: logger must not be nil")
	}
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	if strings.TrimSpace(opts.APIBase) == "" {
		opts.APIBase = defaultAPIBase
	}
	opts.APIBase = strings.TrimRight(opts.APIBase, "/")
	if opts.Executable == nil {
		opts.Executable = os.Executable
	}
	if opts.Exit == nil {
		opts.Exit = os.Exit
	}
	if opts.Start == nil {
		opts.Start = proc.StartDetached
	}
	if opts.Args == nil && len(os.Args) > 1 {
		opts.Args = os.Args[1:]
	}
	if opts.GOOS == "" {
		opts.GOOS = goruntime.GOOS
	}
	if opts.GOARCH == "" {
		opts.GOARCH = goruntime.GOARCH
	}
	return &GitHubUpdater{opts: opts, logger: logger.Named("github")}
}

func (u *GitHubUpdater) Check(ctx context.Context) (*UpdateDescriptor, error) {
	current, ok := parseVersionInfo(u.opts.CurrentVersion)
	if !ok {
		u.logger.Debug("skipping update check: build version is not semver", logging.Field("version", u.opts.CurrentVersion))
		return nil, nil
	}

	latest, err := u.fetchLatestRelease(ctx)
	if err != nil {
		return nil, err
	}
	u.logger.Debug("fetched latest release", logging.Field("tag", latest.TagName), logging.Field("url", latest.HTMLURL))
	if latest.Draft {
		return nil, nil
	}
	latestVersion, ok := parseVersionInfo(latest.TagName)
	if !ok {
		u.logger.Debug("skipping update: latest tag is not semver", logging.Field("tag", latest.TagName))
		return nil, nil
	}
	if !isNewer(current, latestVersion) {
		return nil, nil
	}

	asset, ok := u.pickAsset(latest.Assets)
	if !ok {
		return nil, fmt.Errorf("%w (%s/%s in %s)", ErrNoAsset, u.opts.GOOS, u.opts.GOARCH, latest.TagName)
	}
	u.asset = asset
	return &UpdateDescriptor{
		Version: strings.TrimSpace(latest.TagName),
		Date:    latest.PublishedAt,
		Body:    strings.TrimSpace(latest.Body),
	}, nil
}

func (u *GitHubUpdater) fetchLatestRelease(parent context.Context) (latestRelease, error) {
	ctx, cancel := context.WithTimeout(parent, checkTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", u.opts.APIBase, u.opts.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return latestRelease{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", assetNamePrefix)

	resp, err := u.opts.HTTP.Do(req)
	if err != nil {
		return latestRelease{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return latestRelease{}, fmt.Errorf("github api status %d", resp.StatusCode)
	}

	var latest latestRelease
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		return latestRelease{}, err
	}
	return latest, nil
}

// pickAsset finds modpack-launcher_<os>_<arch>, with .exe on Windows.
func (u *GitHubUpdater) pickAsset(assets []releaseAsset) (releaseAsset, bool) {
	want := fmt.Sprintf("%s_%s_%s", assetNamePrefix, u.opts.GOOS, u.opts.GOARCH)
	if u.opts.GOOS == "windows" {
		want += ".exe"
	}
	for _, asset := range assets {
		if strings.EqualFold(asset.Name, want) && asset.DownloadURL != "" {
			return asset, true
		}
	}
	return releaseAsset{}, false
}

func (u *GitHubUpdater) DownloadAndInstall(ctx context.Context, update *UpdateDescriptor, progress func(ProgressEvent)) error {
	if u.asset.DownloadURL == "" {
		return errors.New("no update has been checked")
	}
	exe, err := u.opts.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.asset.DownloadURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/octet-stream")
	req.Header.Set("User-Agent", assetNamePrefix)
	resp, err := u.opts.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: status %d", u.asset.Name, resp.StatusCode)
	}

	var contentLength *int64
	if resp.ContentLength >= 0 {
		n := resp.ContentLength
		contentLength = &n
	}
	progress(Started(contentLength))

	tmp, err := os.CreateTemp(filepath.Dir(exe), filepath.Base(exe)+".*.new")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	buf := make([]byte, downloadChunk)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := tmp.Write(buf[:n]); err != nil {
				_ = tmp.Close()
				return err
			}
			progress(Chunk(int64(n)))
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = tmp.Close()
			return readErr
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return err
	}

	// Windows refuses to overwrite a running binary but allows renaming it.
	old := exe + replacedSuffix
	_ = os.Remove(old)
	if err := os.Rename(exe, old); err != nil {
		return fmt.Errorf("move current executable aside: %w", err)
	}
	if err := os.Rename(tmpPath, exe); err != nil {
		_ = os.Rename(old, exe)
		return fmt.Errorf("install new executable: %w", err)
	}
	u.installed = exe
	u.logger.Info("installed launcher update", logging.Field("version", update.Version), logging.Field("path", exe))
	progress(Finished())
	return nil
}

func (u *GitHubUpdater) Relaunch() error {
	if u.installed == "" {
		return errors.New("nothing installed to relaunch")
	}
	if u.opts.BeforeRelaunch != nil {
		if err := u.opts.BeforeRelaunch(); err != nil {
			return fmt.Errorf("prepare relaunch: %w", err)
		}
	}
	pid, err := u.opts.Start(u.installed, u.opts.Args, "")
	if err != nil {
		return err
	}
	u.logger.Info("relaunching", logging.Field("pid", pid))
	_ = u.logger.Close()
	u.opts.Exit(0)
	return nil
}
