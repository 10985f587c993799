package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const newBuild = "#!/bin/sh\necho new build\n"

func releaseServer(t *testing.T, tag string, draft bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/repos/base10/starbound-modpack-launcher/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"tag_name": %q,
			"draft": %t,
			"published_at": "2026-10-01T12:00:00Z",
			"body": "Bug fixes",
			"assets": [
				{"name": "modpack-launcher_linux_amd64", "browser_download_url": "%s/download/linux"},
				{"name": "modpack-launcher_windows_amd64.exe", "browser_download_url": "%s/download/windows"}
			]
		}`, tag, draft, srv.URL, srv.URL)
	})
	mux.HandleFunc("/download/linux", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(newBuild)))
		_, _ = w.Write([]byte(newBuild))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestUpdater(srv *httptest.Server, current string, goos string, exe string) *GitHubUpdater {
	return NewGitHubUpdater(GitHubOptions{
		Repo:           "base10/starbound-modpack-launcher",
		CurrentVersion: current,
		HTTP:           srv.Client(),
		APIBase:        srv.URL,
		Executable:     func() (string, error) { return exe, nil },
		Exit:           func(int) {},
		Args:           []string{},
		GOOS:           goos,
		GOARCH:         "amd64",
	}, quietLogger())
}

func TestCheckFindsNewerRelease(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	update, err := newTestUpdater(srv, "v1.3.2", "linux", "").Check(context.Background())
	require.NoError(t, err)
	require.NotNil(t, update)
	require.Equal(t, UpdateDescriptor{Version: "v1.4.0", Date: "2026-10-01T12:00:00Z", Body: "Bug fixes"}, *update)
}

func TestCheckIgnoresOlderDraftAndDevBuilds(t *testing.T) {
	ctx := context.Background()

	update, err := newTestUpdater(releaseServer(t, "v1.4.0", false), "v1.4.0", "linux", "").Check(ctx)
	require.NoError(t, err)
	require.Nil(t, update)

	update, err = newTestUpdater(releaseServer(t, "v2.0.0", true), "v1.4.0", "linux", "").Check(ctx)
	require.NoError(t, err)
	require.Nil(t, update)

	update, err = newTestUpdater(releaseServer(t, "v2.0.0", false), "dev", "linux", "").Check(ctx)
	require.NoError(t, err)
	require.Nil(t, update)
}

func TestCheckWithoutPlatformAsset(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	_, err := newTestUpdater(srv, "v1.3.0", "darwin", "").Check(context.Background())
	require.ErrorIs(t, err, ErrNoAsset)
}

func TestCheckAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := newTestUpdater(srv, "v1.3.0", "linux", "").Check(context.Background())
	require.ErrorContains(t, err, "github api status 404")
}

func TestDownloadAndInstallReplacesExecutable(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	exe := filepath.Join(t.TempDir(), "modpack-launcher")
	require.NoError(t, os.WriteFile(exe, []byte("old build"), 0o755))

	u := newTestUpdater(srv, "v1.3.0", "linux", exe)
	update, err := u.Check(context.Background())
	require.NoError(t, err)

	var events []ProgressEvent
	err = u.DownloadAndInstall(context.Background(), update, func(e ProgressEvent) { events = append(events, e) })
	require.NoError(t, err)

	data, err := os.ReadFile(exe)
	require.NoError(t, err)
	require.Equal(t, newBuild, string(data))
	old, err := os.ReadFile(exe + ".old")
	require.NoError(t, err)
	require.Equal(t, "old build", string(old))

	require.Equal(t, ProgressStarted, events[0].Kind)
	require.NotNil(t, events[0].ContentLength)
	require.EqualValues(t, len(newBuild), *events[0].ContentLength)
	require.Equal(t, ProgressFinished, events[len(events)-1].Kind)
	var total int64
	for _, e := range events {
		if e.Kind == ProgressChunk {
			total += e.ChunkLength
		}
	}
	require.EqualValues(t, len(newBuild), total)
}

func TestDownloadBeforeCheckFails(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	err := newTestUpdater(srv, "v1.3.0", "linux", "").DownloadAndInstall(context.Background(), &UpdateDescriptor{}, func(ProgressEvent) {})
	require.Error(t, err)
}

func TestRelaunchRequiresInstall(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	err := newTestUpdater(srv, "v1.3.0", "linux", "").Relaunch()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNoAsset))
}

func TestRelaunchHandsOffBeforeStarting(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	var calls []string
	exitCode := -1
	u := newTestUpdater(srv, "v1.3.0", "linux", "")
	u.installed = "/opt/launcher/modpack-launcher"
	u.opts.Args = []string{"--headless"}
	u.opts.BeforeRelaunch = func() error {
		calls = append(calls, "release lock")
		return nil
	}
	u.opts.Start = func(path string, args []string, _ string) (int, error) {
		calls = append(calls, "start "+path)
		require.Equal(t, []string{"--headless"}, args)
		return 4242, nil
	}
	u.opts.Exit = func(code int) { exitCode = code }

	require.NoError(t, u.Relaunch())
	require.Equal(t, []string{"release lock", "start /opt/launcher/modpack-launcher"}, calls)
	require.Equal(t, 0, exitCode)
}

func TestRelaunchStopsWhenHandOffFails(t *testing.T) {
	srv := releaseServer(t, "v1.4.0", false)
	u := newTestUpdater(srv, "v1.3.0", "linux", "")
	u.installed = "/opt/launcher/modpack-launcher"
	u.opts.BeforeRelaunch = func() error { return errors.New("unlock failed") }
	u.opts.Start = func(string, []string, string) (int, error) {
		t.Fatal("new build started while the lock was still held")
		return 0, nil
	}
	u.opts.Exit = func(int) { t.Fatal("exited after a failed hand-off") }

	err := u.Relaunch()
	require.ErrorContains(t, err, "unlock failed")
}

func TestParseVersionInfo(t *testing.T) {
	tests := []struct {
		raw  string
		ok   bool
		want versionInfo
	}{
		{raw: "v1.2.3", ok: true, want: versionInfo{semver: semver{1, 2, 3}}},
		{raw: "1.2", ok: true, want: versionInfo{semver: semver{1, 2, 0}}},
		{raw: "v1.2.3-4-gdeadbeef", ok: true, want: versionInfo{semver: semver{1, 2, 3}, hash: "deadbeef"}},
		{raw: "dev", ok: false},
		{raw: "1.x.3", ok: false},
		{raw: "", ok: false},
	}
	for _, tc := range tests {
		got, ok := parseVersionInfo(tc.raw)
		if ok != tc.ok {
			t.Fatalf("parseVersionInfo(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Fatalf("parseVersionInfo(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	v := func(raw string) versionInfo {
		info, ok := parseVersionInfo(raw)
		if !ok {
			t.Fatalf("bad version %q", raw)
		}
		return info
	}
	if !isNewer(v("1.2.3"), v("1.3.0")) {
		t.Fatalf("1.3.0 should be newer than 1.2.3")
	}
	if isNewer(v("1.3.0"), v("1.2.9")) {
		t.Fatalf("1.2.9 should not be newer than 1.3.0")
	}
	if !isNewer(v("1.3.0+abcdef1"), v("1.3.0+1234567")) {
		t.Fatalf("different hashes on the same version should count as newer")
	}
	if isNewer(v("1.3.0"), v("1.3.0+1234567")) {
		t.Fatalf("hash alone should not count as newer")
	}
}
