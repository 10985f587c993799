package config

import (
	"errors"
	"net/url"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	DefaultUpdateRepo    = "base10/starbound-modpack-launcher"
	DefaultLogBufferSize = 1000
)

type Options struct {
	BackendURL      string `long:"backend-url" env:"LAUNCHER_BACKEND_URL" description:"Use a launcher backend served over HTTP instead of the built-in one"`
	ServeBackend    string `long:"serve-backend" env:"LAUNCHER_SERVE_BACKEND" description:"Serve the built-in backend on this address (e.g. 127.0.0.1:8765) without a UI"`
	InstallLocation string `long:"install-location" env:"LAUNCHER_INSTALL_LOCATION" description:"Game install directory (overrides the saved location)"`
	ModpackURL      string `long:"modpack-url" env:"LAUNCHER_MODPACK_URL" description:"URL of the published modpack manifest"`
	GameExecutable  string `long:"game-executable" env:"LAUNCHER_GAME_EXECUTABLE" description:"Game executable, absolute or relative to the install location"`
	UpdateRepo      string `long:"update-repo" env:"LAUNCHER_UPDATE_REPO" description:"GitHub owner/name publishing launcher releases"`
	SkipSelfUpdate  bool   `long:"skip-self-update" env:"LAUNCHER_SKIP_SELF_UPDATE" description:"Do not check for launcher updates on startup"`
	LogBufferSize   int    `long:"log-buffer" env:"LAUNCHER_LOG_BUFFER" default:"1000" description:"Number of log lines kept in the window (0 keeps everything)"`
	Headless        bool   `long:"headless" env:"LAUNCHER_HEADLESS" description:"Run the terminal UI (GUI builds only)"`
	Debug           bool   `long:"debug" env:"LAUNCHER_DEBUG" description:"Enable verbose debug output"`
}

func ParseOptions(args []string) (Options, error) {
	_ = godotenv.Load()
	opts := Options{}
	parser := flags.NewParser(&opts, flags.Default)
	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		return Options{}, err
	}
	return normalize(opts), nil
}

func normalize(opts Options) Options {
	opts.BackendURL = strings.TrimSpace(opts.BackendURL)
	opts.ServeBackend = strings.TrimSpace(opts.ServeBackend)
	opts.InstallLocation = strings.TrimSpace(opts.InstallLocation)
	opts.ModpackURL = strings.TrimSpace(opts.ModpackURL)
	opts.GameExecutable = strings.TrimSpace(opts.GameExecutable)
	opts.UpdateRepo = strings.TrimSpace(opts.UpdateRepo)
	if opts.UpdateRepo == "" {
		opts.UpdateRepo = DefaultUpdateRepo
	}
	if opts.LogBufferSize < 0 {
		opts.LogBufferSize = 0
	}
	return opts
}

func Validate(opts Options) error {
	if opts.BackendURL != "" && opts.ServeBackend != "" {
		return errors.New("--backend-url and --serve-backend cannot be combined")
	}
	if opts.BackendURL != "" {
		if _, err := NormalizeBaseURL(opts.BackendURL); err != nil {
			return errors.New("backend URL: " + err.Error())
		}
	}
	if opts.ModpackURL != "" {
		if _, err := NormalizeBaseURL(opts.ModpackURL); err != nil {
			return errors.New("modpack URL: " + err.Error())
		}
	}
	if err := ValidateRepo(opts.UpdateRepo); err != nil {
		return err
	}
	return nil
}

// NormalizeBaseURL checks raw is an absolute http(s) URL and strips the
// query, fragment and trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("expected absolute URL like https://example.com")
	}
	if !strings.EqualFold(parsed.Scheme, "http") && !strings.EqualFold(parsed.Scheme, "https") {
		return "", errors.New("URL scheme must be http or https")
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}

func ValidateRepo(repo string) error {
	owner, name, ok := strings.Cut(strings.TrimSpace(repo), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return errors.New("update repo must look like owner/name")
	}
	return nil
}
