package config

import (
	"io/fs"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/gchanuoft/DSI-BuildSoftSummative/internal/errors"
)

const systemYAML = `
api_key: system-key
ntfy_topic: system-topic
verbose_log: false
output_paths:
  - /srv/system
plot_config:
  title: System Title
  xlabel: System X
  ylabel: System Y
  color: green
  sizeW: 10
  sizeH: 5
`

// newFs returns an in-memory filesystem holding the given files.
func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	memFs := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(memFs, path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return memFs
}

// load runs Load without environment overrides.
func load(t *testing.T, memFs afero.Fs, paths ...string) (*Config, error) {
	t.Helper()
	return Load(paths, WithFs(memFs), WithEnvPrefix(""))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.NtfyURL != "https://ntfy.sh/" {
		t.Errorf("NtfyURL = %q, want %q", cfg.NtfyURL, "https://ntfy.sh/")
	}
	if cfg.StudyID != 201 {
		t.Errorf("StudyID = %d, want 201", cfg.StudyID)
	}
	if cfg.OutputFile != "SubCat.png" {
		t.Errorf("OutputFile = %q, want %q", cfg.OutputFile, "SubCat.png")
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.Plot.Kind != PlotKindBar {
		t.Errorf("Plot.Kind = %q, want %q", cfg.Plot.Kind, PlotKindBar)
	}
	if !cfg.DropFirstCategory {
		t.Error("DropFirstCategory should be true by default")
	}
	if cfg.APIKey != "" {
		t.Error("required keys should have no default")
	}
}

func TestDefaultSources(t *testing.T) {
	got := DefaultSources("configs/job.yml")
	want := []string{SystemConfigPath, UserConfigPath, "configs/job.yml"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DefaultSources() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_SingleSource(t *testing.T) {
	memFs := newFs(t, map[string]string{"system.yml": systemYAML})

	cfg, err := load(t, memFs, "system.yml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.APIKey = "system-key"
	want.NtfyTopic = "system-topic"
	want.OutputPaths = []string{"/srv/system"}
	want.Plot = PlotConfig{
		Title:  "System Title",
		XLabel: "System X",
		YLabel: "System Y",
		Color:  "green",
		SizeW:  10,
		SizeH:  5,
		Kind:   PlotKindBar,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_LaterSourceOverridesTopLevelKey(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"user.yml":   "api_key: user-key\nverbose_log: true\n",
		"job.yml":    "api_key: job-key\n",
	})

	cfg, err := load(t, memFs, "system.yml", "user.yml", "job.yml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIKey != "job-key" {
		t.Errorf("APIKey = %q, want %q (last source wins)", cfg.APIKey, "job-key")
	}
	if !cfg.VerboseLog {
		t.Error("VerboseLog should come from user.yml")
	}
	if cfg.NtfyTopic != "system-topic" {
		t.Errorf("NtfyTopic = %q, want %q (untouched keys survive)", cfg.NtfyTopic, "system-topic")
	}
}

func TestLoad_NestedSectionReplacedWholesale(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"job.yml": `
plot_config:
  title: Job Title
  xlabel: Job X
  ylabel: Job Y
`,
	})

	cfg, err := load(t, memFs, "system.yml", "job.yml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Plot.Title != "Job Title" {
		t.Errorf("Plot.Title = %q, want %q", cfg.Plot.Title, "Job Title")
	}
	// color and sizes from system.yml must not leak through the override
	if cfg.Plot.Color != Default().Plot.Color {
		t.Errorf("Plot.Color = %q, want default %q", cfg.Plot.Color, Default().Plot.Color)
	}
	if cfg.Plot.SizeW != Default().Plot.SizeW {
		t.Errorf("Plot.SizeW = %v, want default %v", cfg.Plot.SizeW, Default().Plot.SizeW)
	}
}

func TestLoad_NestedOverrideDropsRequiredKey(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"job.yml":    "plot_config:\n  title: Only Title\n",
	})

	_, err := load(t, memFs, "system.yml", "job.yml")

	var missing *errors.ConfigMissingKeyError
	if !errors.As(err, &missing) {
		t.Fatalf("Load() error = %v, want ConfigMissingKeyError", err)
	}
	if missing.Key != "plot_config.xlabel" {
		t.Errorf("Key = %q, want %q", missing.Key, "plot_config.xlabel")
	}
}

func TestLoad_MissingSource(t *testing.T) {
	memFs := newFs(t, map[string]string{"system.yml": systemYAML})

	cfg, err := load(t, memFs, "system.yml", "doesNotExist.yml")

	if cfg != nil {
		t.Errorf("Load() returned config %+v on error", cfg)
	}
	var notFound *errors.ConfigNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Load() error = %v, want ConfigNotFoundError", err)
	}
	if notFound.Path != "doesNotExist.yml" {
		t.Errorf("Path = %q, want %q", notFound.Path, "doesNotExist.yml")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("error should wrap fs.ErrNotExist")
	}
}

func TestLoad_MissingSourceStopsBeforeLaterSources(t *testing.T) {
	// The broken third source would fail with a parse error if it were read.
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"broken.yml": "api_key: [unclosed",
	})

	_, err := load(t, memFs, "system.yml", "missing.yml", "broken.yml")

	var notFound *errors.ConfigNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Load() error = %v, want ConfigNotFoundError", err)
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
	}{
		{"malformed yaml", "bad.yml", "api_key: [unclosed"},
		{"yaml list document", "list.yml", "- a\n- b\n"},
		{"malformed json", "bad.json", `{"api_key": `},
		{"unsupported extension", "job.txt", "api_key=k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memFs := newFs(t, map[string]string{tt.path: tt.content})

			_, err := load(t, memFs, tt.path)

			var parseErr *errors.ConfigParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Load() error = %v, want ConfigParseError", err)
			}
			if parseErr.Path != tt.path {
				t.Errorf("Path = %q, want %q", parseErr.Path, tt.path)
			}
		})
	}
}

func TestLoad_JSONSource(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"job.json":   `{"api_key": "json-key", "output_paths": ["/a", "/b"]}`,
	})

	cfg, err := load(t, memFs, "system.yml", "job.json")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "json-key" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "json-key")
	}
	if diff := cmp.Diff([]string{"/a", "/b"}, cfg.OutputPaths); diff != "" {
		t.Errorf("OutputPaths mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingRequiredKeys(t *testing.T) {
	full := map[string]string{
		"api_key":      "api_key: k\n",
		"ntfy_topic":   "ntfy_topic: t\n",
		"plot_config":  "plot_config:\n  title: T\n  xlabel: X\n  ylabel: Y\n",
		"output_paths": "output_paths: [/tmp/out]\n",
		"verbose_log":  "verbose_log: false\n",
	}

	tests := []struct {
		omit    string
		wantKey string
	}{
		{"api_key", "api_key"},
		{"ntfy_topic", "ntfy_topic"},
		{"plot_config", "plot_config.title"},
		{"output_paths", "output_paths"},
		{"verbose_log", "verbose_log"},
	}

	for _, tt := range tests {
		t.Run(tt.omit, func(t *testing.T) {
			var content string
			for key, line := range full {
				if key != tt.omit {
					content += line
				}
			}
			memFs := newFs(t, map[string]string{"job.yml": content})

			_, err := load(t, memFs, "job.yml")

			var missing *errors.ConfigMissingKeyError
			if !errors.As(err, &missing) {
				t.Fatalf("Load() error = %v, want ConfigMissingKeyError", err)
			}
			if missing.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", missing.Key, tt.wantKey)
			}
		})
	}
}

func TestLoad_EmptyRequiredValueIsMissing(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"job.yml":    "api_key: \"\"\noutput_paths: []\n",
	})

	_, err := load(t, memFs, "system.yml", "job.yml")

	var missing *errors.ConfigMissingKeyError
	if !errors.As(err, &missing) || missing.Key != "api_key" {
		t.Fatalf("Load() error = %v, want missing api_key", err)
	}
}

func TestLoad_LegacyTopicKey(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"job.yml":    "ntfyTopic: legacy-topic\n",
	})

	cfg, err := load(t, memFs, "system.yml", "job.yml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NtfyTopic != "legacy-topic" {
		t.Errorf("NtfyTopic = %q, want %q", cfg.NtfyTopic, "legacy-topic")
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("OSDR_API_KEY", "env-key")
	t.Setenv("OSDR_HTTP_TIMEOUT", "5s")
	memFs := newFs(t, map[string]string{"system.yml": systemYAML})

	cfg, err := Load([]string{"system.yml"}, WithFs(memFs))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "env-key")
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("HTTPTimeout = %v, want 5s", cfg.HTTPTimeout)
	}
}

func TestLoad_EnvironmentSatisfiesRequiredKey(t *testing.T) {
	t.Setenv("OSDR_API_KEY", "env-key")
	memFs := newFs(t, map[string]string{
		"job.yml": "ntfy_topic: t\nverbose_log: true\noutput_paths: [/o]\n" +
			"plot_config:\n  title: T\n  xlabel: X\n  ylabel: Y\n",
	})

	cfg, err := Load([]string{"job.yml"}, WithFs(memFs))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "env-key")
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	memFs := newFs(t, map[string]string{
		"system.yml": systemYAML,
		"job.yml":    "http_timeout: 0s\n",
	})

	_, err := load(t, memFs, "system.yml", "job.yml")

	var parseErr *errors.ConfigParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Load() error = %v, want ConfigParseError", err)
	}
	if parseErr.Field != "http_timeout" {
		t.Errorf("Field = %q, want %q", parseErr.Field, "http_timeout")
	}
}

func TestConfig_StudyURL(t *testing.T) {
	tests := []struct {
		dataURL string
		want    string
	}{
		{"https://osdr.nasa.gov/osdr/data/osd/files", "https://osdr.nasa.gov/osdr/data/osd/files/201"},
		{"https://osdr.nasa.gov/osdr/data/osd/files/", "https://osdr.nasa.gov/osdr/data/osd/files/201"},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.DataURL = tt.dataURL
		if got := cfg.StudyURL(); got != tt.want {
			t.Errorf("StudyURL() with %q = %q, want %q", tt.dataURL, got, tt.want)
		}
	}
}

func TestConfig_Redacted(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "secret"
	cfg.OutputPaths = []string{"/a"}

	red := cfg.Redacted()
	if red.APIKey != "****" {
		t.Errorf("Redacted().APIKey = %q, want masked", red.APIKey)
	}
	if cfg.APIKey != "secret" {
		t.Error("Redacted() must not modify the original")
	}
	red.OutputPaths[0] = "/changed"
	if cfg.OutputPaths[0] != "/a" {
		t.Error("Redacted() must copy OutputPaths")
	}
}

func TestIsValidPlotKind(t *testing.T) {
	tests := []struct {
		kind  string
		valid bool
	}{
		{"bar", true},
		{"scatter", true},
		{"", false},
		{"BAR", false},
		{"pie", false},
	}

	for _, tt := range tests {
		if got := IsValidPlotKind(tt.kind); got != tt.valid {
			t.Errorf("IsValidPlotKind(%q) = %v, want %v", tt.kind, got, tt.valid)
		}
	}
}
