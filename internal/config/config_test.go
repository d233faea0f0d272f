package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	t.Setenv("WIT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	c, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Jobs != 0 || len(c.RepoPaths) != 0 {
		t.Errorf("expected zero Config, got %+v", c)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Setenv("WIT_CONFIG", filepath.Join(t.TempDir(), "nested", "witconfig.yaml"))

	want := &Config{RepoPaths: []string{"/repos/a", "/repos/b"}, Jobs: 8, Verbosity: 2}
	if err := Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Jobs != want.Jobs || got.Verbosity != want.Verbosity || len(got.RepoPaths) != len(want.RepoPaths) {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestEffectiveJobsPrecedence(t *testing.T) {
	c := &Config{Jobs: 4}

	if got := c.EffectiveJobs(7, 1); got != 7 {
		t.Errorf("explicit flag should win, got %d", got)
	}

	t.Setenv("WIT_JOBS", "9")
	if got := c.EffectiveJobs(0, 1); got != 9 {
		t.Errorf("WIT_JOBS should win over config, got %d", got)
	}

	os.Unsetenv("WIT_JOBS")
	if got := c.EffectiveJobs(0, 1); got != 4 {
		t.Errorf("config default should win over fallback, got %d", got)
	}

	empty := &Config{}
	if got := empty.EffectiveJobs(0, 3); got != 3 {
		t.Errorf("fallback should apply when nothing else is set, got %d", got)
	}
}

func TestEffectiveRepoPaths(t *testing.T) {
	os.Unsetenv("WIT_REPO_PATH")
	c := &Config{RepoPaths: []string{"/a"}}
	if got := c.EffectiveRepoPaths([]string{"/explicit"}); len(got) != 1 || got[0] != "/explicit" {
		t.Errorf("explicit paths should win, got %v", got)
	}
	if got := c.EffectiveRepoPaths(nil); len(got) != 1 || got[0] != "/a" {
		t.Errorf("config paths should apply when nothing explicit, got %v", got)
	}
}

func TestEffectiveRepoPathsEnvBeatsConfig(t *testing.T) {
	t.Setenv("WIT_REPO_PATH", "/env/one:/env/two")
	c := &Config{RepoPaths: []string{"/a"}}

	got := c.EffectiveRepoPaths(nil)
	if len(got) != 2 || got[0] != "/env/one" || got[1] != "/env/two" {
		t.Errorf("WIT_REPO_PATH should win over config defaults, got %v", got)
	}
}

func TestParseRepoPathEnv(t *testing.T) {
	got := ParseRepoPathEnv("/a:/b /c")
	want := []string{"/a", "/b", "/c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %q, want %q", i, got[i], want[i])
		}
	}
}
