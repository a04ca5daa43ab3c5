package config_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/fentz26/ticgit/internal/config"
)

func writeFile(c *qt.C, path, content string) {
	c.Assert(os.MkdirAll(filepath.Dir(path), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(path, []byte(content), 0o644), qt.IsNil)
}

func TestDefault_HappyPath(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	c.Assert(cfg.User, qt.Not(qt.Equals), "")
	c.Assert(cfg.Editor, qt.Equals, "")
	c.Assert(cfg.Display.Color, qt.Equals, "auto")
	c.Assert(cfg.Display.WideCells, qt.IsFalse)
	c.Assert(cfg.Display.CommentWidth, qt.Equals, 80)
	c.Assert(cfg.Display.CommentLines, qt.Equals, 6)
	c.Assert(cfg.Log.Level, qt.Equals, "warn")
	c.Assert(cfg.Source, qt.Equals, config.SourceDefault)
}

func TestLoad_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("non-existent file returns defaults without error", func(c *qt.C) {
		cfg, err := config.Load("/nonexistent/config.yaml")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Display.CommentWidth, qt.Equals, 80)
		c.Assert(cfg.Source, qt.Equals, config.SourceDefault)
	})

	tests := []struct {
		name      string
		yaml      string
		wantUser  string
		wantColor string
		wantWide  bool
		wantWidth int
		wantLines int
		wantDir   string
	}{
		{
			name:      "full file",
			yaml:      "user: alice\neditor: nano\ndisplay:\n  color: never\n  wide_cells: true\n  comment_width: 72\n  comment_lines: 3\nlog:\n  level: debug\nstore:\n  dir: tickets\n",
			wantUser:  "alice",
			wantColor: "never",
			wantWide:  true,
			wantWidth: 72,
			wantLines: 3,
			wantDir:   "tickets",
		},
		{
			name:      "partial display keeps other defaults",
			yaml:      "user: bob\ndisplay:\n  comment_lines: 10\n",
			wantUser:  "bob",
			wantColor: "auto",
			wantWidth: 80,
			wantLines: 10,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			path := filepath.Join(c.TempDir(), "config.yaml")
			writeFile(c, path, tt.yaml)

			cfg, err := config.Load(path)
			c.Assert(err, qt.IsNil)
			c.Assert(cfg.User, qt.Equals, tt.wantUser)
			c.Assert(cfg.Display.Color, qt.Equals, tt.wantColor)
			c.Assert(cfg.Display.WideCells, qt.Equals, tt.wantWide)
			c.Assert(cfg.Display.CommentWidth, qt.Equals, tt.wantWidth)
			c.Assert(cfg.Display.CommentLines, qt.Equals, tt.wantLines)
			c.Assert(cfg.Store.Dir, qt.Equals, tt.wantDir)
			c.Assert(cfg.Source, qt.Equals, path)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"malformed yaml", "display: [", `parse config .*`},
		{"bad color", "display:\n  color: rainbow\n", `config: display.color must be auto, always or never, got "rainbow"`},
		{"negative width", "display:\n  comment_width: -1\n", `config: display.comment_width must not be negative, got -1`},
		{"negative lines", "display:\n  comment_lines: -2\n", `config: display.comment_lines must not be negative, got -2`},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			path := filepath.Join(c.TempDir(), "config.yaml")
			writeFile(c, path, tt.yaml)
			_, err := config.Load(path)
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

func TestPath_Precedence(t *testing.T) {
	c := qt.New(t)

	home := c.TempDir()
	c.Setenv("HOME", home)
	repo := c.TempDir()

	global := filepath.Join(home, ".config", "ticgit", "config.yaml")
	c.Assert(config.Path("", repo), qt.Equals, global)

	writeFile(c, filepath.Join(repo, config.RepoFile), "user: repo\n")
	c.Assert(config.Path("", repo), qt.Equals, filepath.Join(repo, config.RepoFile))

	c.Assert(config.Path("/explicit.yaml", repo), qt.Equals, "/explicit.yaml")
}

func TestResolve(t *testing.T) {
	c := qt.New(t)

	home := c.TempDir()
	c.Setenv("HOME", home)
	c.Setenv(config.EnvUser, "")
	c.Setenv(config.EnvColor, "")

	repo := c.TempDir()
	writeFile(c, filepath.Join(home, ".config", "ticgit", "config.yaml"), "user: global\neditor: ed\n")

	c.Run("global file", func(c *qt.C) {
		cfg, err := config.Resolve("", repo)
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.User, qt.Equals, "global")
		c.Assert(cfg.Editor, qt.Equals, "ed")
	})

	c.Run("env overrides file", func(c *qt.C) {
		c.Setenv(config.EnvUser, "carol")
		c.Setenv(config.EnvColor, "NEVER")
		cfg, err := config.Resolve("", repo)
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.User, qt.Equals, "carol")
		c.Assert(cfg.Display.Color, qt.Equals, "never")
	})

	c.Run("bad env color", func(c *qt.C) {
		c.Setenv(config.EnvColor, "rainbow")
		_, err := config.Resolve("", repo)
		c.Assert(err, qt.ErrorMatches, `config: display.color .*`)
	})

	c.Run("missing explicit file", func(c *qt.C) {
		_, err := config.Resolve(filepath.Join(repo, "nope.yaml"), repo)
		c.Assert(err, qt.ErrorMatches, `config file .*nope.yaml does not exist`)
	})
}

func TestLoadDotEnv(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	c.Assert(config.LoadDotEnv(dir), qt.IsNil)
	c.Assert(config.LoadDotEnv(""), qt.IsNil)

	c.Setenv("TICGIT_TEST_PRESET", "kept")
	c.Setenv("TICGIT_TEST_NEW", "")
	os.Unsetenv("TICGIT_TEST_NEW")
	writeFile(c, filepath.Join(dir, ".env"), "TICGIT_TEST_PRESET=replaced\nTICGIT_TEST_NEW=loaded\n")

	c.Assert(config.LoadDotEnv(dir), qt.IsNil)
	c.Assert(os.Getenv("TICGIT_TEST_PRESET"), qt.Equals, "kept")
	c.Assert(os.Getenv("TICGIT_TEST_NEW"), qt.Equals, "loaded")
}

func TestApplyEnv(t *testing.T) {
	c := qt.New(t)

	cfg := config.Default()
	env := map[string]string{config.EnvUser: " dave ", config.EnvColor: "Always"}
	cfg.ApplyEnv(func(k string) string { return env[k] })
	c.Assert(cfg.User, qt.Equals, "dave")
	c.Assert(cfg.Display.Color, qt.Equals, "always")

	cfg.ApplyEnv(func(string) string { return "" })
	c.Assert(cfg.User, qt.Equals, "dave")
}
