package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/snaplist/internal/services"
	"github.com/desertthunder/snaplist/internal/services/servicestest"
	"github.com/desertthunder/snaplist/internal/shared"
	tu "github.com/desertthunder/snaplist/internal/testing"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const tracklistText = "BTS - Dynamite\n3:19\nBLACKPINK - How You Like That\n2:59"

type fixture struct {
	runner   *Runner
	output   *bytes.Buffer
	searcher *servicestest.Searcher
	writer   *servicestest.PlaylistWriter
	dir      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = shared.MemoryDatabase
	config.Resolver.RateLimit = -1
	config.Credentials.Google.TokenPath = filepath.Join(dir, "token.json")

	f := &fixture{
		output: &bytes.Buffer{},
		searcher: &servicestest.Searcher{Results: map[string][]services.SearchResult{
			"BTS - Dynamite audio":                {servicestest.Result("v1", "Dynamite")},
			"BLACKPINK - How You Like That audio": {servicestest.Result("v2", "How You Like That")},
		}},
		writer: &servicestest.PlaylistWriter{PlaylistID: "PL1"},
		dir:    dir,
	}

	f.runner = NewRunner(RunnerOpts{
		Config:   config,
		Logger:   shared.NewLogger(io.Discard),
		Output:   f.output,
		Detector: &servicestest.Detector{Text: tracklistText},
		Searcher: f.searcher,
		Detailer: &servicestest.Detailer{Details: []services.VideoDetail{
			servicestest.Detail("v1", "Dynamite", services.UploadStatusProcessed),
			servicestest.Detail("v2", "How You Like That", services.UploadStatusProcessed),
		}},
		Writer: f.writer,
		DB:     tu.MustOpenDB(t),
	})
	return f
}

// run executes args against a fresh command tree.
func (f *fixture) run(args ...string) error {
	app := &cli.Command{
		Name:      "snaplist",
		Commands:  f.runner.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"snaplist"}, args...))
}

// image writes a placeholder screenshot and returns its path.
func (f *fixture) image(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte("fake png bytes"), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	return path
}

func (f *fixture) saveToken(t *testing.T) {
	t.Helper()
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh"}
	if err := services.SaveToken(f.runner.config.Credentials.Google.TokenPath, token); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
}

// latestHistoryID resolves one image for owner and returns the new record's ID.
func (f *fixture) latestHistoryID(t *testing.T, owner string) string {
	t.Helper()
	if err := f.run("resolve", "--owner", owner, f.image(t, "shot.png")); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	repo, err := f.runner.historyRepository()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := repo.ListByOwner(owner, 1)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one record, got %v (%v)", records, err)
	}
	f.output.Reset()
	return records[0].ID()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.metrics == nil {
				t.Error("expected default metrics collector")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil services uses google clients", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.detector.(*services.VisionService); !ok {
				t.Errorf("expected VisionService, got %T", runner.detector)
			}
			if _, ok := runner.writer.(*services.YouTubeService); !ok {
				t.Errorf("expected YouTubeService, got %T", runner.writer)
			}
		})

		t.Run("without oauth client", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Google.ClientID = ""

			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})
			if runner.oauth != nil {
				t.Error("expected no oauth config")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writeOutput", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(f.dir, "out.txt")

		if err := f.runner.writeOutput([]byte("hello"), path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := tu.MustReadFile(t, path); got != "hello" {
			t.Errorf("expected file content, got %q", got)
		}
		if f.output.Len() != 0 {
			t.Error("expected nothing on stdout")
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("Single Image", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("resolve", "--owner", "user1", f.image(t, "shot.png")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := f.output.String()
		for _, want := range []string{
			"1. Dynamite - https://www.youtube.com/watch?v=v1",
			"2. How You Like That - https://www.youtube.com/watch?v=v2",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		want := []string{"BLACKPINK - How You Like That audio", "BTS - Dynamite audio"}
		if got := f.searcher.Queries(); !slices.Equal(got, want) {
			t.Errorf("expected queries %v, got %v", want, got)
		}
	})

	t.Run("JSON Format", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("resolve", "--format", "json", f.image(t, "shot.png")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result struct {
			Mode   string `json:"mode"`
			Videos []struct {
				ID string `json:"id"`
			} `json:"videos"`
			HistoryID string `json:"historyId"`
		}
		if err := json.Unmarshal(f.output.Bytes(), &result); err != nil {
			t.Fatalf("invalid JSON output: %v\n%s", err, f.output.String())
		}
		if result.Mode != "multi" || len(result.Videos) != 2 {
			t.Errorf("unexpected result %+v", result)
		}
		if result.HistoryID != "" {
			t.Error("anonymous resolves should not record history")
		}
	})

	t.Run("Cache Hits", func(t *testing.T) {
		f := newFixture(t)
		path := f.image(t, "shot.png")

		for range 2 {
			if err := f.run("resolve", path); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if got := len(f.searcher.Queries()); got != 2 {
			t.Errorf("expected second resolve to be served from cache, got %d searches", got)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		f := newFixture(t)
		manifest := filepath.Join(f.dir, "manifest.txt")

		err := f.run("resolve", "--manifest", manifest, f.image(t, "a.png"), filepath.Join(f.dir, "missing.png"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := f.output.String()
		if !strings.HasPrefix(out, "Resolved 1 of 2 images") {
			t.Errorf("unexpected batch output:\n%s", out)
		}
		if !strings.Contains(out, "✗ "+filepath.Join(f.dir, "missing.png")) {
			t.Errorf("expected failed item in output:\n%s", out)
		}
		if content := tu.MustReadFile(t, manifest); !strings.Contains(content, "Images: 2 (1 succeeded, 1 failed)") {
			t.Errorf("unexpected manifest:\n%s", content)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		f := newFixture(t)
		path := f.image(t, "shot.png")

		tc := []struct {
			name string
			args []string
			want error
		}{
			{"no images", []string{"resolve"}, shared.ErrMissingArgument},
			{"bad mode", []string{"resolve", "--mode", "stereo", path}, shared.ErrInvalidArgument},
			{"bad format", []string{"resolve", "--format", "yaml", path}, shared.ErrInvalidArgument},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if err := f.run(tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		f := newFixture(t)
		id := f.latestHistoryID(t, "user1")

		if err := f.run("history", "list", "--owner", "user1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out := f.output.String(); !strings.HasPrefix(out, id) || !strings.Contains(out, "2 song(s)") {
			t.Errorf("unexpected list output:\n%s", out)
		}

		f.output.Reset()
		if err := f.run("history", "list", "--owner", "someone-else"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out := f.output.String(); out != "No history.\n" {
			t.Errorf("expected empty history for another owner, got %q", out)
		}
	})

	t.Run("Show", func(t *testing.T) {
		f := newFixture(t)
		id := f.latestHistoryID(t, "user1")

		if err := f.run("history", "show", "--owner", "user1", id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "ID: "+id) || !strings.Contains(out, "2. How You Like That") {
			t.Errorf("unexpected show output:\n%s", out)
		}

		if err := f.run("history", "show", "--owner", "user2", id); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected ErrHistoryNotFound for another owner, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		f := newFixture(t)
		id := f.latestHistoryID(t, "user1")

		if err := f.run("history", "delete", "--owner", "user2", id); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Fatalf("expected ErrHistoryNotFound for another owner, got %v", err)
		}

		if err := f.run("history", "delete", "--owner", "user1", id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "✓ Deleted "+id) {
			t.Errorf("unexpected delete output:\n%s", f.output.String())
		}

		if err := f.run("history", "show", "--owner", "user1", id); !errors.Is(err, shared.ErrHistoryNotFound) {
			t.Errorf("expected deleted record to be gone, got %v", err)
		}
	})

	t.Run("Empty Owner", func(t *testing.T) {
		f := newFixture(t)
		f.latestHistoryID(t, "user1")

		if err := f.run("history", "list", "--owner", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := f.run("playlist", "list", "--owner", ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if f.output.Len() != 0 {
			t.Errorf("expected no records printed, got:\n%s", f.output.String())
		}
	})

	t.Run("Missing ID", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run("history", "show", "--owner", "user1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestPlaylist(t *testing.T) {
	t.Run("Export From History", func(t *testing.T) {
		f := newFixture(t)
		f.saveToken(t)
		id := f.latestHistoryID(t, "user1")

		if err := f.run("playlist", "export", "--owner", "user1", "--history", id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := f.writer.Appended(); !slices.Equal(got, []string{"v1", "v2"}) {
			t.Errorf("unexpected appended videos %v", got)
		}
		if got := f.writer.Privacy(); !slices.Equal(got, []string{services.PrivacyPrivate}) {
			t.Errorf("expected private playlist, got %v", got)
		}
		if out := f.output.String(); !strings.Contains(out, "Added: 2/2") || !strings.Contains(out, "list=PL1") {
			t.Errorf("unexpected export output:\n%s", out)
		}

		f.output.Reset()
		if err := f.run("playlist", "list", "--owner", "user1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out := f.output.String(); !strings.HasPrefix(out, "✓") || !strings.Contains(out, "2/2") {
			t.Errorf("unexpected export list:\n%s", out)
		}
	})

	t.Run("Export Videos", func(t *testing.T) {
		f := newFixture(t)
		f.saveToken(t)

		if err := f.run("playlist", "export", "--title", "Mix", "--video", "a", "--video", "b"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := f.writer.Created(); !slices.Equal(got, []string{"Mix"}) {
			t.Errorf("unexpected created playlists %v", got)
		}
		if got := f.writer.Appended(); !slices.Equal(got, []string{"a", "b"}) {
			t.Errorf("unexpected appended videos %v", got)
		}
	})

	t.Run("Partial Export", func(t *testing.T) {
		f := newFixture(t)
		f.saveToken(t)
		f.writer.FailOn = map[string]error{"b": errors.New("quota exceeded")}

		err := f.run("playlist", "export", "--owner", "user1", "--title", "Mix", "--video", "a", "--video", "b", "--video", "c")
		if !errors.Is(err, shared.ErrPartialExport) {
			t.Fatalf("expected ErrPartialExport, got %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "Added: 1/3") || !strings.Contains(out, "Stopped at: b") {
			t.Errorf("unexpected partial output:\n%s", out)
		}

		f.output.Reset()
		if err := f.run("playlist", "list", "--owner", "user1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "stopped at b: quota exceeded") {
			t.Errorf("expected recorded failure:\n%s", out)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		f := newFixture(t)

		tc := []struct {
			name  string
			token bool
			args  []string
			want  error
		}{
			{"no token", false, []string{"playlist", "export", "--title", "Mix", "--video", "a"}, shared.ErrNotAuthenticated},
			{"nothing to export", true, []string{"playlist", "export", "--title", "Mix"}, shared.ErrMissingArgument},
			{"history and videos", true, []string{"playlist", "export", "--owner", "u", "--history", "h", "--video", "a"}, shared.ErrInvalidArgument},
			{"history without owner", true, []string{"playlist", "export", "--history", "h"}, shared.ErrMissingArgument},
			{"unknown history", true, []string{"playlist", "export", "--owner", "u", "--history", "h"}, shared.ErrHistoryNotFound},
			{"missing title", true, []string{"playlist", "export", "--video", "a"}, shared.ErrInvalidInput},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if tt.token {
					f.saveToken(t)
				} else {
					os.Remove(f.runner.config.Credentials.Google.TokenPath)
				}
				if err := f.run(tt.args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
		if len(f.writer.Created()) != 0 {
			t.Errorf("no playlist should be created, got %v", f.writer.Created())
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(f.dir, "config.toml")

		if err := f.run("setup", "config", "--config", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("written config should load: %v", err)
		}

		if err := f.run("setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("Database", func(t *testing.T) {
		f := newFixture(t)
		configPath := filepath.Join(f.dir, "config.toml")
		dbPath := filepath.Join(f.dir, "snaplist.db")

		content := fmt.Sprintf("[database]\npath = %q\n", dbPath)
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if err := f.run("setup", "database", "--config", configPath); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(f.output.String(), "✓ Database ready at "+dbPath) {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}

		f.output.Reset()
		if err := f.run("setup", "rollback", "--config", configPath); err != nil {
			t.Fatalf("unexpected rollback error: %v", err)
		}
		if !strings.Contains(f.output.String(), "(1 remaining)") {
			t.Errorf("unexpected rollback output:\n%s", f.output.String())
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(f.output.String(), "✗ Not authenticated") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}

		f.saveToken(t)
		f.output.Reset()
		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out := f.output.String(); !strings.Contains(out, "✓ Token saved") || !strings.Contains(out, "Refresh: available") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("Missing Client", func(t *testing.T) {
		f := newFixture(t)
		f.runner.oauth = nil

		if err := f.run("auth", "google"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Google Flow", func(t *testing.T) {
		f := newFixture(t)

		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","refresh_token":"ref","expires_in":3600}`)
		}))
		defer tokenServer.Close()

		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to reserve port: %v", err)
		}
		addr := l.Addr().String()
		l.Close()

		f.runner.oauth = &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURL:  "http://" + addr + "/callback",
			Endpoint:     oauth2.Endpoint{AuthURL: "http://accounts.test/auth", TokenURL: tokenServer.URL},
		}
		f.runner.openBrowser = func(authURL string) error {
			u, err := url.Parse(authURL)
			if err != nil {
				return err
			}
			callback := fmt.Sprintf("http://%s/callback?code=abc&state=%s", addr, url.QueryEscape(u.Query().Get("state")))

			go func() {
				for range 50 {
					resp, err := http.Get(callback)
					if err == nil {
						resp.Body.Close()
						return
					}
					time.Sleep(20 * time.Millisecond)
				}
			}()
			return nil
		}

		if err := f.run("auth", "google", "--timeout", "5s"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		token, err := services.LoadToken(f.runner.config.Credentials.Google.TokenPath)
		if err != nil {
			t.Fatalf("expected saved token: %v", err)
		}
		if token.AccessToken != "tok" || token.RefreshToken != "ref" {
			t.Errorf("unexpected token %+v", token)
		}
		if !strings.Contains(f.output.String(), "✓ YouTube account connected") {
			t.Errorf("unexpected output:\n%s", f.output.String())
		}
	})
}

func TestServerDeps(t *testing.T) {
	f := newFixture(t)

	deps, err := f.runner.serverDeps(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps.Engines) != 2 || deps.History == nil || deps.Exporter == nil || deps.Metrics == nil {
		t.Errorf("incomplete deps %+v", deps)
	}
}
