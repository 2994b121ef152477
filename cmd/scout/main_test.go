package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/digest"
	"github.com/okian/scout/internal/domain/story"
	"github.com/okian/scout/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// isolate clears every variable the config loader reads and points the
// registry and stories files into a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"SCOUT_CONFIG", "FB_TOKEN", "REDDIT_ID", "REDDIT_SECRET", "SLACK_WEBHOOK",
		"EMAIL_FROM", "EMAIL_PW", "EMAIL_TO", "GMAIL_USER", "GMAIL_APP_PASSWORD",
	} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Setenv("SCOUT_REGISTRY__PATH", filepath.Join(dir, "seen_items.json"))
	t.Setenv("SCOUT_ALERTS__STORIES_PATH", filepath.Join(dir, "stories.json"))
	t.Setenv("SCOUT_FETCH_DELAY_MS", "0")
	return dir
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := isolate(t)

	convey.Convey("Given no source or sink credentials", t, func() {
		convey.Convey("When a dry run is requested", func() {
			out, err := execute("run", "--dry-run", "--dump")

			convey.Convey("Then the fallback digest is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "▶️ Swipe-file digest (")
				convey.So(out, convey.ShouldContainSubstring, digest.DefaultFallback)
			})

			convey.Convey("Then the registry file is not written", func() {
				_, statErr := os.Stat(filepath.Join(dir, "seen_items.json"))
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a real run finds no sink", func() {
			out, err := execute("run")

			convey.Convey("Then it still succeeds and persists the registry", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldBeEmpty)
				_, statErr := os.Stat(filepath.Join(dir, "seen_items.json"))
				convey.So(statErr, convey.ShouldBeNil)
			})
		})
	})
}

func TestAlertsCommand(t *testing.T) {
	isolate(t)

	convey.Convey("Given no Gmail credentials", t, func() {
		convey.Convey("When the monitor runs", func() {
			out, err := execute("alerts")

			convey.Convey("Then setup instructions are printed instead of failing", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, story.SetupInstructions)
				convey.So(out, convey.ShouldContainSubstring, service.SetupMessage)
				convey.So(out, convey.ShouldNotContainSubstring, "Scan complete")
			})
		})
	})

	convey.Convey("Given a broken config file", t, func() {
		t.Setenv("SCOUT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

		convey.Convey("When only the setup instructions are asked for", func() {
			out, err := execute("alerts", "setup")

			convey.Convey("Then no config is loaded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(strings.TrimSpace(out), convey.ShouldEqual, strings.TrimSpace(story.SetupInstructions))
			})
		})
	})
}

func TestRegistryPrune(t *testing.T) {
	dir := isolate(t)
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })

	convey.Convey("Given a registry with a stale and a fresh entry", t, func() {
		path := filepath.Join(dir, "seen_items.json")
		raw, err := json.Marshal(map[string]int64{
			"post:old":   now.Add(-31 * 24 * time.Hour).Unix(),
			"post:fresh": now.Add(-2 * 24 * time.Hour).Unix(),
		})
		convey.So(err, convey.ShouldBeNil)
		convey.So(os.WriteFile(path, raw, 0o600), convey.ShouldBeNil)

		convey.Convey("When it is pruned", func() {
			out, err := execute("registry", "prune")

			convey.Convey("Then only the stale entry is dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldEqual, "pruned 1 entries, 1 remain\n")

				data, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				var seen map[string]int64
				convey.So(json.Unmarshal(data, &seen), convey.ShouldBeNil)
				convey.So(seen, convey.ShouldContainKey, "post:fresh")
				convey.So(seen, convey.ShouldNotContainKey, "post:old")
			})
		})
	})
}

func TestConfigErrors(t *testing.T) {
	isolate(t)

	convey.Convey("Given a config path that does not exist", t, func() {
		_, err := execute("run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))

		convey.Convey("Then the command fails with a load error", func() {
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unknown registry backend", t, func() {
		t.Setenv("SCOUT_REGISTRY__BACKEND", "mongo")
		_, err := execute("registry", "prune")

		convey.Convey("Then validation rejects it", func() {
			convey.So(errors.Is(err, config.ErrUnknownBackend), convey.ShouldBeTrue)
		})
	})
}
