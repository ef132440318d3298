//go:build integration

package integration_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bundlekeep/bundlekeep/internal/metadata"
	"github.com/bundlekeep/bundlekeep/internal/updater"
)

func stage(t *testing.T, env *testEnv, hash, url string) updater.StagedPackage {
	t.Helper()
	staged, err := env.Manager.Stage(context.Background(), updater.StageRequest{
		Record:     metadata.PackageRecord{PackageHash: hash, AppVersion: "2.0.0"},
		URL:        url,
		EntryPoint: "main.jsbundle",
	})
	if err != nil {
		t.Fatalf("Stage(%s): %v", hash, err)
	}
	return staged
}

func install(t *testing.T, env *testEnv, hash string) {
	t.Helper()
	if err := env.Manager.Install(metadata.Some(hash), false); err != nil {
		t.Fatalf("Install(%s): %v", hash, err)
	}
}

// TestFullFlowDiffUpdateAndRollback tests the complete flow:
// full package -> diff package -> rollback -> prune.
func TestFullFlowDiffUpdateAndRollback(t *testing.T) {
	env := setupTestEnv(t)

	// Step 1: Stage and install a full package.
	fullURL := env.Server.publish("/v1.zip", zipPayload(t, map[string]string{
		"build/main.jsbundle":    "bundle v1",
		"build/assets/logo.png":  "logo",
		"build/assets/strings.j": "strings v1",
	}))
	stage(t, env, "v1", fullURL)
	install(t, env, "v1")

	content := filepath.Join(env.AppRoot, "v1", testApp)
	assertFileContains(t, filepath.Join(content, "main.jsbundle"), "bundle v1")
	assertFileExists(t, filepath.Join(content, "assets", "logo.png"))

	// Step 2: Stage a diff package that keeps the logo and replaces the rest.
	diffURL := env.Server.publish("/v2.zip", zipPayload(t, map[string]string{
		"build/hotcodepush.json": `{"retainedFiles": ["assets/logo.png"]}`,
		"build/main.jsbundle":    "bundle v2",
		"build/assets/strings.j": "strings v2",
	}))
	staged := stage(t, env, "v2", diffURL)
	install(t, env, "v2")

	content = filepath.Join(env.AppRoot, "v2", testApp)
	assertFileContains(t, staged.EntryPointPath, "bundle v2")
	assertFileContains(t, filepath.Join(content, "assets", "logo.png"), "logo")
	assertFileContains(t, filepath.Join(content, "assets", "strings.j"), "strings v2")
	assertFileNotExists(t, filepath.Join(content, "hotcodepush.json"))
	assertFileNotExists(t, filepath.Join(env.AppRoot, "v2", "unzipped"))

	status, err := env.Manager.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.CurrentPackage.Equal(metadata.Some("v2")) || !status.PreviousPackage.Equal(metadata.Some("v1")) {
		t.Fatalf("status = %+v, want current v2 previous v1", status)
	}

	// Step 3: Roll back to the full package.
	if err := env.Manager.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	assertFileNotExists(t, filepath.Join(env.AppRoot, "v2"))

	folder, err := env.Manager.CurrentPackageFolder()
	if err != nil {
		t.Fatalf("CurrentPackageFolder: %v", err)
	}
	assertFileContains(t, filepath.Join(folder, "main.jsbundle"), "bundle v1")

	// Step 4: A failed stage leaves nothing behind for prune to find.
	_, err = env.Manager.Stage(context.Background(), updater.StageRequest{
		Record:     metadata.PackageRecord{PackageHash: "v3"},
		URL:        env.Server.URL + "/missing.zip",
		EntryPoint: "main.jsbundle",
	})
	if !errors.Is(err, updater.ErrDownloadFailed) {
		t.Fatalf("Stage(missing) err = %v, want download failed", err)
	}
	assertFileNotExists(t, filepath.Join(env.AppRoot, "v3"))

	removed, err := env.Manager.Prune()
	if err != nil || len(removed) != 0 {
		t.Errorf("Prune = %v, %v; want nothing removed", removed, err)
	}
}

// TestFullFlowPlainBundle tests staging a bundle that is not an archive.
func TestFullFlowPlainBundle(t *testing.T) {
	env := setupTestEnv(t)

	url := env.Server.publish("/bundle.js", []byte("console.log('hi')"))
	staged := stage(t, env, "b1", url)
	install(t, env, "b1")

	if staged.IsArchive {
		t.Error("plain bundle classified as archive")
	}
	assertFileContains(t, filepath.Join(env.AppRoot, "b1", testApp, "main.jsbundle"), "console.log")

	rec, err := env.Manager.ActivePackage("2.0.0")
	if err != nil {
		t.Fatalf("ActivePackage: %v", err)
	}
	if rec.PackageHash != "b1" {
		t.Errorf("active = %s, want b1", rec.PackageHash)
	}
}

// TestFullFlowReinstallPrevious tests switching back and forth between two
// staged packages without losing either.
func TestFullFlowReinstallPrevious(t *testing.T) {
	env := setupTestEnv(t)

	for _, hash := range []string{"a", "b"} {
		url := env.Server.publish("/"+hash+".zip", zipPayload(t, map[string]string{
			"out/main.jsbundle": "bundle " + hash,
		}))
		stage(t, env, hash, url)
		install(t, env, hash)
	}

	install(t, env, "a")

	assertFileExists(t, filepath.Join(env.AppRoot, "a"))
	assertFileExists(t, filepath.Join(env.AppRoot, "b"))

	status, err := env.Manager.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.CurrentPackage.Equal(metadata.Some("a")) || !status.PreviousPackage.Equal(metadata.Some("b")) {
		t.Errorf("status = %+v, want current a previous b", status)
	}
}
