package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quidome/ecoquest-go/pkg/exifread/exifreadtest"
	"github.com/quidome/ecoquest-go/pkg/profile"
)

func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--data-dir", dataDir, "--env-file", filepath.Join(dataDir, "missing.env")))

	err := cmd.Execute()
	return out.String(), err
}

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ECOQUEST_LOG_LEVEL", "error")
	t.Setenv("ECOQUEST_TIMEZONE", "Local")
}

func writePhoto(t *testing.T, dir, relPath string, taken time.Time, model string) string {
	t.Helper()

	data := exifreadtest.JPEG(exifreadtest.APP1(exifreadtest.TIFF(exifreadtest.Fields{
		DateTimeOriginal: taken.Format("2006:01:02 15:04:05"),
		Make:             "Canon",
		Model:            model,
	})))
	path := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func writeFile(t *testing.T, dir string, relPath string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(relPath), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestRootCommand_PrintsVersion(t *testing.T) {
	cmd := newRootCmd()

	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "EcoQuest CLI") {
		t.Fatalf("expected output to include CLI header, got %q", output)
	}
	if !strings.Contains(output, "Version: "+version) {
		t.Fatalf("expected output to include version, got %q", output)
	}
}

func TestVerifyCommand_RequiresArgs(t *testing.T) {
	quietEnv(t)
	if _, err := execute(t, t.TempDir(), "verify"); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestVerifyCommand_FreshPhotoIsRecorded(t *testing.T) {
	quietEnv(t)
	dataDir := t.TempDir()
	photo := writePhoto(t, t.TempDir(), "proof.jpg", time.Now().Add(-time.Hour), "EOS R5")

	out, err := execute(t, dataDir, "verify", photo, "--quest", "plant-a-tree", "--user", "mari")
	if err != nil {
		t.Fatalf("expected no error, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "✅ Photo Verified!") || !strings.Contains(out, "📅 Taken: ") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, dataDir, "ledger", "--json")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	var entries []struct {
		Hash    string `json:"hash"`
		UserID  string `json:"userId"`
		QuestID string `json:"questId"`
	}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("failed to parse JSON: %v\n%s", err, out)
	}
	if len(entries) != 1 || entries[0].UserID != "mari" || entries[0].QuestID != "plant-a-tree" || len(entries[0].Hash) != 64 {
		t.Fatalf("unexpected ledger %#v", entries)
	}
}

func TestVerifyCommand_ReuseByAnotherUser(t *testing.T) {
	quietEnv(t)
	dataDir := t.TempDir()
	photo := writePhoto(t, t.TempDir(), "proof.jpg", time.Now().Add(-time.Hour), "EOS R5")

	if out, err := execute(t, dataDir, "verify", photo, "--quest", "q1", "--user", "mari"); err != nil {
		t.Fatalf("first submission: %v\n%s", err, out)
	}

	out, err := execute(t, dataDir, "verify", photo, "--quest", "q1", "--user", "jaan")
	if err != nil {
		t.Fatalf("permissive policy should only warn, got %v", err)
	}
	if !strings.Contains(out, "This photo has been used before") {
		t.Fatalf("expected reuse warning, got %q", out)
	}

	out, err = execute(t, dataDir, "verify", photo, "--quest", "q1", "--user", "jaan", "--policy", "strict")
	if err == nil {
		t.Fatalf("strict policy should reject reuse, got %q", out)
	}
	if !strings.Contains(out, "❌ This photo has been used before") {
		t.Fatalf("expected reuse error, got %q", out)
	}
}

func TestVerifyCommand_DirectoryJSON(t *testing.T) {
	quietEnv(t)
	dataDir := t.TempDir()
	src := t.TempDir()
	writePhoto(t, src, "a.jpg", time.Now().Add(-time.Hour), "A")
	writePhoto(t, src, "sub/b.jpeg", time.Now().Add(-2*time.Hour), "B")
	writeFile(t, src, "notes.txt")

	cmd := newRootCmd()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"verify", src, "--json", "--user", "mari", "--quest", "q", "--data-dir", dataDir, "--env-file", ""})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected no error, got %v\n%s", err, errOut.String())
	}

	var results []verifyResult
	if err := json.Unmarshal(out.Bytes(), &results); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !strings.HasSuffix(results[0].Path, "a.jpg") || !strings.HasSuffix(results[1].Path, filepath.Join("sub", "b.jpeg")) {
		t.Fatalf("unexpected paths %q %q", results[0].Path, results[1].Path)
	}
	for _, r := range results {
		if !r.Verdict.Verified || r.Verdict.Exif == nil || r.Verdict.Exif.Make != "Canon" {
			t.Fatalf("unexpected verdict %#v", r.Verdict)
		}
	}
}

func TestVerifyCommand_RejectsNonImage(t *testing.T) {
	quietEnv(t)
	notes := writeFile(t, t.TempDir(), "notes.txt")

	out, err := execute(t, t.TempDir(), "verify", notes)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(out, "Invalid file type") {
		t.Fatalf("expected type rejection, got %q", out)
	}
}

func TestHashCommand(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "abc.bin")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	out, err := execute(t, tmp, "hash", path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.HasPrefix(out, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad  bafkrei") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestExifCommand(t *testing.T) {
	quietEnv(t)
	taken := time.Date(2026, 10, 17, 9, 30, 0, 0, time.Local)
	photo := writePhoto(t, t.TempDir(), "proof.jpg", taken, "EOS R5")
	plain := writeFile(t, t.TempDir(), "plain.jpg")

	out, err := execute(t, t.TempDir(), "exif", photo, plain)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "taken:    2026-10-17 09:30:00") || !strings.Contains(out, "device:   Canon EOS R5") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "plain.jpg: no EXIF metadata") {
		t.Fatalf("expected plain file to have no metadata, got %q", out)
	}
}

func TestAccountCommands(t *testing.T) {
	quietEnv(t)
	dataDir := t.TempDir()

	out, err := execute(t, dataDir, "signup", "--email", "Mari@Example.ee", "--password", "secret1")
	if err != nil {
		t.Fatalf("signup: %v\n%s", err, out)
	}
	if !strings.Contains(out, "for mari (mari@example.ee)") {
		t.Fatalf("unexpected signup output %q", out)
	}

	out, err = execute(t, dataDir, "signup", "--email", "mari@example.ee", "--password", "secret2")
	if err == nil || !strings.Contains(out, "This email is already registered") {
		t.Fatalf("expected duplicate email error, got %v %q", err, out)
	}

	out, err = execute(t, dataDir, "signup", "--email", "juku@example.ee", "--password", "123")
	if err == nil || !strings.Contains(out, "Password must be at least 6 characters long.") {
		t.Fatalf("expected friendly validation error, got %v %q", err, out)
	}

	out, err = execute(t, dataDir, "signin", "--email", "mari@example.ee", "--password", "secret1")
	if err != nil || !strings.Contains(out, "Welcome back, mari!") {
		t.Fatalf("signin: %v %q", err, out)
	}

	out, err = execute(t, dataDir, "signin", "--email", "mari@example.ee", "--password", "nope-nope")
	if err == nil || !strings.Contains(out, "Invalid email or password") {
		t.Fatalf("expected credential error, got %v %q", err, out)
	}

	if _, err := execute(t, dataDir, "signup", "--email", "jaan@example.ee", "--password", "secret1", "--name", "Jaan"); err != nil {
		t.Fatalf("signup: %v", err)
	}
	out, err = execute(t, dataDir, "leaderboard")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if !strings.Contains(out, "1. ") || !strings.Contains(out, "2. ") {
		t.Fatalf("expected two ranked players, got %q", out)
	}

	if _, err := execute(t, dataDir, "leaderboard", "--by", "email"); err == nil {
		t.Fatalf("expected invalid sort key error")
	}
}

func TestHatchCommand(t *testing.T) {
	quietEnv(t)
	dataDir := t.TempDir()
	ctx := context.Background()

	store, err := profile.OpenSQLiteStore(filepath.Join(dataDir, "ecoquest.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Create(ctx, profile.New("u1", "a@b.ee", "Anna", time.Now()), "h"); err != nil {
		t.Fatalf("create: %v", err)
	}
	eggs := []profile.Hatching{
		{EggID: "egg-1", Rarity: "legendary", EndTime: time.Now().Add(-time.Minute)},
		{EggID: "egg-2", Rarity: "common", EndTime: time.Now().Add(time.Hour)},
	}
	if err := store.Update(ctx, "u1", profile.Patch{Hatchings: &eggs}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out, err := execute(t, dataDir, "hatch", "--user", "u1", "--seed", "42")
	if err != nil {
		t.Fatalf("hatch: %v", err)
	}
	if !strings.Contains(out, "hatched! (legendary, from egg-1)") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, dataDir, "hatch", "--user", "u1")
	if err != nil {
		t.Fatalf("hatch: %v", err)
	}
	if !strings.Contains(out, "No eggs ready to hatch (1 still incubating)") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := execute(t, dataDir, "hatch"); err == nil {
		t.Fatalf("expected error without --user")
	}
}

func TestVerifyCommand_Archive(t *testing.T) {
	quietEnv(t)
	dataDir := t.TempDir()
	archiveDir := t.TempDir()
	taken := time.Now().Add(-time.Hour)
	photo := writePhoto(t, t.TempDir(), "proof.JPG", taken, "EOS R5")

	for i := 0; i < 2; i++ {
		out, err := execute(t, dataDir, "verify", photo, "--quest", "q1", "--user", "mari", "--archive", archiveDir)
		if err != nil {
			t.Fatalf("verify: %v\n%s", err, out)
		}
		want := "archived: "
		if i == 1 {
			want = "already archived: "
		}
		if !strings.Contains(out, want) {
			t.Fatalf("run %d: expected %q in %q", i, want, out)
		}
	}

	matches, err := filepath.Glob(filepath.Join(archiveDir, "q1", taken.Format("2006"), taken.Format("01"), taken.Format("02"), "*.jpg"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 || len(filepath.Base(matches[0])) != 64+len(".jpg") {
		t.Fatalf("unexpected archive contents %v", matches)
	}
}
