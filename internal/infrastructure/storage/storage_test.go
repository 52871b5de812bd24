package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v3"
	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/khushisaxena01/boomkart/pkg/track"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func newTestLeaderboard(t *testing.T) *Leaderboard {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLeaderboard(db)
}

func entry(ms int64, racer string, laps int, multi bool) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		Time:        ms,
		Racer:       racer,
		Date:        "2024-05-01T12:00:00Z",
		Laps:        laps,
		Multiplayer: multi,
	}
}

func TestLeaderboard_SortedAndCapped(t *testing.T) {
	lb := newTestLeaderboard(t)

	times := []int64{9000, 3000, 12000, 1000, 7000, 5000, 11000, 2000, 8000, 4000, 10000, 6000}
	for _, ms := range times {
		if err := lb.SaveTime("oval", entry(ms, "kartB", 3, false)); err != nil {
			t.Fatalf("SaveTime: %v", err)
		}
	}

	got, err := lb.TrackEntries("oval")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxEntries {
		t.Fatalf("entries = %d, want %d", len(got), MaxEntries)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Time > got[i].Time {
			t.Fatalf("entries not ascending at %d: %d > %d", i, got[i-1].Time, got[i].Time)
		}
	}
	if got[0].Time != 1000 || got[len(got)-1].Time != 10000 {
		t.Errorf("kept range %d..%d, want 1000..10000", got[0].Time, got[len(got)-1].Time)
	}
}

func TestLeaderboard_BestFor(t *testing.T) {
	lb := newTestLeaderboard(t)

	if _, ok, err := lb.BestFor("oval", 3); ok || err != nil {
		t.Fatalf("empty board: ok=%v err=%v", ok, err)
	}

	_ = lb.SaveTime("oval", entry(1500, "kartA", 1, false))
	_ = lb.SaveTime("oval", entry(4000, "kartB", 3, false))
	_ = lb.SaveTime("oval", entry(3500, "kartC", 3, true))

	best, ok, err := lb.BestFor("oval", 3)
	if err != nil || !ok {
		t.Fatalf("BestFor: ok=%v err=%v", ok, err)
	}
	if best.Time != 3500 || best.Racer != "kartC" {
		t.Errorf("best = %+v, want kartC 3500", best)
	}

	if _, ok, _ := lb.BestFor("desert", 3); ok {
		t.Error("other track must have no best")
	}
}

func TestLeaderboard_MultiplayerAndRecords(t *testing.T) {
	lb := newTestLeaderboard(t)

	_ = lb.SaveTime("oval", entry(4000, "kartB", 3, false))
	_ = lb.SaveTime("oval", entry(3000, "kartA", 3, true))
	_ = lb.SaveTime("desert", entry(2000, "taimi", 3, true))
	_ = lb.SaveTime("desert", entry(1000, "taimi", 1, false))

	multi, err := lb.MultiplayerEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(multi["oval"]) != 1 || len(multi["desert"]) != 1 {
		t.Errorf("multiplayer = %v", multi)
	}

	records, err := lb.LapRecords(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].Track != "desert" || records[1].Time != 3000 {
		t.Errorf("records = %+v", records)
	}
}

func TestLeaderboard_OpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	lb, err := OpenLeaderboard(dir)
	if err != nil {
		t.Fatalf("OpenLeaderboard: %v", err)
	}
	if err := lb.SaveTime("oval", entry(4242, "kartB", 3, false)); err != nil {
		t.Fatal(err)
	}
	if err := lb.Close(); err != nil {
		t.Fatal(err)
	}

	// Данные переживают переоткрытие
	lb, err = OpenLeaderboard(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer lb.Close()
	got, err := lb.TrackEntries("oval")
	if err != nil || len(got) != 1 || got[0].Time != 4242 {
		t.Errorf("after reopen: %v, %v", got, err)
	}
}

func testRecording() *domain.Recording {
	rec := &domain.Recording{
		RaceID:    "2Xk9sZQ0x7Yw3c5Lq1vBnRtUaFe",
		Track:     "oval",
		Racer:     "kartC",
		Timestamp: 1714564800,
		Laps:      3,
	}
	for i := 0; i < 5; i++ {
		rec.Frames = append(rec.Frames, domain.RecordingFrame{
			Tick:      int64(i + 1),
			ElapsedMs: int64(i * 16),
			X:         -30.2 + float64(i)*0.25,
			Z:         4.61 - float64(i)*0.5,
			Angle:     -90,
			Speed:     0.1 * float64(i),
			Lap:       int64(i / 2),
		})
	}
	return rec
}

func TestRecording_RoundTrip(t *testing.T) {
	svc, err := NewRecordingService(filepath.Join(t.TempDir(), "recordings"))
	if err != nil {
		t.Fatal(err)
	}

	want := testRecording()
	path, err := svc.Save(want)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(path, FileExt) {
		t.Errorf("path %q has no %s extension", path, FileExt)
	}

	got, err := svc.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RaceID != want.RaceID || got.Track != want.Track || got.Racer != want.Racer ||
		got.Timestamp != want.Timestamp || got.Laps != want.Laps {
		t.Errorf("header = %+v, want %+v", got, want)
	}
	if len(got.Frames) != len(want.Frames) {
		t.Fatalf("frames = %d, want %d", len(got.Frames), len(want.Frames))
	}
	for i := range want.Frames {
		if got.Frames[i] != want.Frames[i] {
			t.Errorf("frame %d = %+v, want %+v", i, got.Frames[i], want.Frames[i])
		}
	}
}

func TestRecording_SaveRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewRecordingService(filepath.Join(dir, "recordings"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		track string
		race  string
	}{
		{"track escapes dir", "../../evil", "race1"},
		{"track with separator", "a/b", "race1"},
		{"race id escapes dir", "oval", "../x"},
		{"empty track", "", "race1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecording()
			rec.Track, rec.RaceID = tt.track, tt.race
			if path, err := svc.Save(rec); !errors.Is(err, track.ErrBadName) {
				t.Errorf("Save() = %q %v, want ErrBadName", path, err)
			}
		})
	}

	if matches, _ := filepath.Glob(filepath.Join(dir, "*"+FileExt)); len(matches) != 0 {
		t.Errorf("files written outside recordings dir: %v", matches)
	}
}

func TestRecording_WriteFileErrors(t *testing.T) {
	dir := t.TempDir()

	if err := writeFile(filepath.Join(dir, "missing", "r"+FileExt), testRecording()); err == nil {
		t.Error("writeFile into missing dir must fail")
	}

	path := filepath.Join(dir, "ok"+FileExt)
	if err := writeFile(path, testRecording()); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	if _, err := (&RecordingService{}).Load(path); err != nil {
		t.Errorf("written file must load back: %v", err)
	}

	big := testRecording()
	big.Racer = strings.Repeat("r", 300)
	if err := writeFile(filepath.Join(dir, "big"+FileExt), big); err == nil {
		t.Error("writeFile must report encoding errors")
	}
}

func TestRecording_BadInput(t *testing.T) {
	var buf bytes.Buffer
	if err := writeBinary(&buf, testRecording()); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("XXXX"), data[4:]...)},
		{"truncated", data[:len(data)-3]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readBinary(bytes.NewReader(tt.data)); err == nil {
				t.Error("readBinary() must fail")
			}
		})
	}
}
