package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/internal/infrastructure/storage"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	switch os.Args[1] {
	case "format":
		if len(os.Args) < 3 {
			fmt.Println("Usage: boardutil format <milliseconds>")
			return
		}
		ms, err := strconv.ParseInt(os.Args[2], 10, 64)
		if err != nil {
			fmt.Printf("Invalid time: %v\n", err)
			return
		}
		fmt.Println(formatMs(ms))
	case "track":
		if len(os.Args) < 4 {
			fmt.Println("Usage: boardutil track <data_dir> <track>")
			return
		}
		withBoard(os.Args[2], func(lb *storage.Leaderboard) error {
			entries, err := lb.TrackEntries(os.Args[3])
			if err != nil {
				return err
			}
			printEntries(entries)
			return nil
		})
	case "records":
		if len(os.Args) < 4 {
			fmt.Println("Usage: boardutil records <data_dir> <laps>")
			return
		}
		laps, err := strconv.Atoi(os.Args[3])
		if err != nil {
			fmt.Printf("Invalid laps: %v\n", err)
			return
		}
		withBoard(os.Args[2], func(lb *storage.Leaderboard) error {
			recs, err := lb.LapRecords(laps, storage.MaxEntries)
			if err != nil {
				return err
			}
			for i, r := range recs {
				fmt.Printf("%2d. %-10s %s  %-8s %s\n", i+1, r.Track, formatMs(r.Time), r.Racer, r.Date)
			}
			return nil
		})
	case "multi":
		if len(os.Args) < 3 {
			fmt.Println("Usage: boardutil multi <data_dir>")
			return
		}
		withBoard(os.Args[2], func(lb *storage.Leaderboard) error {
			all, err := lb.MultiplayerEntries()
			if err != nil {
				return err
			}
			tracks := make([]string, 0, len(all))
			for t := range all {
				tracks = append(tracks, t)
			}
			sort.Strings(tracks)
			for _, t := range tracks {
				fmt.Printf("[%s]\n", t)
				printEntries(all[t])
			}
			return nil
		})
	default:
		printHelp()
	}
}

func withBoard(dir string, fn func(*storage.Leaderboard) error) {
	lb, err := storage.OpenLeaderboard(dir)
	if err != nil {
		fmt.Printf("Cannot open leaderboard: %v\n", err)
		return
	}
	defer lb.Close()
	if err := fn(lb); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func printEntries(entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, e := range entries {
		mode := "solo"
		if e.Multiplayer {
			mode = "multi"
		}
		fmt.Printf("%2d. %s  %-8s laps=%d %-5s %s\n", i+1, formatMs(e.Time), e.Racer, e.Laps, mode, e.Date)
	}
}

// formatMs - M:SS.mmm
func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d.%03d", int(d.Minutes()), int(d.Seconds())%60, ms%1000)
}

func printHelp() {
	fmt.Println(`Board Utility - просмотр таблицы рекордов
Commands:
  format <ms>              - миллисекунды в формат M:SS.mmm
  track <data_dir> <name>  - рекорды трека
  records <data_dir> <laps> - лучшие результаты на N кругов по всем трекам
  multi <data_dir>         - сетевые заезды по трекам`)
}
