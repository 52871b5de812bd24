package storage

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/khushisaxena01/boomkart/internal/domain"
	"github.com/khushisaxena01/boomkart/pkg/logger"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// LeaderboardKey - единственный ключ таблицы рекордов в хранилище.
	LeaderboardKey = "boomkart_leaderboard"
	// MaxEntries на один трек
	MaxEntries = 10
)

// board - значение по ключу: трек -> записи по возрастанию времени.
type board map[string][]domain.LeaderboardEntry

// Record - запись сводной таблицы по всем трекам.
type Record struct {
	Track string
	domain.LeaderboardEntry
}

// Leaderboard хранит рекорды в badger, значение кодируется msgpack.
type Leaderboard struct {
	db  *badger.DB
	key []byte
	own bool
}

// OpenLeaderboard открывает (или создает) базу в каталоге dir.
func OpenLeaderboard(dir string) (*Leaderboard, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(logger.Component("badger")).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open leaderboard %s: %w", dir, err)
	}
	lb := NewLeaderboard(db)
	lb.own = true
	return lb, nil
}

// NewLeaderboard работает поверх уже открытой базы и не закрывает ее.
func NewLeaderboard(db *badger.DB) *Leaderboard {
	return &Leaderboard{db: db, key: []byte(LeaderboardKey)}
}

func (l *Leaderboard) Close() error {
	if !l.own {
		return nil
	}
	return l.db.Close()
}

// SaveTime добавляет результат, держит порядок и обрезает до MaxEntries.
func (l *Leaderboard) SaveTime(track string, e domain.LeaderboardEntry) error {
	return l.db.Update(func(txn *badger.Txn) error {
		all, err := l.load(txn)
		if err != nil {
			return err
		}

		entries := append(all[track], e)
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time < entries[j].Time })
		if len(entries) > MaxEntries {
			entries = entries[:MaxEntries]
		}
		all[track] = entries

		buf, err := msgpack.Marshal(all)
		if err != nil {
			return fmt.Errorf("failed to marshal leaderboard: %w", err)
		}
		return txn.Set(l.key, buf)
	})
}

// TrackEntries - записи трека по возрастанию времени.
func (l *Leaderboard) TrackEntries(track string) ([]domain.LeaderboardEntry, error) {
	all, err := l.view()
	if err != nil {
		return nil, err
	}
	return all[track], nil
}

// BestFor - лучший результат трека для заданного числа кругов.
func (l *Leaderboard) BestFor(track string, laps int) (domain.LeaderboardEntry, bool, error) {
	entries, err := l.TrackEntries(track)
	if err != nil {
		return domain.LeaderboardEntry{}, false, err
	}
	for _, e := range entries {
		if e.Laps == laps {
			return e, true, nil
		}
	}
	return domain.LeaderboardEntry{}, false, nil
}

// MultiplayerEntries - только сетевые заезды, по трекам.
func (l *Leaderboard) MultiplayerEntries() (map[string][]domain.LeaderboardEntry, error) {
	all, err := l.view()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.LeaderboardEntry)
	for track, entries := range all {
		for _, e := range entries {
			if e.Multiplayer {
				out[track] = append(out[track], e)
			}
		}
	}
	return out, nil
}

// LapRecords - лучшие n результатов на laps кругов по всем трекам.
func (l *Leaderboard) LapRecords(laps, n int) ([]Record, error) {
	all, err := l.view()
	if err != nil {
		return nil, err
	}

	var out []Record
	for track, entries := range all {
		for _, e := range entries {
			if e.Laps == laps {
				out = append(out, Record{Track: track, LeaderboardEntry: e})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Track < out[j].Track
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (l *Leaderboard) view() (board, error) {
	var all board
	err := l.db.View(func(txn *badger.Txn) error {
		var err error
		all, err = l.load(txn)
		return err
	})
	return all, err
}

func (l *Leaderboard) load(txn *badger.Txn) (board, error) {
	item, err := txn.Get(l.key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return board{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	var all board
	if err := item.Value(func(val []byte) error {
		return msgpack.Unmarshal(val, &all)
	}); err != nil {
		return nil, fmt.Errorf("corrupt leaderboard value: %w", err)
	}
	if all == nil {
		all = board{}
	}
	return all, nil
}
