package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Заполняются через -ldflags "-X .../version.BuildDate=2026-01-15" и т.д.
var (
	BuildDate   string // YYYY-MM-DD (UTC)
	BuildCommit string
	BuildBranch string
	BuildCI     string
)

const (
	// Product - имя клиента и релея в User-Agent и логах.
	Product = "boomkart"

	// Protocol - версия протокола релея (конверты open/data/close/error).
	// Поднимается при любом несовместимом изменении формата.
	Protocol = 1

	protoToken = "relay/"
)

// Номер сборки - число дней от первого релиза.
var firstRelease = time.Date(2025, time.December, 4, 0, 0, 0, 0, time.UTC)

var (
	ErrNoBuildDate = errors.New("build date not set")
	ErrEarlyBuild  = errors.New("build date precedes first release")
)

// Build - метаданные сборки. Отдается релеем на /version.
type Build struct {
	Product  string `json:"product"`
	Number   int    `json:"build"`
	Date     string `json:"date,omitempty"`
	Commit   string `json:"commit,omitempty"`
	Branch   string `json:"branch,omitempty"`
	CI       string `json:"ci,omitempty"`
	Protocol int    `json:"protocol"`
	// Dev - дата сборки не задана или битая, Number не определен.
	Dev    bool   `json:"dev"`
	Reason string `json:"reason,omitempty"`
}

func BuildNumber() (int, error) {
	if BuildDate == "" {
		return 0, ErrNoBuildDate
	}
	day, err := time.ParseInLocation(time.DateOnly, BuildDate, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("build date %q: %w", BuildDate, err)
	}
	if day.Before(firstRelease) {
		return 0, fmt.Errorf("%s: %w", BuildDate, ErrEarlyBuild)
	}
	return int(day.Sub(firstRelease).Hours()) / 24, nil
}

func Info() Build {
	b := Build{
		Product:  Product,
		Date:     BuildDate,
		Commit:   BuildCommit,
		Branch:   BuildBranch,
		CI:       BuildCI,
		Protocol: Protocol,
	}
	n, err := BuildNumber()
	if err != nil {
		b.Dev = true
		b.Reason = err.Error()
		return b
	}
	b.Number = n
	return b
}

// String - строка для лога при старте.
func String() string {
	b := Info()
	var sb strings.Builder
	sb.WriteString(Product)
	if b.Dev {
		fmt.Fprintf(&sb, " dev build (%s)", b.Reason)
	} else {
		fmt.Fprintf(&sb, " build %d from %s", b.Number, b.Date)
	}
	fmt.Fprintf(&sb, ", relay protocol v%d", b.Protocol)
	if b.Commit != "" {
		fmt.Fprintf(&sb, ", commit %s", b.Commit)
	}
	if b.Branch != "" {
		fmt.Fprintf(&sb, " on %s", b.Branch)
	}
	if b.CI != "" {
		fmt.Fprintf(&sb, " (ci %s)", b.CI)
	}
	return sb.String()
}

// UserAgent - заголовок клиента при подключении к релею:
// "boomkart/<build|dev> relay/<protocol>".
func UserAgent() string {
	b := Info()
	build := "dev"
	if !b.Dev {
		build = strconv.Itoa(b.Number)
	}
	return fmt.Sprintf("%s/%s %s%d", Product, build, protoToken, b.Protocol)
}

// PeerProtocol достает версию протокола из User-Agent клиента.
// false - клиент ее не объявил (браузер, curl).
func PeerProtocol(userAgent string) (int, bool) {
	for _, field := range strings.Fields(userAgent) {
		rest, found := strings.CutPrefix(field, protoToken)
		if !found {
			continue
		}
		v, err := strconv.Atoi(rest)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// Compatible - релей пускает клиентов без версии и с той же версией.
func Compatible(userAgent string) bool {
	v, ok := PeerProtocol(userAgent)
	return !ok || v == Protocol
}
