package engine

import (
	"errors"
	"fmt"

	"github.com/khushisaxena01/boomkart/internal/domain"
)

var ErrUnknownRacer = errors.New("unknown racer")

// SelectRacer - выбор гонщика с продолжением: next получает выбранного
// гонщика и решает, что делать дальше (одиночная гонка, хост, гость).
func SelectRacer(id string, next func(domain.Racer) error) error {
	racer, ok := domain.LookupRacer(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRacer, id)
	}
	if next == nil {
		return nil
	}
	return next(racer)
}
