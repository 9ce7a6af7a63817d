package confirmcode

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var ErrInvalidLength = errors.New("confirmcode: length must be between 1 and 18")

// Generate возвращает случайный числовой код заданной длины (с ведущими нулями)
// Источник случайности crypto/rand, распределение равномерное
func Generate(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", ErrInvalidLength
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("confirmcode: read random: %w", err)
	}

	code := n.String()
	return strings.Repeat("0", length-len(code)) + code, nil
}
