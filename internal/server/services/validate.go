package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/oakboard/internal/common"
)

// Column limits from the schema.
const (
	maxUsernameLength = 50
	maxEmailLength    = 255
	maxTitleLength    = 200
)

// requireText trims s and checks it is non-empty and at most max runes
// (max <= 0 means unlimited).
func requireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", common.ErrorValidation, field)
	}
	if max > 0 && utf8.RuneCountInString(s) > max {
		return "", fmt.Errorf("%w: %s is longer than %d characters", common.ErrorValidation, field, max)
	}
	return s, nil
}
