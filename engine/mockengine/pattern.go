package mockengine

import (
	"math/rand"
	"strings"

	"github.com/periplon/metis/engine/config"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// pattern expands cfg.Pattern, a tiny regex-like mini-language (spec.md
// §4.1's Pattern strategy): `\d` emits one random digit, `\w` one random
// ASCII letter, `\\x` the literal character x, everything else is literal.
// This is intentionally not full regex, so no third-party engine fits; a
// hand-rolled scanner is the correct tool here.
func (e *Engine) pattern(cfg *config.MockConfig) (any, error) {
	var b strings.Builder
	runes := []rune(cfg.Pattern)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 >= len(runes) {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'd':
			b.WriteByte(byte('0' + rand.Intn(10)))
		case 'w':
			b.WriteByte(letters[rand.Intn(len(letters))])
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String(), nil
}
