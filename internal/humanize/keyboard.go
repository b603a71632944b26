// File: internal/humanize/keyboard.go
package humanize

import (
	"context"
	"fmt"
	"unicode"
)

// keyboardNeighbors maps a key to its physical neighbors on a QWERTY layout,
// used to pick plausible wrong characters for simulated typos.
var keyboardNeighbors = map[rune]string{
	'1': "2q`", '2': "13wq", '3': "24we", '4': "35er", '5': "46rt", '6': "57ty",
	'7': "68yu", '8': "79ui", '9': "80io", '0': "9-op",
	'q': "wa1s", 'w': "qase23", 'e': "wsdr34", 'r': "edft45", 't': "rfgy56",
	'y': "tghu67", 'u': "yhji78", 'i': "ujko89", 'o': "iklp90", 'p': "ol;0-",
	'a': "qwsz", 's': "awedxz", 'd': "serfcx", 'f': "drtgvc", 'g': "ftyhbv",
	'h': "gyujnb", 'j': "huikmn", 'k': "jiol,m", 'l': "kop;.",
	'z': "asx", 'x': "zsdc", 'c': "xdfv", 'v': "cfgb", 'b': "vghn", 'n': "bhjm", 'm': "njk,",
}

// Type clicks the target element to focus it and then sends the text one
// character at a time with randomized inter-keystroke delays. With probability
// cfg.TypoRate per character it first emits a neighboring wrong character and
// corrects it with a backspace before the intended one.
func (h *Humanizer) Type(ctx context.Context, selector, text string) error {
	if err := h.MoveAndClick(ctx, selector); err != nil {
		return fmt.Errorf("humanize: failed to focus %q: %w", selector, err)
	}
	if err := h.delayRangeMs(ctx, 300, 600); err != nil {
		return err
	}

	for _, r := range text {
		if err := h.Delay(ctx, h.cfg.KeyDelayMin, h.cfg.KeyDelayMax); err != nil {
			return err
		}

		if h.randFloat() < h.cfg.TypoRate {
			if err := h.stumble(ctx, r); err != nil {
				return err
			}
		}

		if err := h.exec.SendKeys(ctx, string(r)); err != nil {
			return fmt.Errorf("humanize: failed to send key %q: %w", r, err)
		}
	}

	return h.delayRangeMs(ctx, 200, 500)
}

// stumble emits one wrong character followed by a corrective backspace.
func (h *Humanizer) stumble(ctx context.Context, intended rune) error {
	wrong := h.wrongKeyFor(intended)
	if err := h.exec.SendKeys(ctx, string(wrong)); err != nil {
		return err
	}
	if err := h.delayRangeMs(ctx, 100, 300); err != nil {
		return err
	}
	if err := h.exec.SendKeys(ctx, KeyBackspace); err != nil {
		return err
	}
	return h.delayRangeMs(ctx, 150, 350)
}

// wrongKeyFor picks a plausible mistyped character for the intended rune,
// preferring a physical keyboard neighbor.
func (h *Humanizer) wrongKeyFor(intended rune) rune {
	lower := unicode.ToLower(intended)
	if neighbors, ok := keyboardNeighbors[lower]; ok {
		ns := []rune(neighbors)
		return ns[h.randIntn(len(ns))]
	}
	return rune('a' + h.randIntn(26))
}
