// Package advice provides checkout suggestions for count-down games: the
// preferred dart combinations to finish from a given score. It is a read-only
// side concern and never touches engine state.
package advice

import "fmt"

const maxCheckout = 170

// checkouts maps a remaining score to its suggested finishes, best first.
// Scores 2-40 that are even are handled arithmetically (D{score/2}).
var checkouts = map[int][]string{
	41: {"9, D16"}, 42: {"10, D16"}, 43: {"11, D16"}, 44: {"12, D16"},
	45: {"13, D16"}, 46: {"14, D16"}, 47: {"15, D16"}, 48: {"16, D16"},
	49: {"17, D16"}, 50: {"18, D16", "Bull"}, 51: {"19, D16"}, 52: {"20, D16"},
	53: {"13, D20"}, 54: {"14, D20"}, 55: {"15, D20"}, 56: {"16, D20"},
	57: {"17, D20"}, 58: {"18, D20"}, 59: {"19, D20"}, 60: {"20, D20"},
	61: {"T15, D8"}, 62: {"T10, D16"}, 63: {"T13, D12"}, 64: {"T16, D8"},
	65: {"T11, D16"}, 66: {"T10, D18"}, 67: {"T17, D8"}, 68: {"T20, D4"},
	69: {"T19, D6"}, 70: {"T18, D8"}, 71: {"T13, D16"}, 72: {"T16, D12"},
	73: {"T19, D8"}, 74: {"T14, D16"}, 75: {"T17, D12"}, 76: {"T20, D8"},
	77: {"T19, D10"}, 78: {"T18, D12"}, 79: {"T13, D20"}, 80: {"T20, D10"},
	81: {"T19, D12"}, 82: {"T14, D20", "Bull, D16"}, 83: {"T17, D16"},
	84: {"T20, D12"}, 85: {"T15, D20"}, 86: {"T18, D16"}, 87: {"T17, D18"},
	88: {"T20, D14"}, 89: {"T19, D16"}, 90: {"T20, D15"}, 91: {"T17, D20"},
	92: {"T20, D16"}, 93: {"T19, D18"}, 94: {"T18, D20"}, 95: {"T19, D19"},
	96: {"T20, D18"}, 97: {"T19, D20"}, 98: {"T20, D19"}, 100: {"T20, D20"},
	101: {"T17, Bull"}, 104: {"T18, Bull"}, 107: {"T19, Bull"}, 110: {"T20, Bull"},
	111: {"T19, T14, D6"}, 112: {"T20, T12, D8"}, 113: {"T19, T16, D7"},
	114: {"T20, T14, D6"}, 115: {"T19, T18, D4"}, 116: {"T20, T16, D4"},
	117: {"T20, T17, D3"}, 118: {"T20, T18, D2"}, 119: {"T19, T12, D13"},
	120: {"T20, 20, D20"}, 121: {"T17, T10, D20"}, 122: {"T18, T18, D7"},
	123: {"T19, T16, D9"}, 124: {"T20, T14, D11"}, 125: {"T18, T11, D16"},
	126: {"T19, T19, D6"}, 127: {"T20, T17, D8"}, 128: {"T18, T14, D13"},
	129: {"T19, T16, D12"}, 130: {"T20, T20, D5"}, 131: {"T20, T13, D16"},
	132: {"T20, T16, D12"}, 133: {"T20, T19, D8"}, 134: {"T20, T14, D16"},
	135: {"T20, T17, D12"}, 136: {"T20, T20, D8"}, 137: {"T20, T19, D10"},
	138: {"T20, T18, D12"}, 139: {"T20, T13, D20"}, 140: {"T20, T20, D10"},
	141: {"T20, T19, D12"}, 142: {"T20, T14, D20"}, 143: {"T20, T17, D16"},
	144: {"T20, T20, D12"}, 145: {"T20, T15, D20"}, 146: {"T20, T18, D16"},
	147: {"T20, T17, D18"}, 148: {"T20, T20, D14"}, 149: {"T20, T19, D16"},
	150: {"T20, T20, D15"}, 151: {"T20, T17, D20"}, 152: {"T20, T20, D16"},
	153: {"T20, T19, D18"}, 154: {"T20, T18, D20"}, 155: {"T20, T19, D19"},
	156: {"T20, T20, D18"}, 157: {"T20, T19, D20"}, 158: {"T20, T20, D19"},
	160: {"T20, T20, D20"}, 161: {"T20, T17, Bull"}, 164: {"T20, T18, Bull"},
	167: {"T20, T19, Bull"}, 170: {"T20, T20, Bull"},
}

// ForScore returns finish suggestions for a remaining score, best first, or
// nil when the score has no checkout (1, non-finishable totals above 158, or
// anything outside 2-170).
func ForScore(score int) []string {
	if score < 2 || score > maxCheckout {
		return nil
	}

	if options, ok := checkouts[score]; ok {
		out := make([]string, len(options))
		copy(out, options)
		return out
	}

	if score <= 40 && score%2 == 0 {
		return []string{fmt.Sprintf("D%d", score/2)}
	}

	return nil
}
