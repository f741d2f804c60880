package assessment

import (
	"math/rand"

	"github.com/ocrp-academy/trainportal/internal/bank"
)

// shuffleQuestions returns a uniform Fisher-Yates permutation of entries.
// The input slice is not modified.
func shuffleQuestions(rng *rand.Rand, entries []bank.Entry) []bank.Entry {
	out := append([]bank.Entry(nil), entries...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// shuffleOptions returns an independent permutation of each question's
// options, aligned by index with the question order.
func shuffleOptions(rng *rand.Rand, questions []bank.Entry) [][]string {
	out := make([][]string, len(questions))
	for qi, q := range questions {
		opts := append([]string(nil), q.Options...)
		for i := len(opts) - 1; i > 0; i-- {
			j := rng.Intn(i + 1)
			opts[i], opts[j] = opts[j], opts[i]
		}
		out[qi] = opts
	}
	return out
}
