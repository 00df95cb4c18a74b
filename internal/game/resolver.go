package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lmercadier/moneydrop/internal/question"
)

// BetMap allocates chips across the four answer keys.
type BetMap map[question.AnswerKey]int

// Normalized returns a copy with every answer key present, missing keys set
// to zero.
func (b BetMap) Normalized() BetMap {
	out := make(BetMap, len(question.Keys))
	for _, k := range question.Keys {
		out[k] = b[k]
	}
	return out
}

// Total sums all amounts over the four keys.
func (b BetMap) Total() int {
	total := 0
	for _, k := range question.Keys {
		total += b[k]
	}
	return total
}

// ZeroBets is the bet an absent player is resolved with.
func ZeroBets() BetMap {
	return BetMap{}.Normalized()
}

// Resolution records the outcome of one betting round for one player.
type Resolution struct {
	Correct      question.AnswerKey `json:"correct"`
	CorrectLabel string             `json:"correct_label"`
	Kept         int                `json:"kept"`
	Lost         int                `json:"lost"`
	BetTotal     int                `json:"bet_total"`
	Unbet        int                `json:"unbet"`
	Explanation  string             `json:"explanation"`
	CorrectBet   int                `json:"correct_bet"`
}

// AnsweredCorrectly reports whether the player backed the correct answer
// with at least one chip.
func (r Resolution) AnsweredCorrectly() bool {
	return r.CorrectBet > 0
}

// Resolve computes the outcome of one round. It is deterministic and
// side-effect free: every mode applies the returned Resolution itself.
//
// Chips placed on wrong answers are lost. Chips on the correct answer are
// kept, together with any chips left unbet. With mustUseAll, the bet total
// must equal the available balance exactly.
func Resolve(available int, q question.Question, bets BetMap, mustUseAll bool) (Resolution, error) {
	bets = bets.Normalized()

	for _, k := range question.Keys {
		if bets[k] < 0 {
			return Resolution{}, fmt.Errorf("%w: %s=%d", ErrNegativeBet, k, bets[k])
		}
	}

	betTotal := bets.Total()
	if betTotal > available {
		return Resolution{}, fmt.Errorf("%w: %d > %d", ErrBetOverBudget, betTotal, available)
	}
	if mustUseAll && betTotal != available {
		return Resolution{}, fmt.Errorf("%w: bet %d of %d", ErrMustBetAll, betTotal, available)
	}

	unbet := available - betTotal
	correctBet := bets[q.Correct]

	return Resolution{
		Correct:      q.Correct,
		CorrectLabel: q.CorrectLabel(),
		Kept:         correctBet + unbet,
		Lost:         betTotal - correctBet,
		BetTotal:     betTotal,
		Unbet:        unbet,
		Explanation:  q.Explanation,
		CorrectBet:   correctBet,
	}, nil
}

// ParseBets reads a bet line in either "A=200 B=300 C=0 D=50" or
// "A 200 B 300" form. Commas and semicolons act as separators, the last
// occurrence of a key wins, missing keys default to zero.
func ParseBets(raw string) (BetMap, error) {
	cleaned := strings.NewReplacer(",", " ", ";", " ").Replace(raw)
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty bet")
	}

	type pair struct{ key, val string }
	var pairs []pair
	for _, tok := range tokens {
		if left, right, ok := strings.Cut(tok, "="); ok {
			pairs = append(pairs, pair{strings.TrimSpace(left), strings.TrimSpace(right)})
		}
	}
	if len(pairs) == 0 {
		if len(tokens)%2 != 0 {
			return nil, fmt.Errorf("expected format: A=10 B=20 ... or A 10 B 20 ...")
		}
		for i := 0; i < len(tokens); i += 2 {
			pairs = append(pairs, pair{tokens[i], tokens[i+1]})
		}
	}

	bets := ZeroBets()
	for _, p := range pairs {
		key, err := question.ParseKey(strings.ToUpper(p.key))
		if err != nil {
			return nil, fmt.Errorf("unknown slot %q (use A/B/C/D)", p.key)
		}
		value, err := strconv.Atoi(p.val)
		if err != nil {
			return nil, fmt.Errorf("amount %q is not an integer", p.val)
		}
		if value < 0 {
			return nil, ErrNegativeBet
		}
		bets[key] = value
	}
	return bets, nil
}
