// Package urgency scores customer messages 0-100 by a weighted keyword and
// phrase scan. The function is deterministic and stateless; a message's
// score is computed once at ingestion and never recomputed.
package urgency

import "strings"

const (
	baseScore = 20
	maxScore  = 100

	phraseWeight   = 30
	criticalWeight = 20
	highWeight     = 15
	mediumWeight   = 5
	mediumCap      = 15

	timingLoanBonus  = 20
	exclamationBonus = 3
	exclamationCap   = 10
	capsBonus        = 10
	capsThreshold    = 0.3
)

// Multi-word cues about loan approval or disbursement timing. Phrases weigh
// more than any single keyword.
var criticalPhrases = []string{
	"when will my loan",
	"when can i get",
	"loan approval",
	"loan disbursement",
	"when will it be",
	"how long until",
	"need the money",
	"urgent need",
}

var criticalKeywords = []string{
	"approval",
	"approve",
	"disburse",
	"disbursement",
	"disbursed",
	"when will",
	"when can",
	"how long",
	"urgent",
	"asap",
	"as soon as",
	"emergency",
	"need immediately",
	"must",
	"critical",
	"important",
	"time sensitive",
}

var highKeywords = []string{
	"loan status",
	"application status",
	"pending",
	"rejected",
	"denied",
	"payment due",
	"overdue",
	"late payment",
	"default",
	"collection",
	"fraud",
	"unauthorized",
	"hacked",
	"stolen",
}

var mediumKeywords = []string{
	"update",
	"change",
	"edit",
	"modify",
	"application",
	"status",
	"loan",
	"account",
	"information",
	"details",
	"verify",
	"confirm",
}

// Bonus per loan-status label; unrecognized or absent labels contribute zero.
var loanStatusBonus = map[string]int{
	"pending_approval": 25,
	"approved":         20,
	"disbursed":        10,
	"rejected":         15,
}

// Score returns an urgency estimate in [0,100] for a customer message.
// loanStatus is the customer's loan-status label at the time of scoring and
// may be empty. Each distinct keyword or phrase counts at most once no
// matter how often it occurs.
func Score(content, loanStatus string) int {
	score := baseScore
	lower := strings.ToLower(content)

	for _, phrase := range criticalPhrases {
		if strings.Contains(lower, phrase) {
			score += phraseWeight
		}
	}

	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			score += criticalWeight
		}
	}

	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			score += highWeight
		}
	}

	medium := 0
	for _, kw := range mediumKeywords {
		if strings.Contains(lower, kw) {
			medium += mediumWeight
		}
	}
	if medium > mediumCap {
		medium = mediumCap
	}
	score += medium

	score += loanStatusBonus[loanStatus]

	// A timing question about a loan stacks on top of the per-keyword
	// bonuses already awarded for the same words.
	timing := strings.Contains(lower, "when") || strings.Contains(lower, "how long")
	loanCue := strings.Contains(lower, "loan") || strings.Contains(lower, "approval") || strings.Contains(lower, "disburs")
	if timing && loanCue {
		score += timingLoanBonus
	}

	exclamations := strings.Count(content, "!") * exclamationBonus
	if exclamations > exclamationCap {
		exclamations = exclamationCap
	}
	score += exclamations

	if capsRatio(content) > capsThreshold {
		score += capsBonus
	}

	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}
	return score
}

func capsRatio(content string) float64 {
	if len(content) == 0 {
		return 0
	}
	caps := 0
	for _, r := range content {
		if r >= 'A' && r <= 'Z' {
			caps++
		}
	}
	return float64(caps) / float64(len(content))
}
