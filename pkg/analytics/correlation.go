package analytics

// correlationInput is what the correlation rules look at: how the notes
// on done days lean, and the overall average sentiment.
type correlationInput struct {
	done         int
	donePositive int
	doneNegative int
	averageScore float64
	keywords     []string
}

func (in correlationInput) donePositiveRate() float64 {
	if in.done == 0 {
		return 0
	}
	return float64(in.donePositive) / float64(in.done)
}

type correlationRule struct {
	matches func(correlationInput) bool
	message func(correlationInput) string
}

// correlationRules are evaluated in order; the first match wins.
var correlationRules = []correlationRule{
	{
		matches: func(in correlationInput) bool { return in.done == 0 },
		message: func(in correlationInput) string {
			return "You haven't completed this habit recently. " + outlookRemark(in.averageScore)
		},
	},
	{
		matches: func(in correlationInput) bool { return in.donePositiveRate() > 0.6 },
		message: func(correlationInput) string {
			return "You tend to feel accomplished when you complete this habit."
		},
	},
	{
		matches: func(in correlationInput) bool {
			return in.donePositiveRate() < 0.3 && in.doneNegative > in.donePositive
		},
		message: func(correlationInput) string {
			return "This habit seems to feel challenging even on days you complete it. Consider adjusting it to make it more manageable."
		},
	},
	{
		matches: func(in correlationInput) bool { return in.averageScore > 1 },
		message: func(correlationInput) string {
			return "Your notes reflect a generally positive outlook on this habit."
		},
	},
	{
		matches: func(in correlationInput) bool { return in.averageScore < -1 },
		message: func(correlationInput) string {
			return "Your notes suggest some frustration with this habit."
		},
	},
	{
		matches: func(correlationInput) bool { return true },
		message: func(correlationInput) string {
			return "You've been tracking consistently, with mixed experiences along the way."
		},
	},
}

func correlationText(in correlationInput) string {
	for _, rule := range correlationRules {
		if rule.matches(in) {
			return rule.message(in) + themesClause(in.keywords)
		}
	}
	return themesClause(in.keywords)
}

func outlookRemark(avg float64) string {
	switch {
	case avg > 0:
		return "Your notes still sound hopeful."
	case avg < 0:
		return "Your notes suggest it has been a tough stretch."
	default:
		return "Keep noting how things go."
	}
}
