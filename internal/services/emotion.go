package services

import (
	"math"
	"strings"
	"unicode/utf8"
)

const (
	EmotionHappy   = "feliz"
	EmotionCalm    = "tranquilo"
	EmotionSad     = "triste"
	EmotionAnxious = "ansioso"
	EmotionAngry   = "irritado"
	EmotionNeutral = "neutro"
)

const (
	RoleUserTurn      = "user"
	RoleAssistantTurn = "assistant"
)

// neutralScore is returned when a transcript carries no emotional signal.
const neutralScore = 7.0

// shortTranscriptChars is the user-text length under which a negative
// conversation loses one extra point.
const shortTranscriptChars = 50

// Turn is one message of a chat transcript.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// EmotionCategory groups the keywords that signal one emotion.
type EmotionCategory struct {
	Label    string
	Positive bool
	Keywords []string
	// Clamp bounds the base score once this category dominates.
	Clamp func(score float64) float64
}

// emotionLexicon order is significant: ties on hit count resolve to the
// earliest category.
var emotionLexicon = []EmotionCategory{
	{
		Label:    EmotionHappy,
		Positive: true,
		Keywords: []string{"bem", "bom", "ótimo", "feliz", "alegre", "animado", "legal", "adorei", "incrível", "maravilhoso", "contente", "satisfeito"},
		Clamp:    func(s float64) float64 { return math.Max(s, 8) },
	},
	{
		Label:    EmotionCalm,
		Positive: true,
		Keywords: []string{"tranquilo", "calmo", "relaxado", "paz", "sereno", "equilibrado"},
		Clamp:    func(s float64) float64 { return math.Max(s, 7.5) },
	},
	{
		Label:    EmotionSad,
		Keywords: []string{"triste", "mal", "ruim", "deprimido", "sozinho", "perdido", "desanimado", "chateado"},
		Clamp:    func(s float64) float64 { return math.Min(s, 4) },
	},
	{
		Label:    EmotionAnxious,
		Keywords: []string{"ansioso", "preocupado", "estressado", "nervoso", "tenso", "angústia", "pânico", "inseguro"},
		Clamp:    func(s float64) float64 { return math.Min(s, 5) },
	},
	{
		Label:    EmotionAngry,
		Keywords: []string{"irritado", "raiva", "ódio", "bravo", "furioso", "frustrado"},
		Clamp:    func(s float64) float64 { return math.Min(s, 4.5) },
	},
}

// Analysis is the outcome of scoring a transcript.
type Analysis struct {
	Score          float64 `json:"score"`           // 0..10, one decimal
	Emotion        string  `json:"emotion"`         // dominant category or neutro
	SentimentScore float64 `json:"sentiment_score"` // -1..1, two decimals
}

func neutralAnalysis() Analysis {
	return Analysis{Score: neutralScore, Emotion: EmotionNeutral, SentimentScore: 0}
}

// AnalyzeTranscript scores the user-authored turns of a conversation. It is
// a pure function: identical input always yields identical output.
//
// Matching is substring based: a word counts for a category when it contains
// any of the category keywords, so a single word can hit several categories.
func AnalyzeTranscript(turns []Turn) Analysis {
	userTexts := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.Role == RoleUserTurn {
			userTexts = append(userTexts, t.Content)
		}
	}
	if len(userTexts) == 0 {
		return neutralAnalysis()
	}

	counts := make([]int, len(emotionLexicon))
	positive, negative := 0, 0

	for _, text := range userTexts {
		for _, word := range strings.Fields(strings.ToLower(text)) {
			for i, category := range emotionLexicon {
				if !containsAny(word, category.Keywords) {
					continue
				}
				counts[i]++
				if category.Positive {
					positive++
				} else {
					negative++
				}
			}
		}
	}

	dominant := -1
	maxCount := 0
	for i, n := range counts {
		if n > maxCount {
			maxCount = n
			dominant = i
		}
	}

	sentiment := 0.0
	total := positive + negative
	if total > 0 {
		sentiment = float64(positive-negative) / float64(total)
	}

	score := neutralScore
	if total > 0 {
		score = 5 + sentiment*5
	}

	emotion := EmotionNeutral
	if dominant >= 0 {
		emotion = emotionLexicon[dominant].Label
		score = emotionLexicon[dominant].Clamp(score)
	}

	if utf8.RuneCountInString(strings.Join(userTexts, " ")) < shortTranscriptChars && negative > 0 {
		score = math.Max(score-1, 0)
	}

	score = math.Max(0, math.Min(10, score))

	return Analysis{
		Score:          roundHalfUp(score, 1),
		Emotion:        emotion,
		SentimentScore: roundHalfUp(sentiment, 2),
	}
}

func containsAny(word string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(word, k) {
			return true
		}
	}
	return false
}

// roundHalfUp rounds to the given number of decimals with ties going toward
// +Inf, so -0.125 becomes -0.12.
func roundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Floor(v*p+0.5) / p
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}
