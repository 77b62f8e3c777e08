package simpleingest

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

const (
	maxKeywords        = 20
	maxTopics          = 3
	minKeywordLength   = 3
	scriptRatioCutoff  = 0.3
	neutralConfidence  = 0.3
	entityConfidence   = 0.85
	mentionsConfidence = 0.9
)

var (
	urlRe             = regexp.MustCompile(`https?://[^\s<>"']+`)
	emailRe           = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	mentionsExtractRe = regexp.MustCompile(`@[\p{L}\p{N}_.]{1,30}`)
	hashtagRe         = regexp.MustCompile(`#[\p{L}\p{N}_]{1,50}`)
	nonWordRe         = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	sentenceSplitRe   = regexp.MustCompile(`[.!?]+`)
	paragraphSplitRe  = regexp.MustCompile(`\n{2,}`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "his": {}, "has": {}, "had": {}, "how": {},
	"who": {}, "its": {}, "this": {}, "that": {}, "with": {}, "from": {},
	"they": {}, "will": {}, "have": {}, "what": {}, "when": {}, "were": {},
	"been": {}, "their": {}, "there": {}, "would": {}, "could": {},
	"should": {}, "about": {}, "which": {}, "into": {}, "more": {},
	"some": {}, "them": {}, "then": {}, "than": {}, "also": {}, "just": {},
	"over": {}, "only": {}, "very": {}, "your": {}, "like": {}, "after": {},
}

// topicCategories maps a category to its indicator keywords. A category's
// confidence is matched/total, capped at 1.0.
var topicCategories = map[string][]string{
	"technology":    {"software", "computer", "internet", "code", "data", "tech", "digital", "app", "device", "startup"},
	"sports":        {"game", "team", "player", "season", "score", "match", "league", "coach", "championship", "tournament"},
	"entertainment": {"movie", "film", "show", "actor", "series", "celebrity", "theater", "episode", "premiere", "award"},
	"politics":      {"government", "election", "policy", "vote", "president", "senate", "law", "campaign", "congress", "minister"},
	"business":      {"market", "company", "stock", "economy", "revenue", "investment", "trade", "profit", "finance", "customer"},
	"health":        {"health", "doctor", "medical", "fitness", "diet", "exercise", "disease", "therapy", "wellness", "hospital"},
	"travel":        {"travel", "trip", "flight", "hotel", "vacation", "destination", "tourism", "beach", "adventure", "journey"},
	"food":          {"food", "recipe", "restaurant", "cooking", "meal", "chef", "dinner", "taste", "kitchen", "baking"},
	"science":       {"research", "study", "science", "experiment", "theory", "discovery", "physics", "biology", "climate", "space"},
	"music":         {"music", "song", "album", "band", "concert", "artist", "melody", "guitar", "playlist", "lyrics"},
}

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "awesome": {}, "excellent": {}, "happy": {},
	"love": {}, "wonderful": {}, "amazing": {}, "fantastic": {}, "best": {},
	"beautiful": {}, "enjoy": {}, "perfect": {}, "brilliant": {}, "glad": {},
	"excited": {}, "fun": {}, "nice": {}, "win": {}, "success": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "terrible": {}, "awful": {}, "horrible": {}, "sad": {},
	"hate": {}, "worst": {}, "angry": {}, "disappointed": {}, "broken": {},
	"fail": {}, "failure": {}, "poor": {}, "wrong": {}, "annoying": {},
	"ugly": {}, "boring": {}, "lose": {}, "loss": {}, "problem": {},
}

// scriptLanguages maps a unicode script to the language code reported when
// that script dominates the text.
var scriptLanguages = []struct {
	ranges []*unicode.RangeTable
	code   string
}{
	{[]*unicode.RangeTable{unicode.Han}, "zh"},
	{[]*unicode.RangeTable{unicode.Hiragana, unicode.Katakana}, "ja"},
	{[]*unicode.RangeTable{unicode.Hangul}, "ko"},
	{[]*unicode.RangeTable{unicode.Cyrillic}, "ru"},
	{[]*unicode.RangeTable{unicode.Arabic}, "ar"},
	{[]*unicode.RangeTable{unicode.Devanagari}, "hi"},
	{[]*unicode.RangeTable{unicode.Greek}, "el"},
	{[]*unicode.RangeTable{unicode.Latin}, "en"},
}

var videoDomains = map[string]struct{}{
	"youtube.com": {}, "www.youtube.com": {}, "youtu.be": {},
	"vimeo.com": {}, "twitch.tv": {}, "www.twitch.tv": {},
}

var socialDomains = map[string]struct{}{
	"twitter.com": {}, "x.com": {}, "facebook.com": {}, "www.facebook.com": {},
	"instagram.com": {}, "www.instagram.com": {}, "tiktok.com": {},
	"www.tiktok.com": {}, "linkedin.com": {}, "www.linkedin.com": {},
	"reddit.com": {}, "www.reddit.com": {},
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

var documentExtensions = []string{".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx"}

// Extractor derives semantic metadata from a submission's textual surface.
// It is a pure function over the concatenation of text, link URL, poll
// options, tags and mentions.
type Extractor struct{}

// NewExtractor creates a metadata extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes all metadata for a submission.
func (e *Extractor) Extract(sub ContentSubmission) ExtractedMetadata {
	surface := textSurface(sub)

	return ExtractedMetadata{
		Keywords:  extractKeywords(surface),
		Topics:    extractTopics(surface),
		Entities:  extractEntities(surface),
		Links:     extractLinks(surface),
		Mentions:  extractMentions(surface),
		Hashtags:  extractHashtags(surface),
		Language:  detectLanguage(surface),
		Sentiment: analyzeSentiment(surface),
		Metrics:   computeMetrics(sub.Text),
	}
}

// textSurface concatenates every textual field of the submission.
func textSurface(sub ContentSubmission) string {
	parts := []string{sub.Text}
	if sub.LinkURL != "" {
		parts = append(parts, sub.LinkURL)
	}
	if sub.Poll != nil {
		parts = append(parts, sub.Poll.Options...)
	}
	parts = append(parts, sub.Tags...)
	parts = append(parts, sub.Mentions...)
	return strings.Join(parts, "\n")
}

func extractKeywords(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, tok := range nonWordRe.Split(strings.ToLower(text), -1) {
		if len([]rune(tok)) < minKeywordLength {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// Stable rank: frequency desc, then first appearance.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

func extractTopics(text string) []Topic {
	lower := strings.ToLower(text)
	words := make(map[string]struct{})
	for _, tok := range nonWordRe.Split(lower, -1) {
		if tok != "" {
			words[tok] = struct{}{}
		}
	}

	var topics []Topic
	for category, indicators := range topicCategories {
		matched := 0
		for _, kw := range indicators {
			if _, ok := words[kw]; ok {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		confidence := math.Min(float64(matched)/float64(len(indicators)), 1.0)
		topics = append(topics, Topic{Category: category, Confidence: confidence})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Confidence != topics[j].Confidence {
			return topics[i].Confidence > topics[j].Confidence
		}
		return topics[i].Category < topics[j].Category
	})
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

func extractEntities(text string) []Entity {
	var entities []Entity
	for _, loc := range mentionsExtractRe.FindAllStringIndex(text, -1) {
		entities = append(entities, Entity{
			Text:       text[loc[0]:loc[1]],
			Type:       "PERSON",
			Confidence: mentionsConfidence,
			Start:      loc[0],
			End:        loc[1],
		})
	}
	for _, loc := range urlRe.FindAllStringIndex(text, -1) {
		entities = append(entities, Entity{
			Text:       text[loc[0]:loc[1]],
			Type:       "MISC",
			Confidence: entityConfidence,
			Start:      loc[0],
			End:        loc[1],
		})
	}
	for _, loc := range emailRe.FindAllStringIndex(text, -1) {
		entities = append(entities, Entity{
			Text:       text[loc[0]:loc[1]],
			Type:       "MISC",
			Confidence: entityConfidence,
			Start:      loc[0],
			End:        loc[1],
		})
	}
	return entities
}

func extractLinks(text string) []ExtractedLink {
	var links []ExtractedLink
	for _, loc := range urlRe.FindAllStringIndex(text, -1) {
		u := text[loc[0]:loc[1]]
		links = append(links, ExtractedLink{
			URL:      u,
			Start:    loc[0],
			End:      loc[1],
			Category: classifyLink(u),
		})
	}
	return links
}

// classifyLink buckets a URL by domain and extension heuristics.
func classifyLink(rawURL string) LinkCategory {
	lower := strings.ToLower(rawURL)
	host := lower
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}

	if _, ok := videoDomains[host]; ok {
		return LinkCategoryVideo
	}
	if _, ok := socialDomains[host]; ok {
		return LinkCategorySocial
	}
	path := strings.SplitN(lower, "?", 2)[0]
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return LinkCategoryImage
		}
	}
	for _, ext := range documentExtensions {
		if strings.HasSuffix(path, ext) {
			return LinkCategoryDocument
		}
	}
	return LinkCategoryExternal
}

func extractMentions(text string) []ExtractedMention {
	var mentions []ExtractedMention
	for _, loc := range mentionsExtractRe.FindAllStringIndex(text, -1) {
		mentions = append(mentions, ExtractedMention{
			Handle: text[loc[0]:loc[1]],
			Start:  loc[0],
			End:    loc[1],
		})
	}
	return mentions
}

func extractHashtags(text string) []ExtractedHashtag {
	var hashtags []ExtractedHashtag
	for _, loc := range hashtagRe.FindAllStringIndex(text, -1) {
		hashtags = append(hashtags, ExtractedHashtag{
			Tag:   text[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return hashtags
}

// detectLanguage guesses the language from the dominant unicode script. A
// script above the 30% ratio cutoff is reported with confidence
// min(ratio*2, 1.0); anything else is undetermined.
func detectLanguage(text string) LanguageDetection {
	var letters int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 0 {
		return LanguageDetection{Code: "und"}
	}

	for _, sl := range scriptLanguages {
		matched := 0
		for _, r := range text {
			if !unicode.IsLetter(r) {
				continue
			}
			for _, rt := range sl.ranges {
				if unicode.Is(rt, r) {
					matched++
					break
				}
			}
		}
		ratio := float64(matched) / float64(letters)
		if ratio > scriptRatioCutoff {
			return LanguageDetection{
				Code:       sl.code,
				Confidence: math.Min(ratio*2, 1.0),
			}
		}
	}
	return LanguageDetection{Code: "und"}
}

func analyzeSentiment(text string) Sentiment {
	var pos, neg int
	for _, tok := range nonWordRe.Split(strings.ToLower(text), -1) {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return Sentiment{Neutral: 1, Label: "neutral", Confidence: neutralConfidence}
	}

	s := Sentiment{
		Positive: float64(pos) / float64(total),
		Negative: float64(neg) / float64(total),
	}
	switch {
	case pos > neg:
		s.Label = "positive"
		s.Confidence = s.Positive
	case neg > pos:
		s.Label = "negative"
		s.Confidence = s.Negative
	default:
		s.Label = "neutral"
		s.Neutral = 1
		s.Confidence = 0.5
	}
	return s
}

func computeMetrics(text string) ContentMetrics {
	m := ContentMetrics{Characters: len([]rune(text))}
	if strings.TrimSpace(text) == "" {
		return m
	}

	words := strings.Fields(text)
	m.Words = len(words)

	for _, s := range sentenceSplitRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			m.Sentences++
		}
	}
	if m.Sentences == 0 {
		m.Sentences = 1
	}

	for _, p := range paragraphSplitRe.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			m.Paragraphs++
		}
	}

	unique := make(map[string]struct{}, len(words))
	var letterTotal, syllableTotal int
	for _, w := range words {
		clean := strings.ToLower(nonWordRe.ReplaceAllString(w, ""))
		if clean != "" {
			unique[clean] = struct{}{}
		}
		letterTotal += len([]rune(clean))
		syllableTotal += countSyllables(clean)
	}
	m.UniqueWords = len(unique)
	m.AvgWordLength = float64(letterTotal) / float64(m.Words)
	m.AvgSentenceLength = float64(m.Words) / float64(m.Sentences)

	// Flesch reading ease.
	wordsPerSentence := float64(m.Words) / float64(m.Sentences)
	syllablesPerWord := float64(syllableTotal) / float64(m.Words)
	m.ReadabilityScore = 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord

	m.ComplexityScore = 0.6*(float64(m.UniqueWords)/float64(m.Words)) + 0.4*(m.AvgWordLength/10)
	return m
}

// countSyllables estimates syllables by counting vowel groups, with a
// correction for a silent trailing e. Every word counts at least one.
func countSyllables(word string) int {
	if word == "" {
		return 0
	}
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}
