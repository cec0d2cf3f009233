package ops

// stopWords — английские стоп-слова, исключаемые из n-грамм и облака слов.
var stopWords = setOf(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "cannot", "could",
	"couldn't", "did", "didn't", "do", "does", "doesn't", "doing", "don't", "down",
	"during", "each", "else", "etc", "ever", "few", "for", "from", "further", "get",
	"got", "had", "hadn't", "has", "hasn't", "have", "haven't", "having", "he",
	"her", "here", "hers", "herself", "him", "himself", "his", "how", "however",
	"i", "if", "in", "into", "is", "isn't", "it", "it's", "its", "itself", "just",
	"let's", "may", "me", "might", "more", "most", "must", "my", "myself", "no",
	"nor", "not", "now", "of", "off", "on", "once", "only", "or", "other", "ought",
	"our", "ours", "ourselves", "out", "over", "own", "same", "she", "should",
	"shouldn't", "so", "some", "such", "than", "that", "that's", "the", "their",
	"theirs", "them", "themselves", "then", "there", "there's", "these", "they",
	"this", "those", "through", "to", "too", "under", "until", "up", "upon", "us",
	"very", "was", "wasn't", "we", "were", "weren't", "what", "when", "where",
	"which", "while", "who", "whom", "why", "will", "with", "won't", "would",
	"wouldn't", "yet", "you", "your", "yours", "yourself", "yourselves",
)

// negations меняют знак оценки следующего слова.
var negations = setOf("not", "no", "never", "isn't", "wasn't", "don't", "doesn't",
	"didn't", "can't", "cannot", "won't", "nothing", "hardly")

// intensifiers усиливают или ослабляют следующее слово.
var intensifiers = map[string]float64{
	"very": 1.3, "really": 1.3, "extremely": 1.5, "so": 1.2, "too": 1.2,
	"quite": 1.1, "absolutely": 1.5, "slightly": 0.5, "somewhat": 0.7,
}

// lexicon — оценки тональности слов.
var lexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1.0, "amazing": 0.6, "awesome": 1.0,
	"fantastic": 0.4, "wonderful": 1.0, "best": 1.0, "better": 0.5, "love": 0.5,
	"loved": 0.7, "like": 0.3, "liked": 0.4, "nice": 0.6, "happy": 0.8,
	"pleased": 0.5, "perfect": 1.0, "recommend": 0.4, "satisfied": 0.5,
	"fast": 0.2, "easy": 0.4, "helpful": 0.5, "friendly": 0.4, "beautiful": 0.85,
	"clean": 0.4, "fine": 0.4, "positive": 0.2, "enjoy": 0.4, "enjoyed": 0.5,
	"quality": 0.2, "reliable": 0.5, "smooth": 0.4, "glad": 0.5, "impressive": 0.8,
	"bad": -0.7, "worst": -1.0, "terrible": -1.0, "awful": -1.0, "poor": -0.4,
	"horrible": -1.0, "hate": -0.8, "hated": -0.9, "dislike": -0.5, "slow": -0.3,
	"broken": -0.4, "disappointed": -0.75, "disappointing": -0.6, "useless": -0.5,
	"wrong": -0.5, "rude": -0.3, "dirty": -0.6, "expensive": -0.5, "difficult": -0.5,
	"hard": -0.3, "sad": -0.5, "angry": -0.5, "annoying": -0.8, "negative": -0.3,
	"problem": -0.3, "issue": -0.2, "fail": -0.5, "failed": -0.5, "boring": -1.0,
	"ugly": -0.7, "late": -0.3, "cheap": 0.2, "refund": -0.2, "unhappy": -0.6,
}

func setOf(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
