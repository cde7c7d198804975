package patient

import (
	"regexp"
	"sort"
)

// vocabulary is the fixed set of radiology terms highlighted in narratives.
var vocabulary = []string{
	"pneumothorax", "effusion", "cardiomegaly", "opacity", "consolidation",
	"infiltrate", "interstitial", "fibrosis", "calcification", "pleural thickening",
	"aorta", "uncoiling", "enlarged", "nodule", "mass", "edema", "congestion",
}

var vocabularyPatterns = compileVocabulary()

func compileVocabulary() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(vocabulary))
	for _, term := range vocabulary {
		out[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return out
}

// ExtractKeywords returns the vocabulary terms present as whole words in the
// narrative, deduplicated and sorted. An empty narrative yields no terms.
func ExtractKeywords(narrative string) []string {
	if narrative == "" {
		return nil
	}
	var hits []string
	for term, re := range vocabularyPatterns {
		if re.MatchString(narrative) {
			hits = append(hits, term)
		}
	}
	sort.Strings(hits)
	return hits
}
