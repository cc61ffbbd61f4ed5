package local

// Fixed vocabulary tables for the heuristic analyzer. These are part of the
// analyzer's contract: the same input always maps to the same output.

// stopWords are dropped during tokenization.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "been": true, "were": true, "they": true,
	"their": true, "them": true, "this": true, "that": true, "these": true,
	"those": true, "with": true, "from": true, "into": true, "over": true,
	"under": true, "will": true, "would": true, "could": true, "should": true,
	"about": true, "than": true, "then": true, "when": true, "which": true,
	"while": true, "where": true, "what": true, "also": true, "more": true,
	"most": true, "some": true, "such": true, "only": true, "other": true,
	"its": true, "may": true, "who": true, "how": true, "any": true,
	"each": true, "between": true, "because": true, "after": true,
	"before": true, "during": true, "against": true, "said": true,
}

// suffixRule is a suffix-stripping rule. Rules are tried in order and the
// first match wins.
type suffixRule struct {
	suffix  string
	replace string
}

var suffixRules = []suffixRule{
	{"ies", "y"},
	{"ing", ""},
	{"ed", ""},
	{"es", ""},
	{"s", ""},
}

// positiveWords and negativeWords drive the sentiment scan.
var positiveWords = map[string]bool{
	"gain": true, "gains": true, "growth": true, "profit": true,
	"profits": true, "surge": true, "surged": true, "rally": true,
	"rallied": true, "rise": true, "rose": true, "boost": true,
	"strong": true, "record": true, "beat": true, "upgrade": true,
	"improved": true, "recovery": true, "bullish": true, "outperform": true,
	"exceeded": true, "positive": true, "soared": true, "jumped": true,
}

var negativeWords = map[string]bool{
	"loss": true, "losses": true, "decline": true, "declined": true,
	"fall": true, "fell": true, "drop": true, "dropped": true,
	"plunge": true, "plunged": true, "crash": true, "weak": true,
	"miss": true, "missed": true, "downgrade": true, "default": true,
	"bankruptcy": true, "recession": true, "bearish": true, "slump": true,
	"negative": true, "tumbled": true, "warning": true, "debt": true,
}

// Complexity vocabulary tiers. Any advanced term forces the advanced tier,
// intermediate outranks beginner, everything else is beginner.
var beginnerTerms = []string{
	"money", "bank", "loan", "save", "savings", "spend", "price", "cost",
	"buy", "sell", "cash", "pay", "payment", "account", "budget",
}

var intermediateTerms = []string{
	"interest rate", "interest", "credit", "mortgage", "dividend",
	"portfolio", "inflation", "asset", "liability", "equity", "bond",
	"yield", "stock", "share", "fund", "invest", "investment", "revenue",
	"earnings", "capital", "federal reserve",
}

var advancedTerms = []string{
	"derivative", "arbitrage", "securitization", "quantitative easing",
	"collateralized", "swap", "hedging", "hedge ratio", "volatility",
	"amortization", "tranche", "basis point", "duration risk",
	"credit default", "leverage ratio", "repo rate", "yield curve",
}

// topicRule maps a term stem to a topic label via substring match. The
// first matching rule per term wins.
type topicRule struct {
	stem  string
	topic string
}

var topicRules = []topicRule{
	{"interest", "Interest Rates"},
	{"rate", "Interest Rates"},
	{"inflat", "Inflation"},
	{"stock", "Stock Market"},
	{"share", "Stock Market"},
	{"equity", "Stock Market"},
	{"bond", "Bonds & Yields"},
	{"yield", "Bonds & Yields"},
	{"mortgag", "Credit & Lending"},
	{"loan", "Credit & Lending"},
	{"credit", "Credit & Lending"},
	{"bank", "Banking"},
	{"invest", "Investing"},
	{"portfolio", "Investing"},
	{"fund", "Investing"},
	{"dividend", "Investing"},
	{"tax", "Taxation"},
	{"crypto", "Cryptocurrency"},
	{"bitcoin", "Cryptocurrency"},
	{"federal", "Monetary Policy"},
	{"reserve", "Monetary Policy"},
	{"earn", "Earnings"},
	{"revenue", "Earnings"},
	{"profit", "Earnings"},
}

// highValueTerms grant a flat confidence bonus when present in the input.
var highValueTerms = []string{
	"federal reserve", "interest rate", "inflation", "recession",
	"earnings", "dividend", "mortgage", "bond yield",
}
