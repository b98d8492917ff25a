package model

// Construct names counted by the lexical construct counter.
const (
	ConstructIf            = "if"
	ConstructWhile         = "while"
	ConstructFor           = "for"
	ConstructFunction      = "regular-function"
	ConstructAsyncFunction = "async-function"
	ConstructClass         = "class"
)

// AllConstructs is the fixed construct vocabulary, in display order.
var AllConstructs = []string{
	ConstructIf,
	ConstructWhile,
	ConstructFor,
	ConstructFunction,
	ConstructAsyncFunction,
	ConstructClass,
}

// NewConstructCounts returns a zeroed count for every construct.
func NewConstructCounts() map[string]int {
	counts := make(map[string]int, len(AllConstructs))
	for _, c := range AllConstructs {
		counts[c] = 0
	}
	return counts
}

// MergeCounts adds src into dst.
func MergeCounts(dst, src map[string]int) {
	for k, v := range src {
		dst[k] += v
	}
}
