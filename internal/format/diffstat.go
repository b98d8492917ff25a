package format

import "fmt"

// ChangeSize is a T-shirt size for the number of changed lines.
type ChangeSize string

const (
	SizeXS ChangeSize = "XS"
	SizeS  ChangeSize = "S"
	SizeM  ChangeSize = "M"
	SizeL  ChangeSize = "L"
	SizeXL ChangeSize = "XL"
)

// Upper bounds (inclusive) of each size; anything larger is XL.
const (
	sizeXSMax = 10
	sizeSMax  = 50
	sizeMMax  = 250
	sizeLMax  = 1000
)

// SizeOf buckets a total line change count.
func SizeOf(total int) ChangeSize {
	switch {
	case total <= sizeXSMax:
		return SizeXS
	case total <= sizeSMax:
		return SizeS
	case total <= sizeMMax:
		return SizeM
	case total <= sizeLMax:
		return SizeL
	default:
		return SizeXL
	}
}

// DiffStat renders a commit's changes, e.g. "S +20/-4".
func DiffStat(additions, deletions int) string {
	return fmt.Sprintf("%s +%d/-%d", SizeOf(additions+deletions), additions, deletions)
}
