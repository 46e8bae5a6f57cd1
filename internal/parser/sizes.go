package parser

// Font sizes in points assigned to structural markup that carries no
// explicit size. Values follow the default browser stylesheet at a 16px
// base.
const (
	BodySize     = 12.0
	DocxBodySize = 11.0
)

var headingSizes = [...]float64{
	1: 24,
	2: 18,
	3: 14.04,
	4: 12,
	5: 9.96,
	6: 8.04,
}

// HeadingSize returns the point size for heading level 1 to 6, or BodySize.
func HeadingSize(level int) float64 {
	if level < 1 || level >= len(headingSizes) {
		return BodySize
	}
	return headingSizes[level]
}
