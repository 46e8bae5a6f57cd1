// Package outline defines the heading model and assembles a document's
// outline from its extracted candidates.
package outline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Untitled is the title used when no heading is ranked H1.
const Untitled = "Untitled"

// Level is a heading rank.
type Level string

const (
	H1 Level = "H1"
	H2 Level = "H2"
	H3 Level = "H3"
)

// Levels lists the ranks in cluster-index order.
var Levels = []Level{H1, H2, H3}

// LevelForCluster maps a cluster index to its rank. Index 0 is H1.
func LevelForCluster(idx int) (Level, error) {
	if idx < 0 || idx >= len(Levels) {
		return "", fmt.Errorf("cluster index %d has no level", idx)
	}
	return Levels[idx], nil
}

// Depth returns 1 for H1, 2 for H2 and 3 for H3.
func (l Level) Depth() int {
	for i, lv := range Levels {
		if lv == l {
			return i + 1
		}
	}
	return 0
}

// Candidate is a text line considered for heading classification.
type Candidate struct {
	Text string  `json:"text"`
	Size float64 `json:"size"`
	Page int     `json:"page"`
}

// RankedHeading is a candidate with its assigned rank.
type RankedHeading struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the per-document result record.
type Outline struct {
	Title   string          `json:"title"`
	Outline []RankedHeading `json:"outline"`
}

// MarshalJSON always emits the outline as an array, never null. Heading
// text is written without HTML escaping.
func (o Outline) MarshalJSON() ([]byte, error) {
	type plain Outline
	p := plain(o)
	if p.Outline == nil {
		p.Outline = []RankedHeading{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Empty returns the record for a document without candidates.
func Empty() Outline {
	return Outline{Title: Untitled, Outline: []RankedHeading{}}
}
