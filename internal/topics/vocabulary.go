// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package topics

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultTerms is the technical vocabulary tracked in interviews. Keys
// are canonical topic names; values are extra spellings that also count
// as a mention.
var DefaultTerms = map[string][]string{
	"Spring Boot":       {"springboot"},
	"Spring Cloud":      {"springcloud"},
	"Redis":             nil,
	"MySQL":             nil,
	"Kafka":             nil,
	"RabbitMQ":          nil,
	"Redisson":          nil,
	"布隆过滤器":             nil,
	"缓存":                nil,
	"数据库":               nil,
	"JVM":               nil,
	"JUC":               nil,
	"线程池":               nil,
	"锁":                 nil,
	"分布式":               nil,
	"微服务":               nil,
	"限流":                nil,
	"熔断":                nil,
	"事务":                nil,
	"索引":                nil,
	"MQ":                nil,
	"HashMap":           nil,
	"ConcurrentHashMap": nil,
	"ArrayList":         nil,
	"AQS":               nil,
	"synchronized":      nil,
	"volatile":          nil,
	"ThreadLocal":       nil,
	"B+树":               nil,
	"MVCC":              nil,
	"死锁":                nil,
	"慢查询":               nil,
}

// Vocabulary finds known terms in a text in one pass using an
// Aho-Corasick automaton. Matching ignores case and treats any run of
// whitespace as a single space. Matches do not overlap: scanning left to
// right, the longest term starting at a position wins, so "Redisson"
// counts as Redisson only and "死锁" as 死锁 only.
type Vocabulary struct {
	root      *vnode
	canonical []string
}

type vnode struct {
	children map[rune]*vnode
	fail     *vnode
	// out holds the terms ending here.
	out []termRef
}

type termRef struct {
	idx    int // into canonical
	length int // in runes, after normalize
}

func newVNode() *vnode {
	return &vnode{children: make(map[rune]*vnode)}
}

// NewVocabulary builds the automaton for terms (see DefaultTerms).
func NewVocabulary(terms map[string][]string) *Vocabulary {
	v := &Vocabulary{root: newVNode()}
	for canon, aliases := range terms {
		idx := len(v.canonical)
		v.canonical = append(v.canonical, canon)
		v.insert(canon, idx)
		for _, a := range aliases {
			v.insert(a, idx)
		}
	}
	v.link()
	return v
}

func (v *Vocabulary) insert(term string, idx int) {
	term = normalize(term)
	if term == "" {
		return
	}
	n := v.root
	length := 0
	for _, r := range term {
		length++
		child, ok := n.children[r]
		if !ok {
			child = newVNode()
			n.children[r] = child
		}
		n = child
	}
	n.out = append(n.out, termRef{idx: idx, length: length})
}

// link sets failure links breadth first.
func (v *Vocabulary) link() {
	queue := make([]*vnode, 0, len(v.root.children))
	for _, child := range v.root.children {
		child.fail = v.root
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for r, child := range cur.children {
			queue = append(queue, child)
			f := cur.fail
			for f != nil && f.children[r] == nil {
				f = f.fail
			}
			if f == nil {
				child.fail = v.root
				continue
			}
			child.fail = f.children[r]
			child.out = append(child.out, child.fail.out...)
		}
	}
}

// Find returns the canonical terms mentioned in text, in order of first
// appearance, without duplicates.
func (v *Vocabulary) Find(text string) []string {
	type span struct{ start, end, idx int }
	var spans []span
	n := v.root
	pos := 0
	for _, r := range normalize(text) {
		for n != v.root && n.children[r] == nil {
			n = n.fail
		}
		if next, ok := n.children[r]; ok {
			n = next
		}
		for _, ref := range n.out {
			spans = append(spans, span{start: pos - ref.length + 1, end: pos + 1, idx: ref.idx})
		}
		pos++
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var found []string
	seen := make(map[int]bool)
	covered := 0
	for _, sp := range spans {
		if sp.start < covered {
			continue
		}
		covered = sp.end
		if !seen[sp.idx] {
			seen[sp.idx] = true
			found = append(found, v.canonical[sp.idx])
		}
	}
	return found
}

func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
