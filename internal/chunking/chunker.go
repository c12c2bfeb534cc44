package chunking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/hsn0918/ragctl/internal/errs"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.Linkify,
		extension.TaskList,
	),
)

type blockKind int

const (
	blockParagraph blockKind = iota
	blockList
	blockTable
)

// block is one unit produced by the top-level walk, before packing.
type block struct {
	kind   blockKind
	text   string
	tokens int
	start  int
	end    int
	atomic bool
}

// Chunk parses source (the content of a file whose basename stem is
// stem) into heading-bounded, list-atomic chunks packed greedily against
// budgetTokens.
func Chunk(source string, stem string, budgetTokens int) (*Result, error) {
	if budgetTokens <= 0 {
		budgetTokens = DefaultChunkSizeTokens
	}
	src := []byte(source)
	if err := validateUTF8(src); err != nil {
		return nil, err
	}
	doc := md.Parser().Parse(text.NewReader(src))

	b := &builder{
		source:    src,
		stem:      stem,
		budget:    budgetTokens,
		headings:  map[int]string{},
		result:    &Result{},
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		b.visitTop(n)
	}
	b.flush()
	b.assignIDs()

	return b.result, nil
}

type builder struct {
	source []byte
	stem   string
	budget int

	headings map[int]string // level -> title, active scope

	buffer  []block
	running int

	result *Result
}

func (b *builder) visitTop(n ast.Node) {
	switch v := n.(type) {
	case *ast.Heading:
		b.flush()
		b.setHeading(v.Level, strings.TrimSpace(renderInline(v, b.source)))
	case *ast.List:
		text := strings.TrimRight(blockText(v, b.source), "\n")
		blk := block{kind: blockList, text: text, atomic: true}
		start, end := blockSpan(v)
		blk.start, blk.end = start, end
		blk.tokens = wordCount(text)
		b.addAtomicList(blk)
	default:
		if v.Kind() == east.KindTable {
			tbl, ok := v.(*east.Table)
			if ok {
				rendered := renderTable(tbl, b.source)
				start, end := blockSpan(v)
				b.addBlock(block{kind: blockTable, text: rendered, tokens: wordCount(rendered), start: start, end: end})
				return
			}
		}
		// Paragraph, CodeBlock, FencedCodeBlock, Blockquote, ThematicBreak,
		// HTMLBlock and anything else fall through to verbatim paragraph
		// handling, matching the "any other non-empty line accumulates as
		// paragraph lines" rule in spec §4.1.
		txt := strings.TrimRight(blockText(n, b.source), "\n")
		if strings.TrimSpace(txt) == "" {
			return
		}
		start, end := blockSpan(n)
		b.addBlock(block{kind: blockParagraph, text: txt, tokens: wordCount(txt), start: start, end: end})
	}
}

func (b *builder) setHeading(level int, title string) {
	for l := range b.headings {
		if l >= level {
			delete(b.headings, l)
		}
	}
	b.headings[level] = title
}

// addAtomicList merges an immediately preceding buffered paragraph (in
// the same heading scope, guaranteed since headings always flush the
// buffer) into the list block (spec I3), then hands it to addBlock.
func (b *builder) addAtomicList(listBlk block) {
	if listBlk.tokens > b.budget {
		b.result.Warnings = append(b.result.Warnings, Warning{
			Kind:    string(errs.KindBudgetExceededByAtomic),
			Message: fmt.Sprintf("atomic list block of %d tokens exceeds budget %d", listBlk.tokens, b.budget),
		})
	}

	if n := len(b.buffer); n > 0 && b.buffer[n-1].kind == blockParagraph {
		para := b.buffer[n-1]
		b.buffer = b.buffer[:n-1]
		b.running -= para.tokens

		gap := ""
		if listBlk.start >= para.end && para.end >= 0 {
			gap = string(b.source[para.end:listBlk.start])
		}
		sep := "\n"
		if gap != "" && strings.TrimSpace(gap) == "" {
			sep = "\n\n"
		}
		listBlk = block{
			kind:   blockList,
			atomic: true,
			start:  para.start,
			end:    listBlk.end,
			text:   para.text + sep + listBlk.text,
		}
		listBlk.tokens = wordCount(listBlk.text)
	}

	b.addBlock(listBlk)
}

// addBlock applies the greedy packing rule: a block always lands in the
// buffer intact, but first finalizes a non-empty buffer if adding it
// would overflow the budget.
func (b *builder) addBlock(blk block) {
	if len(b.buffer) > 0 && b.running+blk.tokens > b.budget {
		b.flush()
	}
	b.buffer = append(b.buffer, blk)
	b.running += blk.tokens
}

func (b *builder) flush() {
	if len(b.buffer) == 0 {
		return
	}
	parts := make([]string, 0, len(b.buffer))
	for _, blk := range b.buffer {
		parts = append(parts, blk.text)
	}
	text := strings.Join(parts, "\n\n")

	c := Chunk{
		Text:         text,
		ApproxTokens: wordCount(text),
		Source:       b.stem,
	}
	if len(b.headings) > 0 {
		c.Headings = map[string]string{}
		deepest := -1
		for level, title := range b.headings {
			c.Headings["h"+strconv.Itoa(level)] = title
			if level > deepest {
				deepest = level
			}
		}
		if deepest >= 0 {
			c.Heading = map[string]string{"h" + strconv.Itoa(deepest): b.headings[deepest]}
		}
		c.FullHeadings = b.fullHeadings()
	}

	b.result.Chunks = append(b.result.Chunks, c)
	b.buffer = nil
	b.running = 0
}

func (b *builder) fullHeadings() string {
	parts := make([]string, 0, 6)
	for level := 1; level <= 6; level++ {
		if title, ok := b.headings[level]; ok {
			parts = append(parts, title)
		}
	}
	return strings.Join(parts, " > ")
}

func (b *builder) assignIDs() {
	for i := range b.result.Chunks {
		b.result.Chunks[i].ChunkID = fmt.Sprintf("%s-%d", b.stem, i+1)
	}
}

// wordCount is the token estimator spec §4.1 mandates: a plain
// whitespace-separated word count, not a weighted ratio.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
