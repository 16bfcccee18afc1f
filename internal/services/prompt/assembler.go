package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/sitechat/internal/models"
)

const (
	contextPreamble   = "Context from the website:\n"
	answerInstruction = "\n\nBased on the above context, please answer the following question:\n"
)

// Result is an assembled prompt plus how much of the snapshot made it in
type Result struct {
	Prompt       string
	ItemsKept    int
	ItemsDropped int
}

// Assembler turns a snapshot and a question into one bounded prompt body
type Assembler struct {
	maxChars int
	logger   arbor.ILogger
}

// NewAssembler creates an assembler whose output is capped at maxChars runes
func NewAssembler(maxChars int, logger arbor.ILogger) *Assembler {
	return &Assembler{
		maxChars: maxChars,
		logger:   logger,
	}
}

// Assemble builds the prompt. Without a snapshot, or when not a single item
// fits the budget, the question is returned unchanged. Items are dropped from
// the end until the whole prompt fits; the question is never cut.
func (a *Assembler) Assemble(snapshot *models.WebsiteSnapshot, question string) Result {
	total := snapshot.ItemCount()
	if total == 0 {
		return Result{Prompt: question}
	}

	fixed := utf8.RuneCountInString(contextPreamble) +
		utf8.RuneCountInString(answerInstruction) +
		utf8.RuneCountInString(question)

	kept := 0
	size := fixed
	for _, item := range snapshot.Items {
		next := utf8.RuneCountInString(item.Text)
		if kept > 0 {
			next++ // newline separator
		}
		if size+next > a.maxChars {
			break
		}
		size += next
		kept++
	}

	if kept < total && a.logger != nil {
		a.logger.Debug().
			Str("tenant_id", snapshot.TenantID).
			Int("items_kept", kept).
			Int("items_dropped", total-kept).
			Int("max_chars", a.maxChars).
			Msg("Snapshot truncated to fit context budget")
	}

	if kept == 0 {
		return Result{Prompt: question, ItemsDropped: total}
	}

	var b strings.Builder
	b.Grow(len(contextPreamble) + len(answerInstruction) + len(question) + size)
	b.WriteString(contextPreamble)
	for i, item := range snapshot.Items[:kept] {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(item.Text)
	}
	b.WriteString(answerInstruction)
	b.WriteString(question)

	return Result{
		Prompt:       b.String(),
		ItemsKept:    kept,
		ItemsDropped: total - kept,
	}
}
