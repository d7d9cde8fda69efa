package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/writer"
)

// errQuit is returned when the user stops the extraction at a prompt
var errQuit = errors.New("stopped by user")

// answer is one choice of the conflict prompt
type answer string

const (
	answerOverwrite answer = "overwrite"
	answerSkip      answer = "skip"
	answerRename    answer = "rename"
	answerAll       answer = "all"
	answerNone      answer = "none"
	answerQuit      answer = "quit"
)

// prompter asks on in/out how to resolve overwrite conflicts. Answering
// "all" or "none" applies to every later conflict without asking.
type prompter struct {
	mu     sync.Mutex
	in     *lineReader
	out    io.Writer
	sticky writer.Policy
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: &lineReader{r: bufio.NewReader(in)}, out: out}
}

// Resolve implements writer.ResolveFunc
func (p *prompter) Resolve(e domain.Entry, target string) (writer.Policy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.sticky != "" {
		return p.sticky, nil
	}

	choice, err := p.ask(target)
	if err != nil {
		return "", fmt.Errorf("no answer for %s: %w", e.Path, err)
	}

	switch choice {
	case answerOverwrite:
		return writer.PolicyOverwrite, nil
	case answerSkip:
		return writer.PolicySkip, nil
	case answerRename:
		return writer.PolicyRename, nil
	case answerAll:
		p.sticky = writer.PolicyOverwrite
		return p.sticky, nil
	case answerNone:
		p.sticky = writer.PolicySkip
		return p.sticky, nil
	default:
		return "", errQuit
	}
}

// ask runs one accessible select form. Accessible mode reads plain lines,
// so it works on piped stdin without a terminal.
func (p *prompter) ask(target string) (answer, error) {
	var choice answer
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[answer]().
				Title(target+" exists").
				Options(
					huh.NewOption("Overwrite", answerOverwrite),
					huh.NewOption("Skip", answerSkip),
					huh.NewOption("Rename", answerRename),
					huh.NewOption("Overwrite all", answerAll),
					huh.NewOption("Skip all", answerNone),
					huh.NewOption("Quit", answerQuit),
				).
				Value(&choice),
		),
	).
		WithAccessible(true).
		WithInput(p.in).
		WithOutput(p.out)

	before := p.in.lines
	if err := form.Run(); err != nil {
		return "", err
	}
	if p.in.lines == before || choice == "" {
		return "", io.ErrUnexpectedEOF
	}
	return choice, nil
}

// lineReader hands out at most one line per Read. huh scans every prompt
// with a fresh bufio.Scanner, which would otherwise swallow the answers to
// later prompts.
type lineReader struct {
	r     *bufio.Reader
	buf   []byte
	lines int
}

func (l *lineReader) Read(b []byte) (int, error) {
	if len(l.buf) == 0 {
		line, err := l.r.ReadBytes('\n')
		if len(line) == 0 {
			return 0, err
		}
		l.buf = line
		l.lines++
	}
	n := copy(b, l.buf)
	l.buf = l.buf[n:]
	return n, nil
}
