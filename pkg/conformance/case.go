// Package conformance runs Gamelang programs described in Markdown files and
// checks their observable behavior.
//
// A case starts at a heading "Case: <name>" and holds one gamelang fence with
// the program, an optional frames fence with the number of frames to run,
// and any number of assertion fences:
//
//	ast     the program dumped with ast.Dump
//	output  the print output, one line each
//	state   "<expression> = <value>" lines evaluated after the run
//	errors  "<TYPE> line <n>" for each runtime or compile error
package conformance

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Fence languages.
const (
	FenceProgram = "gamelang"
	FenceFrames  = "frames"
)

// AssertionType names an assertion fence.
type AssertionType string

const (
	AssertAST    AssertionType = "ast"
	AssertOutput AssertionType = "output"
	AssertState  AssertionType = "state"
	AssertErrors AssertionType = "errors"
)

// Assertion is one assertion fence of a case.
type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

// Case is a conformance case extracted from Markdown.
type Case struct {
	Name       string
	Source     string
	Frames     int
	Assertions []Assertion
}

const casePrefix = "Case: "

// ExtractCases parses a Markdown document and returns its cases in order.
func ExtractCases(markdown []byte) ([]Case, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	var cases []Case
	var current *Case

	finish := func() error {
		if current == nil {
			return nil
		}
		if err := current.validate(); err != nil {
			return err
		}
		cases = append(cases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, markdown)
			if !strings.HasPrefix(heading, casePrefix) {
				return ast.WalkContinue, nil
			}
			if err := finish(); err != nil {
				return ast.WalkStop, err
			}
			current = &Case{Name: strings.TrimPrefix(heading, casePrefix)}

		case *ast.FencedCodeBlock:
			language := string(n.Language(markdown))
			content := blockContent(n, markdown)
			line := lineNumber(n, markdown)

			if current == nil {
				if language != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of a case", line, language)
				}
				return ast.WalkContinue, nil
			}

			switch language {
			case FenceProgram:
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple program fences in case '%s'", line, current.Name)
				}
				current.Source = content
			case FenceFrames:
				frames, err := strconv.Atoi(strings.TrimSpace(content))
				if err != nil || frames < 0 {
					return ast.WalkStop, fmt.Errorf("line %d: invalid frame count %q in case '%s'", line, strings.TrimSpace(content), current.Name)
				}
				current.Frames = frames
			case string(AssertAST), string(AssertOutput), string(AssertState), string(AssertErrors):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: strings.TrimRight(content, "\n"),
					Line:    line,
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in case '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown: %w", err)
	}

	if err := finish(); err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *Case) validate() error {
	if c.Source == "" {
		return fmt.Errorf("case '%s' has no %s fence", c.Name, FenceProgram)
	}
	if len(c.Assertions) == 0 {
		return fmt.Errorf("case '%s' has no assertion fences", c.Name)
	}
	return nil
}

func nodeText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := n.(*ast.Text); ok && entering {
			buf.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func blockContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.String()
}

func lineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(source[:min(start, len(source))], []byte("\n")) + 1
}
