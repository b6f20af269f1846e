package main

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lexgen/lexgen/grammar"
	"github.com/lexgen/lexgen/lint"
)

var positionPattern = regexp.MustCompile(`:(\d+):(\d+)`)

// issuesFromError turns a parse or resolve failure into lint issues,
// one per resolve error when the failure carries several.
func issuesFromError(file string, err error) []lint.Issue {
	var list grammar.Errors
	if errors.As(err, &list) {
		issues := make([]lint.Issue, 0, len(list))
		for _, e := range list {
			issues = append(issues, lint.Issue{
				File:     file,
				Pos:      e.Pos,
				Severity: lint.SeverityError,
				Code:     "resolve",
				Message:  e.Msg,
			})
		}
		return issues
	}

	return []lint.Issue{{
		File:     file,
		Pos:      positionFromError(err),
		Severity: lint.SeverityError,
		Code:     "parse",
		Message:  err.Error(),
	}}
}

func positionFromError(err error) lexer.Position {
	if err == nil {
		return lexer.Position{}
	}

	var perr interface{ Position() lexer.Position }
	if errors.As(err, &perr) {
		return perr.Position()
	}

	matches := positionPattern.FindAllStringSubmatch(err.Error(), -1)
	if len(matches) == 0 {
		return lexer.Position{}
	}

	last := matches[len(matches)-1]
	line, _ := strconv.Atoi(last[1])
	col, _ := strconv.Atoi(last[2])

	return lexer.Position{Line: line, Column: col}
}

func formatIssuesText(issues []lint.Issue) string {
	sorted := append([]lint.Issue{}, issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		if sorted[i].Pos.Line != sorted[j].Pos.Line {
			return sorted[i].Pos.Line < sorted[j].Pos.Line
		}
		return sorted[i].Pos.Column < sorted[j].Pos.Column
	})

	lines := make([]string, 0, len(sorted))
	for _, issue := range sorted {
		line := issue.Pos.Line
		col := issue.Pos.Column
		if line <= 0 {
			line = 1
		}
		if col <= 0 {
			col = 1
		}
		lines = append(lines, fmt.Sprintf("%s:%d:%d %s [%s] %s", issue.File, line, col, issue.Severity, issue.Code, issue.Message))
	}

	return strings.Join(lines, "\n")
}
