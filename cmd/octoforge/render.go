/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/octoforge/octoforge/agent"
	"github.com/octoforge/octoforge/githubtask"
)

func summaryTable(w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{"Field", "Value"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
		}),
	)
}

func renderResult(w io.Writer, task agent.Task, res agent.Result, prURL string) {
	table := summaryTable(w)
	table.Append([]string{"Task", string(task.Kind)})
	table.Append([]string{"Repository", task.Owner + "/" + task.Repo})
	table.Append([]string{"Branch", res.Branch})
	table.Append([]string{"Success", strconv.FormatBool(res.Success)})
	table.Append([]string{"Iterations", strconv.Itoa(res.Iterations)})
	table.Append([]string{"Changed files", strings.Join(res.ChangedFiles, ", ")})
	if prURL != "" {
		table.Append([]string{"Pull request", prURL})
	}
	if res.Exhausted {
		table.Append([]string{"Exhausted", "true"})
	}
	table.Render()

	fmt.Fprintf(w, "\n%s\n", res.Summary)
}

func renderReview(w io.Writer, task agent.Task, res agent.Result, verdict githubtask.Verdict) {
	table := summaryTable(w)
	table.Append([]string{"Task", string(task.Kind)})
	table.Append([]string{"Repository", fmt.Sprintf("%s/%s#%d", task.Owner, task.Repo, task.PRNumber)})
	table.Append([]string{"Verdict", string(verdict)})
	table.Append([]string{"Iterations", strconv.Itoa(res.Iterations)})
	table.Append([]string{"Findings", strconv.Itoa(len(res.Findings))})
	table.Render()

	fmt.Fprintf(w, "\n%s\n", res.Summary)
	for _, f := range res.Findings {
		marker := ""
		if f.Required {
			marker = " (blocking)"
		}
		fmt.Fprintf(w, "- [%s]%s %s\n", f.Kind, marker, f.Message)
	}
}
