/*
Copyright 2026 Octoforge Authors
SPDX-License-Identifier: Apache-2.0
*/

package tool

import (
	"context"
	"strings"
	"testing"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 0000000..1111111 100644
--- a/main.go
+++ b/main.go
@@ -1,4 +1,6 @@
 package main

-func main() {}
+func main() {
+	run()
+}
diff --git a/run.go b/run.go
new file mode 100644
index 0000000..2222222
--- /dev/null
+++ b/run.go
@@ -0,0 +1,3 @@
+package main
+
+func run() {}
`

func TestAnalyzePRComplexity(t *testing.T) {
	ctx := context.Background()
	reg := NewReviewRegistry(testWorkspace(t), sampleDiff)

	res := reg.Invoke(ctx, Call{ID: "1", Name: "analyze_pr_complexity", Args: map[string]any{}})
	if res.IsError() {
		t.Fatalf("analyze_pr_complexity failed: %s %s", res.Kind, res.Message)
	}

	if res.Payload["file_count"] != 2 {
		t.Errorf("file_count = %v, want 2", res.Payload["file_count"])
	}
	if res.Payload["complexity"] != "low" {
		t.Errorf("complexity = %v, want low", res.Payload["complexity"])
	}
	adds, _ := res.Payload["additions"].(int)
	if adds != 6 {
		t.Errorf("additions = %d, want 6", adds)
	}
}

func TestAnalyzePRComplexityNoDiff(t *testing.T) {
	ctx := context.Background()
	reg := NewReviewRegistry(testWorkspace(t), "")

	res := reg.Invoke(ctx, Call{ID: "1", Name: "analyze_pr_complexity", Args: map[string]any{}})
	if res.Kind != KindExecutionError {
		t.Errorf("kind = %q, want EXECUTION_ERROR", res.Kind)
	}
}

func TestComplexityRating(t *testing.T) {
	for name, tc := range map[string]struct {
		files, lines int
		want         string
	}{
		"tiny":       {1, 10, "low"},
		"several":    {5, 50, "medium"},
		"long":       {2, 200, "medium"},
		"wide":       {12, 80, "high"},
		"very large": {4, 900, "high"},
	} {
		t.Run(name, func(t *testing.T) {
			if got := complexityRating(tc.files, tc.lines); got != tc.want {
				t.Errorf("complexityRating(%d, %d) = %s, want %s", tc.files, tc.lines, got, tc.want)
			}
		})
	}
}

func TestAnalyzeDiffFlagsLargeHunks(t *testing.T) {
	var b strings.Builder
	b.WriteString("diff --git a/big.go b/big.go\n--- a/big.go\n+++ b/big.go\n@@ -1,1 +1,101 @@\n line\n")
	for i := 0; i < 100; i++ {
		b.WriteString("+added line\n")
	}

	payload, err := analyzeDiff(b.String())
	if err != nil {
		t.Fatalf("analyzeDiff: %v", err)
	}
	flags, _ := payload["flags"].([]string)
	if len(flags) == 0 {
		t.Fatal("expected a large-hunk flag")
	}
	if !strings.Contains(flags[0], "big.go") {
		t.Errorf("flag = %q, want mention of big.go", flags[0])
	}
}
