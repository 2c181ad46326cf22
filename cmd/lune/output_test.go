package main

import (
	"bytes"
	"math"
	"strings"
	"testing"
)

func TestWriteFieldTableRendersObjectFields(t *testing.T) {
	var buf bytes.Buffer
	mood := 3
	v := struct {
		Date    string   `json:"date"`
		Mood    *int     `json:"mood"`
		Journal *string  `json:"journal"`
		Done    bool     `json:"done"`
		Count   int      `json:"count"`
		Tags    []string `json:"tags"`
	}{Date: "2024-01-10", Mood: &mood, Done: true, Count: 1000000, Tags: []string{"a"}}
	if err := writeFieldTable(&buf, v); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"FIELD", "VALUE", "2024-01-10", "1000000", "true", `["a"]`} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "{") {
		t.Fatalf("object should render as a table, not JSON:\n%s", out)
	}
	if strings.Index(out, "count") > strings.Index(out, "date") {
		t.Fatalf("fields should be sorted:\n%s", out)
	}
}

func TestWriteFieldTableNonObject(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFieldTable(&buf, []int{1, 2}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[1,2]" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestWriteFieldTableReturnsEncodeError(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFieldTable(&buf, math.Inf(1)); err == nil {
		t.Fatalf("expected encode error")
	}
}
