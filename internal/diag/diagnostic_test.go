package diag

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestCollectorKeepsReportOrder(t *testing.T) {
	c := NewCollector()
	c.Report(Diagnostic{Kind: KindCreated, Severity: SeverityInfo, Pos: 1})
	c.Report(Diagnostic{Kind: KindNameTypeConflict, Severity: SeverityError, Pos: 2})
	c.Report(Diagnostic{Kind: KindOutPortReused, Severity: SeverityWarning, Pos: 3})
	got := c.Diagnostics()
	if len(got) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(got))
	}
	for i, want := range []int{1, 2, 3} {
		if got[i].Pos != want {
			t.Fatalf("diagnostic %d pos = %d, want %d", i, got[i].Pos, want)
		}
	}
	if !c.HasErrors() {
		t.Fatalf("expected collector to report errors")
	}
	if n := Count(got, KindNameTypeConflict); n != 1 {
		t.Fatalf("expected 1 conflict, got %d", n)
	}
	if n := len(Filter(got, SeverityWarning)); n != 2 {
		t.Fatalf("expected 2 diagnostics at warning or above, got %d", n)
	}
}

func TestCollectorConcurrentReports(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(pos int) {
			defer wg.Done()
			c.Report(Diagnostic{Kind: KindFound, Severity: SeverityInfo, Pos: pos})
		}(i)
	}
	wg.Wait()
	if n := len(c.Diagnostics()); n != 20 {
		t.Fatalf("expected 20 diagnostics, got %d", n)
	}
}

func TestDiagnosticUnwrap(t *testing.T) {
	sentinel := errors.New("boom")
	d := Diagnostic{Kind: KindStructural, Severity: SeverityError, Err: sentinel}
	if !errors.Is(d, sentinel) {
		t.Fatalf("expected diagnostic to unwrap to its error")
	}
}

func TestRenderPlain(t *testing.T) {
	out := Render([]Diagnostic{{
		Kind:     KindNameTypeConflict,
		Severity: SeverityError,
		File:     "main.flow",
		Flow:     "main",
		Chain:    1,
		Pos:      42,
		Message:  "operation a has two different types",
		Expected: "TypeX",
		Actual:   "TypeY",
	}}, false)
	want := `main.flow:42: error: flow main chain 2: operation a has two different types (expected "TypeX", got "TypeY")`
	if strings.TrimSpace(out) != want {
		t.Fatalf("render = %q\nwant %q", out, want)
	}
	if got := Summary([]Diagnostic{{Severity: SeverityError}, {Severity: SeverityWarning}, {Severity: SeverityInfo}}); got != "1 error(s), 1 warning(s)" {
		t.Fatalf("unexpected summary %q", got)
	}
}
