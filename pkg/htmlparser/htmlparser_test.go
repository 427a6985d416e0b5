package htmlparser

import (
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Hello World</title><meta name="x" content="y"><style>.x{}</style><script>var x=1;</script></head>
<body>
<h1>Welcome Here</h1>
<p>Some <b>bold text</b> and <a href="https://example.com/next">a link</a>.</p>
<!-- a comment -->
<img src="x.png" alt="ignored alt text">
</body>
</html>`

func TestParseBasic(t *testing.T) {
	p := New(nil)
	res, err := p.Parse(samplePage)
	if err != nil {
		t.Fatal(err)
	}

	if res.Title != "Hello World" {
		t.Fatalf("Title = %q, want %q", res.Title, "Hello World")
	}
	if _, ok := res.Headers["Welcome"]; !ok {
		t.Fatalf("expected %q in Headers, got %v", "Welcome", res.Headers)
	}
	if _, ok := res.Bold["bold"]; !ok {
		t.Fatalf("expected %q in Bold, got %v", "bold", res.Bold)
	}
	if len(res.Links) != 1 || res.Links[0] != "https://example.com/next" {
		t.Fatalf("Links = %v, want one link to example.com", res.Links)
	}

	for _, bad := range []string{"script", "var", "alt", "link", "ignored"} {
		for _, tok := range res.Tokens {
			if tok == bad {
				t.Fatalf("visible text unexpectedly contains %q (from script/a/img)", bad)
			}
		}
	}

	if res.VisibleText == "" {
		t.Fatalf("expected non-empty VisibleText")
	}
}

type stubSummarizer struct{ called string }

func (s *stubSummarizer) Summarize(text string) string {
	s.called = text
	return "stub summary"
}

func TestParseInvokesSummarizerWithVisibleText(t *testing.T) {
	stub := &stubSummarizer{}
	p := New(stub)
	res, err := p.Parse(samplePage)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary != "stub summary" {
		t.Fatalf("Summary = %q, want %q", res.Summary, "stub summary")
	}
	if stub.called != res.VisibleText {
		t.Fatalf("Summarizer was called with %q, want %q", stub.called, res.VisibleText)
	}
}
