package meta

import "testing"

func TestFindFirstWithClass(t *testing.T) {
	doc, err := parseHTML(`<div><p class="a b">x</p><p class="c">y</p></div>`)
	if err != nil {
		t.Fatalf("parseHTML: %v", err)
	}
	p, ok := findFirstWithClass(doc, "p", "b")
	if !ok {
		t.Fatalf("expected to find p.b")
	}
	if got := textContent(p); got != "x" {
		t.Errorf("textContent = %q, want x", got)
	}
	if _, ok := findFirstWithClass(doc, "p", "missing"); ok {
		t.Errorf("expected no match for missing class")
	}
}

func TestCollectUntilNextSibling(t *testing.T) {
	doc, err := parseHTML(`<div><h3>a</h3><p>one</p><p>two</p><h3>b</h3><p>three</p></div>`)
	if err != nil {
		t.Fatalf("parseHTML: %v", err)
	}
	h3s := findAll(doc, "h3")
	if len(h3s) != 2 {
		t.Fatalf("expected 2 h3, got %d", len(h3s))
	}
	sibs := collectUntilNextSibling(h3s[0], "h3")
	if len(sibs) != 2 {
		t.Fatalf("expected 2 siblings before next h3, got %d", len(sibs))
	}
	if textContent(sibs[0]) != "one" || textContent(sibs[1]) != "two" {
		t.Errorf("unexpected sibling contents: %q, %q", textContent(sibs[0]), textContent(sibs[1]))
	}
}

func TestInnerHTML(t *testing.T) {
	doc, err := parseHTML(`<div><dd>pre <code>x</code> post</dd></div>`)
	if err != nil {
		t.Fatalf("parseHTML: %v", err)
	}
	dd, ok := findFirst(doc, "dd")
	if !ok {
		t.Fatalf("expected to find dd")
	}
	got := innerHTML(dd)
	want := "pre <code>x</code> post"
	if got != want {
		t.Errorf("innerHTML = %q, want %q", got, want)
	}
}
