package rag

import "testing"

func TestRerank_SeedsWithMostRelevantHit(t *testing.T) {
	hits := []Hit{
		{Rank: 1, Score: 0.2, Content: "low", Source: "a.txt", Page: 1},
		{Rank: 2, Score: 0.9, Content: "high", Source: "b.txt", Page: 2},
		{Rank: 3, Score: 0.5, Content: "mid", Source: "c.txt", Page: 3},
	}

	out := Rerank(hits, 3, 0.7)
	if len(out) != 3 {
		t.Fatalf("got %d hits, want 3", len(out))
	}
	if out[0].Content != "high" {
		t.Errorf("first reranked hit = %q, want the most relevant one", out[0].Content)
	}
}

func TestRerank_PrefersDiverseSources(t *testing.T) {
	// b is nearly as relevant as a but redundant (same source and page);
	// c is less relevant but from a different document.
	hits := []Hit{
		{Score: 1.0, Content: "a", Source: "doc1.txt", Page: 1},
		{Score: 0.6, Content: "b", Source: "doc1.txt", Page: 1},
		{Score: 0.5, Content: "c", Source: "doc2.txt", Page: 7},
	}

	out := Rerank(hits, 3, 0.7)

	want := []string{"a", "c", "b"}
	for i, w := range want {
		if out[i].Content != w {
			t.Errorf("out[%d].Content = %q, want %q", i, out[i].Content, w)
		}
	}
}

func TestRerank_ReturnsSubset(t *testing.T) {
	hits := []Hit{
		{Score: 0.9, Content: "a", Source: "doc1.txt", Page: 1},
		{Score: 0.8, Content: "b", Source: "doc2.txt", Page: 1},
		{Score: 0.7, Content: "c", Source: "doc3.txt", Page: 1},
	}

	out := Rerank(hits, 2, 0.7)
	if len(out) != 2 {
		t.Fatalf("got %d hits, want 2", len(out))
	}

	// topN beyond len(hits) returns everything.
	out = Rerank(hits, 10, 0.7)
	if len(out) != 3 {
		t.Fatalf("got %d hits, want 3", len(out))
	}
}

func TestRerank_EqualScoresKeepInputOrder(t *testing.T) {
	hits := []Hit{
		{Score: 0.5, Content: "a", Source: "doc.txt", Page: 1},
		{Score: 0.5, Content: "b", Source: "doc.txt", Page: 1},
		{Score: 0.5, Content: "c", Source: "doc.txt", Page: 1},
	}

	out := Rerank(hits, 3, 0.7)

	want := []string{"a", "b", "c"}
	for i, w := range want {
		if out[i].Content != w {
			t.Errorf("out[%d].Content = %q, want %q", i, out[i].Content, w)
		}
	}
}

func TestRerank_Deterministic(t *testing.T) {
	hits := []Hit{
		{Score: 0.9, Content: "a", Source: "doc1.txt", Page: 1},
		{Score: 0.8, Content: "b", Source: "doc1.txt", Page: 2},
		{Score: 0.7, Content: "c", Source: "doc2.txt", Page: 1},
		{Score: 0.6, Content: "d", Source: "doc2.txt", Page: 2},
	}

	first := Rerank(hits, 4, 0.7)
	for i := 0; i < 10; i++ {
		again := Rerank(hits, 4, 0.7)
		for j := range first {
			if again[j].Content != first[j].Content {
				t.Fatalf("run %d diverged at position %d: %q vs %q", i, j, again[j].Content, first[j].Content)
			}
		}
	}
}

func TestRerank_EmptyAndZeroTopN(t *testing.T) {
	if out := Rerank(nil, 3, 0.7); out != nil {
		t.Errorf("Rerank(nil) = %v, want nil", out)
	}
	hits := []Hit{{Score: 0.5, Content: "a"}}
	if out := Rerank(hits, 0, 0.7); out != nil {
		t.Errorf("Rerank with topN=0 = %v, want nil", out)
	}
}
