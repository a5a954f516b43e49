package entity

import (
	"testing"
	"time"
)

func TestArticle_PublishedAt(t *testing.T) {
	a := Article{PublishTime: 1700000000}
	want := time.Unix(1700000000, 0)
	if !a.PublishedAt().Equal(want) {
		t.Errorf("PublishedAt() = %v, want %v", a.PublishedAt(), want)
	}
}

func TestArticle_HasContent(t *testing.T) {
	tests := []struct {
		name    string
		article Article
		want    bool
	}{
		{"empty", Article{}, false},
		{"summary only", Article{Summary: "lede"}, true},
		{"body only", Article{Body: "text"}, true},
		{"both", Article{Summary: "lede", Body: "text"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.article.HasContent(); got != tt.want {
				t.Errorf("HasContent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRowID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRowID()
		if len(id) != 16 {
			t.Fatalf("NewRowID() length = %d, want 16", len(id))
		}
		if seen[id] {
			t.Fatalf("NewRowID() produced duplicate %q", id)
		}
		seen[id] = true
	}
}
