package models

import "testing"

func TestRankQuery_Validate(t *testing.T) {
	tests := []struct {
		name     string
		query    RankQuery
		wantErr  bool
		wantTopK int
		wantText string
	}{
		{name: "empty", query: RankQuery{Query: ""}, wantErr: true},
		{name: "whitespace only", query: RankQuery{Query: "   \t"}, wantErr: true},
		{name: "default top k", query: RankQuery{Query: "errors"}, wantTopK: 10, wantText: "errors"},
		{name: "explicit top k", query: RankQuery{Query: "errors", TopK: 3}, wantTopK: 3, wantText: "errors"},
		{name: "clamped", query: RankQuery{Query: "errors", TopK: MaxTopK + 5}, wantTopK: MaxTopK, wantText: "errors"},
		{name: "negative keeps all", query: RankQuery{Query: "errors", TopK: -7}, wantTopK: AllResults, wantText: "errors"},
		{name: "trimmed", query: RankQuery{Query: "  fix bugs  ", TopK: 2}, wantTopK: 2, wantText: "fix bugs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			err := q.Validate(10)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if q.TopK != tt.wantTopK {
				t.Errorf("TopK = %d, want %d", q.TopK, tt.wantTopK)
			}
			if q.Query != tt.wantText {
				t.Errorf("Query = %q, want %q", q.Query, tt.wantText)
			}
		})
	}
}

func TestFields_Complete(t *testing.T) {
	if (Fields{Topic: "a"}).Complete() {
		t.Error("missing question should be incomplete")
	}
	if (Fields{Question: "q"}).Complete() {
		t.Error("missing topic should be incomplete")
	}
	if !(Fields{Topic: "a", Question: "q"}).Complete() {
		t.Error("both set should be complete")
	}
}
