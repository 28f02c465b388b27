package e2e

import "testing"

func TestBuildCorpus(t *testing.T) {
	c := BuildCorpus()
	if len(c.Questions) != 15 {
		t.Errorf("questions = %d, want 15", len(c.Questions))
	}
	if len(c.TestCases) != 12 {
		t.Errorf("test cases = %d, want 12 (one per unique question)", len(c.TestCases))
	}
	if got := c.Duplicates["python_dataset"]; len(got) != 1 || got[0] != "q04" {
		t.Errorf("python duplicates = %v", got)
	}
	if got := c.Duplicates["sql_dataset"]; len(got) != 2 || got[0] != "q03" || got[1] != "q05" {
		t.Errorf("sql duplicates = %v", got)
	}
	if _, ok := c.Duplicates["typescript_dataset"]; ok {
		t.Error("first folder cannot hold duplicates")
	}
}
