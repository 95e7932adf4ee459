package ingest

import (
	"testing"

	"github.com/synthesiscore/core/pkg/models"
)

func TestClean_StripsHTMLAndNormalizes(t *testing.T) {
	raw := "<p>Hello&nbsp;World，  this   is\t\ttext.</p>"
	got := Clean(raw, 2000)
	if got == raw {
		t.Fatal("Clean did not modify markup-bearing input")
	}
	if len(got) > 0 && got[len(got)-1] == ' ' {
		t.Errorf("Clean left trailing whitespace: %q", got)
	}
}

func TestClean_Truncates(t *testing.T) {
	raw := make([]byte, 3000)
	for i := range raw {
		raw[i] = 'a'
	}
	got := Clean(string(raw), 2000)
	if len(got) > 2000 {
		t.Errorf("len(Clean) = %d, want <= 2000", len(got))
	}
}

func TestLexicalDiversity(t *testing.T) {
	if got := LexicalDiversity("the the the the"); got != 0.25 {
		t.Errorf("LexicalDiversity(repeated) = %v, want 0.25", got)
	}
	if got := LexicalDiversity(""); got != 0 {
		t.Errorf("LexicalDiversity(empty) = %v, want 0", got)
	}
}

func TestQualityGate(t *testing.T) {
	tooShort := "short"
	if QualityGate(tooShort) {
		t.Error("QualityGate accepted a body under 50 chars")
	}

	lowDiversity := ""
	for i := 0; i < 20; i++ {
		lowDiversity += "same same same same same same same same same same same "
	}
	if QualityGate(lowDiversity) {
		t.Error("QualityGate accepted a low-lexical-diversity body")
	}

	noSignals := "this is just plain prose with nothing special about it at all here"
	if QualityGate(noSignals) {
		t.Error("QualityGate accepted a body with fewer than 2 info-density signals")
	}

	good := "Contact John Smith at john.smith@example.com or visit https://example.com for the 42 remaining units."
	if !QualityGate(good) {
		t.Error("QualityGate rejected a body that should have passed")
	}
}

func TestIngestTrajectories_EmitsFinalResultAndSteps(t *testing.T) {
	ing := New(nil, nil)

	traj := models.Trajectory{
		ID: "traj-1",
		Steps: []models.Step{
			{
				ToolID:      "web_fetch",
				Observation: "Contact John Smith at john.smith@example.com or visit https://example.com for 42 units.",
				Success:     true,
			},
			{
				ToolID:      "web_fetch",
				Observation: "",
				Success:     false,
			},
		},
		FinalResult: "The final computed result references John Smith and order #4821, confirmed at https://example.com/orders.",
		Success:     true,
	}

	contents := ing.IngestTrajectories([]models.Trajectory{traj})
	if len(contents) == 0 {
		t.Fatal("expected at least one CorpusContent")
	}
	for _, c := range contents {
		if c.Status != models.ProcessingExtracted {
			t.Errorf("content %q status = %v, want extracted", c.ID, c.Status)
		}
		if c.Metadata["quality_score"] == "" {
			t.Errorf("content %q missing quality_score metadata", c.ID)
		}
	}
}

func TestIngestTrajectories_SkipsFailedStepWithoutAbortingTrajectory(t *testing.T) {
	ing := New(nil, nil)

	traj := models.Trajectory{
		ID: "traj-2",
		Steps: []models.Step{
			{ToolID: "exec", Observation: "", Success: false},
		},
		FinalResult: "Final result body mentions Acme Corp and the URL https://acme.example.com for reference purposes.",
	}

	contents := ing.IngestTrajectories([]models.Trajectory{traj})
	if len(contents) != 1 {
		t.Fatalf("len(contents) = %d, want 1 (final result only, step skipped)", len(contents))
	}
}

func TestIngestExternal_NilToolsReturnsNil(t *testing.T) {
	ing := New(nil, nil)
	if got := ing.IngestExternal(nil, []string{"example.com"}); got != nil {
		t.Errorf("IngestExternal with nil tools = %v, want nil", got)
	}
}
