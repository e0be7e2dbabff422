package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProposalChanges(t *testing.T) {
	tests := []struct {
		name string
		p    Proposal
		want bool
	}{
		{
			name: "category move",
			p:    Proposal{FromCategory: "faldas", ToCategory: "vestidos"},
			want: true,
		},
		{
			name: "same category is no move",
			p:    Proposal{FromCategory: "faldas", ToCategory: "faldas"},
			want: false,
		},
		{
			name: "clearing a set subcategory is a change",
			p:    Proposal{FromSubcategory: "falda_midi", ClearSubcategory: true},
			want: true,
		},
		{
			name: "clearing an empty subcategory is not",
			p:    Proposal{ClearSubcategory: true},
			want: false,
		},
		{
			name: "gender move",
			p:    Proposal{ToGender: "femenino"},
			want: true,
		},
		{
			name: "empty proposal",
			p:    Proposal{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.HasChanges())
		})
	}
}

func TestProposalValidate(t *testing.T) {
	valid := Proposal{
		ProductID:  "p1",
		ToCategory: "vestidos",
		Confidence: 0.9,
		Status:     ProposalPending,
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.ProductID = ""
	assert.Error(t, missing.Validate())

	noop := valid
	noop.ToCategory = ""
	assert.Error(t, noop.Validate())

	confidence := valid
	confidence.Confidence = 1.5
	assert.Error(t, confidence.Validate())

	status := valid
	status.Status = "reviewing"
	assert.Error(t, status.Validate())
}

func TestRunValidateAndTerminal(t *testing.T) {
	run := ReseedRun{Trigger: TriggerCron, Status: RunRunning}
	assert.NoError(t, run.Validate())
	assert.False(t, run.Terminal())

	run.Status = RunCompleted
	assert.True(t, run.Terminal())

	run.Trigger = "webhook"
	assert.Error(t, run.Validate())

	run.Trigger = TriggerManual
	run.Status = "paused"
	assert.Error(t, run.Validate())
}

func TestBestDescription(t *testing.T) {
	p := Product{Description: "texto nuevo", OriginalDescription: "texto original"}
	assert.Equal(t, "texto original", p.BestDescription())

	p.OriginalDescription = "   "
	assert.Equal(t, "texto nuevo", p.BestDescription())
}
