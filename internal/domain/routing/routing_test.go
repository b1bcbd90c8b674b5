package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/withushr/approval-engine/internal/domain/entity"
	"github.com/withushr/approval-engine/internal/domain/workflow"
)

func int64p(v int64) *int64 { return &v }
func intp(v int) *int       { return &v }

func TestFromDocument(t *testing.T) {
	stage := entity.StageDepartmentHead

	tests := []struct {
		name     string
		doc      *entity.Document
		wantMode Mode
		wantErr  bool
	}{
		{
			name:     "no routing state",
			doc:      &entity.Document{ID: 1},
			wantMode: ModeNone,
		},
		{
			name:     "legacy stage set",
			doc:      &entity.Document{ID: 1, LegacyStage: &stage},
			wantMode: ModeLegacy,
		},
		{
			name:     "approval line set",
			doc:      &entity.Document{ID: 1, ApprovalLineID: int64p(7), CurrentStepOrder: intp(2)},
			wantMode: ModeLine,
		},
		{
			name:     "line without step order defaults to step 1",
			doc:      &entity.Document{ID: 1, ApprovalLineID: int64p(7)},
			wantMode: ModeLine,
		},
		{
			name:    "both representations set fails closed",
			doc:     &entity.Document{ID: 1, ApprovalLineID: int64p(7), LegacyStage: &stage},
			wantErr: true,
		},
		{
			name:    "non-positive step order fails closed",
			doc:     &entity.Document{ID: 1, ApprovalLineID: int64p(7), CurrentStepOrder: intp(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := FromDocument(tt.doc)
			if tt.wantErr {
				assert.True(t, workflow.IsConfiguration(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, rt.Mode())
		})
	}
}

func TestFromDocumentLineDefaults(t *testing.T) {
	rt, err := FromDocument(&entity.Document{ID: 1, ApprovalLineID: int64p(7)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), rt.LineID())
	assert.Equal(t, 1, rt.StepOrder())
}

func TestApplyRoundTrip(t *testing.T) {
	doc := &entity.Document{ID: 1}

	Legacy(entity.StageHRStaff).Apply(doc)
	require.NotNil(t, doc.LegacyStage)
	assert.Equal(t, entity.StageHRStaff, *doc.LegacyStage)
	assert.Nil(t, doc.ApprovalLineID)
	assert.Nil(t, doc.CurrentStepOrder)

	LineBased(3, 2).Apply(doc)
	assert.Nil(t, doc.LegacyStage)
	require.NotNil(t, doc.ApprovalLineID)
	assert.Equal(t, int64(3), *doc.ApprovalLineID)
	assert.Equal(t, 2, *doc.CurrentStepOrder)

	// Leaving flight clears the stage and step but keeps the line reference
	None().Apply(doc)
	assert.Nil(t, doc.LegacyStage)
	assert.Nil(t, doc.CurrentStepOrder)
	assert.NotNil(t, doc.ApprovalLineID)
}
