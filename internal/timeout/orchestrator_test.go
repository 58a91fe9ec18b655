package timeout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetValidate(t *testing.T) {
	tests := []struct {
		name    string
		budget  Budget
		wantErr string
	}{
		{
			name:   "valid cascade",
			budget: Budget{Request: 45 * time.Second, OCRJob: 20 * time.Second, SyncCeiling: 5 * time.Second, Providers: []time.Duration{8 * time.Second, 8 * time.Second}},
		},
		{
			name:   "no providers",
			budget: Budget{Request: 30 * time.Second, OCRJob: 20 * time.Second},
		},
		{
			name:    "ocr longer than request",
			budget:  Budget{Request: 10 * time.Second, OCRJob: 20 * time.Second},
			wantErr: "shorter than ocr job timeout",
		},
		{
			name:    "provider chain longer than request",
			budget:  Budget{Request: 20 * time.Second, OCRJob: 10 * time.Second, Providers: []time.Duration{8 * time.Second, 8 * time.Second, 8 * time.Second}},
			wantErr: "3 provider timeouts totalling 24s",
		},
		{
			name:    "zero request",
			budget:  Budget{OCRJob: time.Second},
			wantErr: "request timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.budget.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStageNeverOutlivesRequest(t *testing.T) {
	o := New(Budget{Request: 50 * time.Millisecond, OCRJob: 20 * time.Millisecond})

	ctx, cancel, deadline := o.Begin(context.Background())
	defer cancel()

	stage, stageCancel := o.Stage(ctx, time.Hour)
	defer stageCancel()

	got, ok := stage.Deadline()
	require.True(t, ok)
	assert.False(t, got.After(deadline))
}

func TestBeginKeepsEarlierCallerDeadline(t *testing.T) {
	o := New(Budget{Request: time.Hour, OCRJob: time.Minute})

	parent, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	want, _ := parent.Deadline()

	_, c, got := o.Begin(parent)
	defer c()
	assert.Equal(t, want, got)
}

func TestCeiling(t *testing.T) {
	o := New(Budget{Request: time.Minute, OCRJob: 20 * time.Second, SyncCeiling: 5 * time.Second})

	ctx, cancel, _ := o.Begin(context.Background())
	defer cancel()
	assert.Equal(t, 5*time.Second, o.Ceiling(ctx))

	short, c2 := context.WithTimeout(context.Background(), time.Second)
	defer c2()
	assert.LessOrEqual(t, o.Ceiling(short), time.Second)
}

func TestExpired(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()
	assert.True(t, Expired(ctx))

	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	assert.False(t, Expired(ctx2))
}
