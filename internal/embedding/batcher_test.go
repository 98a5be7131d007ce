package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kumaryan12/mini-rag/internal/domain"
)

// fakeService encodes each text as a one-dimensional vector holding its numeric value.
type fakeService struct {
	mu       sync.Mutex
	calls    [][]string
	purposes []Purpose
	keyed    bool
	// short drops one vector from the batch with this call index (1-based).
	short int
	err   error
}

func (f *fakeService) Model() string { return "fake-v1" }

func (f *fakeService) Embed(_ context.Context, texts []string, purpose Purpose) (Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, texts)
	f.purposes = append(f.purposes, purpose)
	call := len(f.calls)
	f.mu.Unlock()

	if f.err != nil {
		return Response{}, f.err
	}
	vectors := make([][]float32, 0, len(texts))
	for _, t := range texts {
		n, _ := strconv.Atoi(t)
		vectors = append(vectors, []float32{float32(n)})
	}
	if call == f.short {
		vectors = vectors[:len(vectors)-1]
	}
	if f.keyed {
		return Response{ByType: map[string][][]float32{"int8": {}, PrimaryType: vectors}}, nil
	}
	return Response{Floats: vectors}, nil
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(i)
	}
	return out
}

func TestBatcher_CallCountAndOrder(t *testing.T) {
	tests := []struct {
		n, batch, concurrency, wantCalls int
	}{
		{n: 1, batch: 96, concurrency: 1, wantCalls: 1},
		{n: 96, batch: 96, concurrency: 1, wantCalls: 1},
		{n: 97, batch: 96, concurrency: 1, wantCalls: 2},
		{n: 250, batch: 96, concurrency: 1, wantCalls: 3},
		{n: 250, batch: 10, concurrency: 4, wantCalls: 25},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d/b=%d/c=%d", tt.n, tt.batch, tt.concurrency), func(t *testing.T) {
			svc := &fakeService{}
			b := NewBatcher(svc, BatcherConfig{BatchSize: tt.batch, Concurrency: tt.concurrency}, zap.NewNop())

			vectors, err := b.Embed(context.Background(), numbered(tt.n), PurposeDocument)
			require.NoError(t, err)
			assert.Len(t, svc.calls, tt.wantCalls)
			require.Len(t, vectors, tt.n)
			for i, v := range vectors {
				assert.Equal(t, float32(i), v[0])
			}
			for _, c := range svc.calls {
				assert.LessOrEqual(t, len(c), tt.batch)
			}
		})
	}
}

func TestBatcher_EmptyInputMakesNoCalls(t *testing.T) {
	svc := &fakeService{}
	vectors, err := NewBatcher(svc, BatcherConfig{}, nil).Embed(context.Background(), nil, PurposeDocument)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Empty(t, svc.calls)
}

func TestBatcher_CountMismatchFailsWholeCall(t *testing.T) {
	svc := &fakeService{short: 2}
	b := NewBatcher(svc, BatcherConfig{BatchSize: 10}, zap.NewNop())

	vectors, err := b.Embed(context.Background(), numbered(35), PurposeDocument)
	require.Error(t, err)
	assert.Nil(t, vectors)
	assert.True(t, errors.Is(err, domain.ErrCountMismatch))
	assert.Contains(t, err.Error(), "batch starting 10: expected 10, got 9")
	assert.Len(t, svc.calls, 2, "later batches must not be issued after a mismatch")
}

func TestBatcher_UpstreamErrorPropagates(t *testing.T) {
	boom := domain.UpstreamError("cohere", errors.New("503"))
	b := NewBatcher(&fakeService{err: boom}, BatcherConfig{}, nil)
	_, err := b.Embed(context.Background(), numbered(3), PurposeDocument)
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestBatcher_KeyedResponse(t *testing.T) {
	svc := &fakeService{keyed: true}
	vectors, err := NewBatcher(svc, BatcherConfig{BatchSize: 2}, nil).Embed(context.Background(), numbered(5), PurposeDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 5)
	assert.Equal(t, float32(4), vectors[4][0])
}

func TestBatcher_EmbedQueryUsesQueryPurpose(t *testing.T) {
	svc := &fakeService{}
	v, err := NewBatcher(svc, BatcherConfig{}, nil).EmbedQuery(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []float32{7}, v)
	assert.Equal(t, []Purpose{PurposeQuery}, svc.purposes)
}

func TestResponse_Vectors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want [][]float32
	}{
		{"plain list", `[[1,2],[3,4]]`, [][]float32{{1, 2}, {3, 4}}},
		{"float key preferred", `{"int8":[[9]],"float":[[1]]}`, [][]float32{{1}}},
		{"first key fallback", `{"uint8":[[7]],"binary":[[5]]}`, [][]float32{{5}}},
		{"empty mapping", `{}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Response
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))
			assert.Equal(t, tt.want, r.Vectors())
		})
	}

	var r Response
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &r))
}
