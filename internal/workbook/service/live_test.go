package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"troskovnik-service/internal/workbook/model"
)

type deliveries struct {
	mu      sync.Mutex
	queries []string
	runs    int
}

func (d *deliveries) run(q string) []model.Result {
	d.mu.Lock()
	d.runs++
	d.mu.Unlock()
	return []model.Result{{Article: model.Article{Name: q}}}
}

func (d *deliveries) deliver(q string, _ []model.Result) {
	d.mu.Lock()
	d.queries = append(d.queries, q)
	d.mu.Unlock()
}

func (d *deliveries) snapshot() ([]string, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.queries...), d.runs
}

func TestLiveSearchDebounces(t *testing.T) {
	var d deliveries
	ls := NewLiveSearch(30*time.Millisecond, d.run, d.deliver)

	for _, q := range []string{"a", "aj", "ajv", "ajvar"} {
		ls.Input(q)
	}
	require.Eventually(t, func() bool {
		q, _ := d.snapshot()
		return len(q) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	q, runs := d.snapshot()
	assert.Equal(t, []string{"ajvar"}, q)
	assert.Equal(t, 1, runs)
}

func TestLiveSearchCancel(t *testing.T) {
	var d deliveries
	ls := NewLiveSearch(20*time.Millisecond, d.run, d.deliver)

	ls.Input("ajvar")
	ls.Cancel()
	time.Sleep(60 * time.Millisecond)
	q, runs := d.snapshot()
	assert.Empty(t, q)
	assert.Zero(t, runs)
}

func TestLiveSearchFlush(t *testing.T) {
	var d deliveries
	ls := NewLiveSearch(time.Hour, d.run, d.deliver)

	ls.Input("paprika")
	ls.Flush()
	q, _ := d.snapshot()
	assert.Equal(t, []string{"paprika"}, q)

	ls.Flush()
	q, _ = d.snapshot()
	assert.Len(t, q, 1, "nothing pending, nothing delivered")
}

func TestLiveSearchDropsSupersededRun(t *testing.T) {
	var d deliveries
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	ls := NewLiveSearch(5*time.Millisecond, func(q string) []model.Result {
		if q == "old" {
			once.Do(func() { close(started) })
			<-release
		}
		return d.run(q)
	}, d.deliver)

	ls.Input("old")
	<-started
	ls.Input("new")
	close(release)
	ls.Flush()

	q, _ := d.snapshot()
	assert.Equal(t, []string{"new"}, q)
}

func TestDefaultDebounce(t *testing.T) {
	ls := NewLiveSearch(0, nil, nil)
	assert.Equal(t, DefaultDebounce, ls.delay)
}

func TestFixedVat(t *testing.T) {
	assert.Equal(t, DefaultVatRate, FixedVat(0).SelectVatRate(context.Background(), "x"))
	assert.Equal(t, 5.0, FixedVat(5).SelectVatRate(context.Background(), "x"))
}

func TestPromptVat(t *testing.T) {
	var out strings.Builder
	p := PromptVat{In: strings.NewReader("5\n"), Out: &out}
	assert.Equal(t, 5.0, p.SelectVatRate(context.Background(), "Ajvar"))
	assert.Contains(t, out.String(), `"Ajvar"`)

	assert.Equal(t, DefaultVatRate, PromptVat{In: strings.NewReader("13\n")}.SelectVatRate(context.Background(), "x"))
	assert.Equal(t, DefaultVatRate, PromptVat{In: strings.NewReader("")}.SelectVatRate(context.Background(), "x"))
	assert.Equal(t, DefaultVatRate, PromptVat{}.SelectVatRate(context.Background(), "x"))
}

func TestPromptVatHonoursCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Equal(t, DefaultVatRate, PromptVat{In: r}.SelectVatRate(ctx, "x"))

	cancelled, stop := context.WithCancel(context.Background())
	stop()
	assert.Equal(t, DefaultVatRate, selectVat(cancelled, FixedVat(5), "x"))
	assert.Equal(t, DefaultVatRate, selectVat(context.Background(), nil, "x"))
}
