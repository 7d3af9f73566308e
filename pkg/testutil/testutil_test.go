package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Record("SetDebug", true)
	r.Record("Create", "app.yaml", "/base")
	r.Record("SetDebug", false)

	assert.Equal(t, []string{"SetDebug", "Create", "SetDebug"}, r.Names())
	assert.Equal(t, 2, r.Count("SetDebug"))
	assert.Equal(t, "Create(app.yaml, /base)", r.Calls()[1].String())

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestRecorder_Concurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record("Run")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.Count("Run"))
}

func TestAssertEventually(t *testing.T) {
	start := time.Now()
	AssertEventually(t, func() bool { return time.Since(start) > 20*time.Millisecond }, time.Second, "clock advances")
}
