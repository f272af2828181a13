package integration

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/iwvelando/studio-forecast/internal/projection"
	"github.com/iwvelando/studio-forecast/internal/report"
	"github.com/iwvelando/studio-forecast/pkg/output"
)

// TestPerformance tests performance characteristics
func TestPerformance(t *testing.T) {
	start := time.Now()
	conf := loadTestConfig(t)
	loadTime := time.Since(start)

	set := conf.AssumptionSet()

	start = time.Now()
	p := projection.Project(set)
	projectTime := time.Since(start)

	start = time.Now()
	if _, err := report.Bytes(conf.DisplayName(), set, p); err != nil {
		t.Fatalf("report.Bytes() error = %v", err)
	}
	reportTime := time.Since(start)

	t.Logf("load %s, project %s, report %s", loadTime, projectTime, reportTime)

	if projectTime > 50*time.Millisecond {
		t.Errorf("projection took %s, expected well under 50ms", projectTime)
	}
}

// TestConcurrentProjections runs the engine from many goroutines; run with
// -race to check it shares no state.
func TestConcurrentProjections(t *testing.T) {
	set := loadTestConfig(t).AssumptionSet()
	want := projection.Project(set)

	var wg sync.WaitGroup
	results := make([]projection.Projection, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = projection.Project(set)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if got.Y3().Cumulative != want.Y3().Cumulative || got.BreakEvenMonth != want.BreakEvenMonth {
			t.Fatalf("projection %d differs from the sequential result", i)
		}
	}
}

func BenchmarkProject(b *testing.B) {
	set := loadTestConfig(b).AssumptionSet()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = projection.Project(set)
	}
}

func BenchmarkPrettyFormat(b *testing.B) {
	conf := loadTestConfig(b)
	p := projection.Project(conf.AssumptionSet())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := output.PrettyFormat(io.Discard, conf.DisplayName(), p); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReport(b *testing.B) {
	conf := loadTestConfig(b)
	set := conf.AssumptionSet()
	p := projection.Project(set)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := report.Write(io.Discard, conf.DisplayName(), set, p); err != nil {
			b.Fatal(err)
		}
	}
}
