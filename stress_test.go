package rx

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestConcurrentUse shares each pattern between goroutines that all drive their own
// cursors and substitutions over it.
func TestConcurrentUse(t *testing.T) {
	forEach(t, luaConfigs, func(t *testing.T, c config) {
		p := c.compile(t, `<(%a+)>`)

		var g errgroup.Group
		g.SetLimit(2 * runtime.GOMAXPROCS(0))
		for i := 0; i < 200; i++ {
			i := i
			g.Go(func() error {
				text := fmt.Sprintf("n%d <hello> x <dolly%d>", i, i)
				got, err := p.Gsub(text, Template("[%1]"))
				if err != nil {
					return err
				}
				if want := fmt.Sprintf("n%d [hello] x <dolly%d>", i, i); got != want {
					return fmt.Errorf("Gsub(%q) = %q; want %q", text, got, want)
				}
				if words := p.Gmatch(text).AppendTo(nil); len(words) != 1 {
					return fmt.Errorf("Gmatch(%q) = %q", text, words)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
	})
}

func TestGsubNoMatchAllocations(t *testing.T) {
	animals := MustCompile(`cat`, POSIX)
	const text = `The quick brown fox jumps over the lazy dog`

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	startAlloc := ms.HeapInuse

	for i := 0; i < 100000; i++ {
		got, err := animals.Gsub(text, Template("animal"))
		require.NoError(t, err)
		if got != text {
			t.Fatalf("Gsub changed %q to %q", text, got)
		}
	}

	runtime.GC()
	runtime.ReadMemStats(&ms)
	endAlloc := ms.HeapInuse

	if endAlloc > startAlloc && endAlloc-startAlloc > 1000000 {
		t.Errorf("memory usage increased by %d", endAlloc-startAlloc)
	}
}
