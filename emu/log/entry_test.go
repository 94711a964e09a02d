package log

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
)

type cartContext string

func (c *cartContext) AddLogContext(z *EntryZ) { z.String("cart", string(*c)) }

func TestContexts(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(io.Discard) })

	c := cartContext("MMC3")
	AddContext(&c)
	ModPPU.WarnZ("with context").End()
	if !strings.Contains(buf.String(), "cart=MMC3") {
		t.Errorf("entry %q doesn't carry the context", buf.String())
	}

	RemoveContext(&c)
	RemoveContext(&c)
	buf.Reset()
	ModPPU.WarnZ("without context").End()
	if strings.Contains(buf.String(), "cart=") {
		t.Errorf("entry %q carries a removed context", buf.String())
	}
}

func TestContextsConcurrent(t *testing.T) {
	SetOutput(io.Discard)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := cartContext("NROM")
			for range 100 {
				AddContext(&c)
				ModEmu.WarnZ("entry").End()
				ModEmu.Warnf("entry %d", 1)
				RemoveContext(&c)
			}
		}()
	}
	wg.Wait()
}
